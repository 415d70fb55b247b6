package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/calc-service/internal/metrics"
	"github.com/iliyamo/calc-service/internal/queue"
)

type recordingPublisher struct {
	events []queue.CalculationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.CalculationEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func serveCalculate(t *testing.T, h *CalculateHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.POST("/calculate", h.Calculate)

	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCalculateScenarios(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"add", `{"operation":"add","a":2,"b":3}`, http.StatusOK, `{"operation":"add","a":2,"b":3,"result":5}`},
		{"subtract", `{"operation":"subtract","a":3,"b":10}`, http.StatusOK, `{"operation":"subtract","a":3,"b":10,"result":-7}`},
		{"multiply", `{"operation":"multiply","a":-3,"b":-4}`, http.StatusOK, `{"operation":"multiply","a":-3,"b":-4,"result":12}`},
		{"divide", `{"operation":"divide","a":7,"b":2}`, http.StatusOK, `{"operation":"divide","a":7,"b":2,"result":3.5}`},
		{"overflow renders null", `{"operation":"multiply","a":1e308,"b":10}`, http.StatusOK, `{"operation":"multiply","a":1e308,"b":10,"result":null}`},
		{"division by zero", `{"operation":"divide","a":10,"b":0}`, http.StatusBadRequest, `{"error":"Division by zero"}`},
		{"invalid operation", `{"operation":"pow","a":2,"b":3}`, http.StatusBadRequest, `{"error":"Invalid operation"}`},
		{"missing b", `{"operation":"add","a":2}`, http.StatusBadRequest, `{"error":"Missing required parameters"}`},
		{"malformed json", `{"operation":`, http.StatusBadRequest, `{"error":"Missing required parameters"}`},
		{"empty body", ``, http.StatusBadRequest, `{"error":"Missing required parameters"}`},
		{"non numeric", `{"operation":"add","a":"2","b":3}`, http.StatusBadRequest, `{"error":"Parameters a and b must be numbers"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveCalculate(t, NewCalculateHandler(nil, nil, quietLogger()), tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestCalculatePublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	h := NewCalculateHandler(nil, pub, quietLogger())
	h.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec := serveCalculate(t, h, `{"operation":"divide","a":7,"b":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "divide", ev.Operation)
	assert.Equal(t, 3.5, ev.Result)
	assert.Equal(t, "2024-01-02T03:04:05Z", ev.CalculatedAt)

	serveCalculate(t, h, `{"operation":"divide","a":7,"b":0}`)
	serveCalculate(t, h, `{"operation":"multiply","a":1e308,"b":10}`)
	assert.Len(t, pub.events, 1, "failures and non-finite results are not published")
}

func TestCalculateIgnoresPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	rec := serveCalculate(t, NewCalculateHandler(nil, pub, quietLogger()), `{"operation":"add","a":1,"b":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.events, 1)
}

func TestCalculateRecordsMetrics(t *testing.T) {
	m := metrics.New()
	h := NewCalculateHandler(m, nil, quietLogger())

	serveCalculate(t, h, `{"operation":"add","a":1,"b":1}`)
	serveCalculate(t, h, `{"operation":"divide","a":1,"b":0}`)
	serveCalculate(t, h, `{"operation":"pow","a":1,"b":0}`)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "calc_calculations_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			got[labels["operation"]+"/"+labels["outcome"]] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		"add/ok":                    1,
		"divide/division_by_zero":   1,
		"unknown/unknown_operation": 1,
	}, got)
}

func TestWriteCalcErrorUnknownError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, writeCalcError(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
