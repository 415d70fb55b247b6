// Package handler defines the HTTP handlers of the service.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calc-service/internal/calc"
	"github.com/iliyamo/calc-service/internal/metrics"
	"github.com/iliyamo/calc-service/internal/queue"
)

const publishTimeout = 2 * time.Second

// EventPublisher delivers calculation events. *queue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CalculationEvent) error
}

// CalculateHandler serves POST /calculate. Metrics and Events are optional.
type CalculateHandler struct {
	Metrics *metrics.Metrics
	Events  EventPublisher
	Logger  *slog.Logger
	now     func() time.Time
}

// NewCalculateHandler wires the optional collaborators; nil values disable
// them.
func NewCalculateHandler(m *metrics.Metrics, events EventPublisher, logger *slog.Logger) *CalculateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalculateHandler{Metrics: m, Events: events, Logger: logger, now: time.Now}
}

// ----- DTOs -----

// calculateResp echoes the request. Result is null when the value is not
// representable in JSON (an overflow to ±Inf).
type calculateResp struct {
	Operation string   `json:"operation"`
	A         float64  `json:"a"`
	B         float64  `json:"b"`
	Result    *float64 `json:"result"`
}

// Calculate validates the body, evaluates it and maps the outcome to a
// response. Every calculation error is a 400 with its message.
func (h *CalculateHandler) Calculate(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// The body limit middleware reports oversized bodies this way.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		body = nil
	}

	req, err := calc.ParseRequest(body)
	if err != nil {
		h.observe("unknown", err)
		return writeCalcError(c, err)
	}
	res, err := calc.Evaluate(req)
	if err != nil {
		h.observe(req.Op.String(), err)
		return writeCalcError(c, err)
	}
	h.observe(req.Op.String(), nil)

	resp := calculateResp{Operation: res.Op.String(), A: res.A, B: res.B}
	finite := !math.IsInf(res.Result, 0) && !math.IsNaN(res.Result)
	if finite {
		v := res.Result
		resp.Result = &v
		h.publish(c, res)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CalculateHandler) observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if kind, ok := calc.KindOf(err); ok {
			outcome = kind.String()
		}
	}
	h.Metrics.ObserveCalculation(operation, outcome)
}

// publish sends the event synchronously. Failures are logged by the
// publisher and never change the response.
func (h *CalculateHandler) publish(c echo.Context, res calc.Result) {
	if h.Events == nil {
		return
	}
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	reqID := c.Response().Header().Get(echo.HeaderXRequestID)
	ev := queue.NewCalculationEvent(reqID, res, now())

	ctx, cancel := context.WithTimeout(c.Request().Context(), publishTimeout)
	defer cancel()
	if err := h.Events.Publish(ctx, ev); err != nil {
		h.Logger.Warn("calculation event not published", "event_id", ev.ID, "request_id", reqID, "error", err)
	}
}

// writeCalcError maps calculation errors to 400 and anything else to 500.
func writeCalcError(c echo.Context, err error) error {
	var ce *calc.Error
	if errors.As(err, &ce) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ce.Message})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
}
