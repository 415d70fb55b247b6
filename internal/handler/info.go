package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calc-service/internal/calc"
)

// Version is reported by GET /.
const Version = "1.0.0"

// InfoHandler serves the static metadata and health endpoints.
type InfoHandler struct {
	Endpoints []string
	now       func() time.Time
}

// NewInfoHandler lists endpoints in the order given.
func NewInfoHandler(endpoints []string) *InfoHandler {
	return &InfoHandler{Endpoints: endpoints, now: time.Now}
}

type indexResp struct {
	Message    string   `json:"message"`
	Version    string   `json:"version"`
	Endpoints  []string `json:"endpoints"`
	Operations []string `json:"operations"`
}

type healthResp struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Index describes the service.
func (h *InfoHandler) Index(c echo.Context) error {
	ops := make([]string, 0, len(calc.Operations()))
	for _, op := range calc.Operations() {
		ops = append(ops, op.String())
	}
	return c.JSON(http.StatusOK, indexResp{
		Message:    "Welcome to Calc Service",
		Version:    Version,
		Endpoints:  h.Endpoints,
		Operations: ops,
	})
}

// Health is a liveness check used by load balancers and monitoring. The
// timestamp is UTC with millisecond precision.
func (h *InfoHandler) Health(c echo.Context) error {
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	return c.JSON(http.StatusOK, healthResp{
		Status:    "healthy",
		Timestamp: now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
