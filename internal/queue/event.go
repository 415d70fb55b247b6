// Package queue defines the calculation event exchanged over RabbitMQ and
// the publisher and consumer that move it.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/calc-service/internal/calc"
)

// CalculationEvent is published after a successful calculation. It carries
// enough information for downstream consumers to audit or aggregate
// calculations without calling back into the service.
type CalculationEvent struct {
	ID           string  `json:"id"`
	RequestID    string  `json:"request_id,omitempty"`
	Operation    string  `json:"operation"`
	A            float64 `json:"a"`
	B            float64 `json:"b"`
	Result       float64 `json:"result"`
	CalculatedAt string  `json:"calculated_at"`
}

// NewCalculationEvent builds an event for res. Non-finite results cannot be
// encoded as JSON, so callers should skip publishing them.
func NewCalculationEvent(requestID string, res calc.Result, at time.Time) CalculationEvent {
	return CalculationEvent{
		ID:           uuid.NewString(),
		RequestID:    requestID,
		Operation:    res.Op.String(),
		A:            res.A,
		B:            res.B,
		Result:       res.Result,
		CalculatedAt: at.UTC().Format(time.RFC3339Nano),
	}
}
