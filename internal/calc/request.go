package calc

import (
	"bytes"
	"encoding/json"
)

// Request is a validated calculation request. Values are only produced by
// ParseRequest, so Op is always a known operation.
type Request struct {
	Op Operation
	A  float64
	B  float64
}

// Result echoes the request together with the computed value.
type Result struct {
	Op     Operation
	A      float64
	B      float64
	Result float64
}

var jsonNull = []byte("null")

// ParseRequest validates a JSON body of the form
// {"operation": string, "a": number, "b": number}.
//
// A body that is empty, malformed or not an object carries no fields and
// therefore fails with ErrMissingParameters, as does an operation that is
// "", false or 0. Presence is checked before types: an a or b that is not a
// float64 (including out-of-range literals such as 1e400) fails with
// ErrInvalidParameters, and an operation that is not a known name fails with
// ErrUnknownOperation.
func ParseRequest(body []byte) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = nil
	}

	rawOp, okOp := field(fields, "operation")
	rawA, okA := field(fields, "a")
	rawB, okB := field(fields, "b")
	if !okOp || !okA || !okB || falsy(rawOp) {
		return Request{}, ErrMissingParameters
	}

	var req Request
	if err := json.Unmarshal(rawA, &req.A); err != nil {
		return Request{}, ErrInvalidParameters
	}
	if err := json.Unmarshal(rawB, &req.B); err != nil {
		return Request{}, ErrInvalidParameters
	}

	var name string
	if err := json.Unmarshal(rawOp, &name); err != nil {
		return Request{}, ErrUnknownOperation
	}
	op, err := ParseOperation(name)
	if err != nil {
		return Request{}, err
	}
	req.Op = op
	return req, nil
}

// field returns the raw value of key, treating JSON null as absent.
func field(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return nil, false
	}
	return raw, true
}

// falsy reports whether raw is "", false or a numeric zero.
func falsy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	}
	return false
}

// Evaluate runs a validated request.
func Evaluate(req Request) (Result, error) {
	v, err := req.Op.Apply(req.A, req.B)
	if err != nil {
		return Result{}, err
	}
	return Result{Op: req.Op, A: req.A, B: req.B, Result: v}, nil
}

// Calculate validates body and evaluates it in one step.
func Calculate(body []byte) (Result, error) {
	req, err := ParseRequest(body)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(req)
}
