package domain

import "time"

// Domain contains core models shared by the prober, store and publishers.

// CheckResult is the outcome of probing one target once.
type CheckResult struct {
	TargetID   string    `json:"target_id"`
	TargetName string    `json:"target_name,omitempty"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code,omitempty"`
	Attempts   int       `json:"attempts"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	Healthy    bool      `json:"healthy"`
	Title      string    `json:"title,omitempty"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
