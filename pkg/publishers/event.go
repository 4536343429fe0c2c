package publishers

import (
	"time"

	"github.com/Paraschamoli/Bindu/internal/domain"
)

// Event status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Event reports a change in a target's health.
type Event struct {
	TargetID    string             `json:"target_id"`
	TargetName  string             `json:"target_name"`
	Status      string             `json:"status"`
	FirstSeen   bool               `json:"first_seen"`
	Result      domain.CheckResult `json:"result"`
	PublishedAt time.Time          `json:"published_at"`
}

// NewEvent constructs an Event for result. firstSeen marks a target with no previous state.
func NewEvent(result domain.CheckResult, firstSeen bool) Event {
	status := StatusUnhealthy
	if result.Healthy {
		status = StatusHealthy
	}
	return Event{
		TargetID:    result.TargetID,
		TargetName:  result.TargetName,
		Status:      status,
		FirstSeen:   firstSeen,
		Result:      result,
		PublishedAt: time.Now().UTC(),
	}
}
