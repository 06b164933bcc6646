package governor

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies an intervention event.
type EventKind string

const (
	// EventAuto marks a threshold-triggered intervention.
	EventAuto EventKind = "auto"
	// EventManual marks an explicit user-requested suspend or resume.
	EventManual EventKind = "manual"
	// EventPredictive is reserved for the external pattern-analysis
	// collaborator; the core never emits it.
	EventPredictive EventKind = "predictive"
)

// Victim is one process acted upon by an intervention.
type Victim struct {
	PID      int32   `json:"pid"`
	Name     string  `json:"name"`
	MemoryMB float64 `json:"memory_mb"`
}

// InterventionEvent records one suspend or resume action. Write-once:
// appended to history and never mutated.
type InterventionEvent struct {
	ID                 string    `json:"id"`
	Kind               EventKind `json:"kind"`
	Action             string    `json:"action"` // "suspend" or "resume"
	Victims            []Victim  `json:"victims"`
	EstimatedReclaimMB float64   `json:"estimated_reclaim_mb"`
	Timestamp          time.Time `json:"timestamp"`
}

func newEvent(kind EventKind, action string, victims []Victim, reclaimMB float64) InterventionEvent {
	return InterventionEvent{
		ID:                 uuid.NewString(),
		Kind:               kind,
		Action:             action,
		Victims:            victims,
		EstimatedReclaimMB: reclaimMB,
		Timestamp:          time.Now(),
	}
}
