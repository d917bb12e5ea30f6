package domain

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit fields shared by stored entities.
type BaseEntity struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

// HasID reports whether an identifier has been assigned. Only the empty
// string counts as absent; any other value is used as given.
func (e *BaseEntity) HasID() bool {
	return e.ID != ""
}

// PrePersist assigns identity and timestamps ahead of a save.
// previous is the UpdatedAt of the record being replaced, zero for a new one;
// the new UpdatedAt is always strictly after it.
func (e *BaseEntity) PrePersist(now, previous time.Time) {
	if !e.HasID() {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if !now.After(previous) {
		now = previous.Add(time.Microsecond)
	}
	e.UpdatedAt = now
}
