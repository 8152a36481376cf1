package inventory

import "time"

// LifecycleStatus is the persisted tag of a Lifecycle
type LifecycleStatus string

const (
	LifecycleActive      LifecycleStatus = "active"
	LifecycleDeactivated LifecycleStatus = "deactivated"
)

// IsValid checks if the status is a known tag
func (s LifecycleStatus) IsValid() bool {
	return s == LifecycleActive || s == LifecycleDeactivated
}

// Lifecycle is the Active | Deactivated variant shared by catalog entities.
// Deactivated entities keep their history but are excluded from listings.
type Lifecycle interface {
	Status() LifecycleStatus
	IsActive() bool
}

// Active marks an entity in use
type Active struct{}

// Status returns the active tag
func (Active) Status() LifecycleStatus { return LifecycleActive }

// IsActive returns true
func (Active) IsActive() bool { return true }

// Deactivated marks an entity retired instead of deleted
type Deactivated struct {
	At     time.Time
	Reason string
}

// Status returns the deactivated tag
func (Deactivated) Status() LifecycleStatus { return LifecycleDeactivated }

// IsActive returns false
func (Deactivated) IsActive() bool { return false }

// LifecycleFromStatus rebuilds a Lifecycle from its persisted parts
func LifecycleFromStatus(status LifecycleStatus, at *time.Time, reason string) Lifecycle {
	if status != LifecycleDeactivated {
		return Active{}
	}
	d := Deactivated{Reason: reason}
	if at != nil {
		d.At = *at
	}
	return d
}
