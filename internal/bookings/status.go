package bookings

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// transitions lists every legal forward move. Downgrades out of CONFIRMED
// are operator-only and checked separately.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsDowngrade reports whether s to next walks a confirmed booking back.
func (s Status) IsDowngrade(next Status) bool {
	return s == StatusConfirmed && (next == StatusPending || next == StatusDraft)
}

// IsActive checks if the booking still holds or owns seats
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}
