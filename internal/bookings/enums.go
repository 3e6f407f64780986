package bookings

// Action names a BookingLog entry.
type Action string

const (
	ActionCreated          Action = "BOOKING_CREATED"
	ActionConfirmed        Action = "BOOKING_CONFIRMED"
	ActionConfirmedByAdmin Action = "BOOKING_CONFIRMED_BY_ADMIN"
	ActionCancelledByAdmin Action = "BOOKING_CANCELLED_BY_ADMIN"
	ActionStatusDowngraded Action = "BOOKING_STATUS_DOWNGRADED"
	ActionStatusUpdated    Action = "BOOKING_STATUS_UPDATED"
)

const (
	ActorSystem   = "system"
	ActorGateway  = "payment-gateway"
	ActorOperator = "operator"
)
