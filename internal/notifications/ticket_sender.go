package notifications

import (
	"context"

	"busline/pkg/logger"
)

// TicketSender delivers the ticket for a confirmed booking. Rendering and
// email delivery live outside this service.
type TicketSender interface {
	SendTicket(ctx context.Context, event *BookingEvent) error
}

// LogTicketSender records the dispatch instead of sending anything.
type LogTicketSender struct {
	log *logger.Logger
}

func NewLogTicketSender() *LogTicketSender {
	return &LogTicketSender{log: logger.GetDefault().WithComponent("tickets")}
}

func (s *LogTicketSender) SendTicket(ctx context.Context, event *BookingEvent) error {
	s.log.InfoContext(ctx, "ticket dispatch requested",
		"booking_token", event.BookingToken,
		"email", event.Email,
		"seats", event.SeatNumbers,
		"amount_due", event.AmountDue)
	return nil
}
