package storetest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"busline/internal/bookings"
	"busline/internal/locks"
	"busline/internal/payments"

	"gorm.io/gorm"
)

type bookingRepo struct{ s *Store }

func (r bookingRepo) Create(ctx context.Context, booking *bookings.Booking) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	for _, existing := range r.s.data.bookings {
		if existing.BookingToken == booking.BookingToken {
			return fmt.Errorf("duplicate booking token %s", booking.BookingToken)
		}
	}
	booking.ID = r.s.id("bookings")
	now := r.s.Now()
	booking.CreatedAt, booking.UpdatedAt = now, now
	stored := *booking
	stored.Trip, stored.Payments = nil, nil
	r.s.data.bookings[booking.ID] = stored
	return nil
}

func (r bookingRepo) FindByID(ctx context.Context, id uint) (*bookings.Booking, error) {
	defer r.s.lock(ctx)()
	booking, ok := r.s.data.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &booking, nil
}

func (r bookingRepo) FindByToken(ctx context.Context, token string) (*bookings.Booking, error) {
	defer r.s.lock(ctx)()
	booking, ok := r.s.bookingByToken(token)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &booking, nil
}

func (r bookingRepo) FindByTokenWithDetails(ctx context.Context, token string) (*bookings.Booking, error) {
	defer r.s.lock(ctx)()
	booking, ok := r.s.bookingByToken(token)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if trip, ok := r.s.data.trips[booking.TripID]; ok {
		r.s.withRelations(&trip)
		booking.Trip = &trip
	}
	for _, p := range r.s.data.payments {
		if p.BookingID == booking.ID {
			booking.Payments = append(booking.Payments, p)
		}
	}
	sort.Slice(booking.Payments, func(i, j int) bool { return booking.Payments[i].ID < booking.Payments[j].ID })
	return &booking, nil
}

func (r bookingRepo) TokenExists(ctx context.Context, token string) (bool, error) {
	defer r.s.lock(ctx)()
	_, ok := r.s.bookingByToken(token)
	return ok, nil
}

func (r bookingRepo) List(ctx context.Context, filter bookings.ListFilter) ([]bookings.Booking, int64, error) {
	defer r.s.lock(ctx)()
	var all []bookings.Booking
	for _, b := range r.s.data.bookings {
		switch {
		case filter.Status != "" && b.Status != filter.Status:
		case filter.TripID != 0 && b.TripID != filter.TripID:
		case filter.BookingToken != "" && b.BookingToken != filter.BookingToken:
		case filter.From != nil && b.CreatedAt.Before(*filter.From):
		case filter.To != nil && b.CreatedAt.After(*filter.To):
		default:
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

func (r bookingRepo) UpdateStatus(ctx context.Context, id uint, from, to bookings.Status, fields map[string]interface{}) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	b, ok := r.s.data.bookings[id]
	if !ok || b.Status != from {
		return 0, nil
	}

	b.Status = to
	for key, value := range fields {
		switch key {
		case "cancelled_at":
			at := value.(time.Time)
			b.CancelledAt = &at
		case "seat_count":
			b.SeatCount = value.(int)
		default:
			return 0, fmt.Errorf("storetest: unsupported booking field %q", key)
		}
	}
	b.UpdatedAt = r.s.Now()
	r.s.data.bookings[id] = b
	return 1, nil
}

func (r bookingRepo) UpdatePaymentTotals(ctx context.Context, id uint, totals bookings.PaymentTotals) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	b, ok := r.s.data.bookings[id]
	if !ok {
		return nil
	}
	b.AmountPaid = totals.AmountPaid
	b.AmountDue = totals.AmountDue
	b.IsPaymentComplete = totals.Complete
	b.IsSplitPayment = totals.Split
	b.UpdatedAt = r.s.Now()
	r.s.data.bookings[id] = b
	return nil
}

func (r bookingRepo) CreateLog(ctx context.Context, entry *bookings.BookingLog) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	entry.ID = r.s.id("booking_logs")
	entry.CreatedAt = r.s.Now()
	r.s.data.logs = append(r.s.data.logs, *entry)
	return nil
}

func (r bookingRepo) FindLogs(ctx context.Context, bookingID uint) ([]bookings.BookingLog, error) {
	defer r.s.lock(ctx)()
	var out []bookings.BookingLog
	for _, l := range r.s.data.logs {
		if l.BookingID == bookingID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r bookingRepo) DeleteUnpaidPending(ctx context.Context, tokens []string) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	want := map[string]bool{}
	for _, t := range tokens {
		want[t] = true
	}
	return r.s.deleteBookings(func(b bookings.Booking) bool {
		return want[b.BookingToken] && b.Status == bookings.StatusPending && !r.s.hasPaidPayment(b.ID)
	}), nil
}

func (r bookingRepo) DeleteStaleOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	return r.s.deleteBookings(func(b bookings.Booking) bool {
		if b.Status != bookings.StatusPending || !b.CreatedAt.Before(cutoff) || !b.UpdatedAt.Before(cutoff) {
			return false
		}
		if r.s.hasPaidPayment(b.ID) {
			return false
		}
		for _, seat := range r.s.data.seats {
			if (seat.BookingID != nil && *seat.BookingID == b.ID) ||
				(seat.HoldToken != nil && *seat.HoldToken == b.BookingToken) {
				return false
			}
		}
		return true
	}), nil
}

func (s *Store) bookingByToken(token string) (bookings.Booking, bool) {
	for _, b := range s.data.bookings {
		if b.BookingToken == token {
			return b, true
		}
	}
	return bookings.Booking{}, false
}

func (s *Store) hasPaidPayment(bookingID uint) bool {
	for _, p := range s.data.payments {
		if p.BookingID == bookingID && p.Status == bookings.PaymentPaid {
			return true
		}
	}
	return false
}

func (s *Store) deleteBookings(match func(bookings.Booking) bool) int64 {
	var n int64
	for id, b := range s.data.bookings {
		if !match(b) {
			continue
		}
		for pid, p := range s.data.payments {
			if p.BookingID == id {
				delete(s.data.payments, pid)
			}
		}
		kept := s.data.logs[:0]
		for _, l := range s.data.logs {
			if l.BookingID != id {
				kept = append(kept, l)
			}
		}
		s.data.logs = kept
		delete(s.data.bookings, id)
		n++
	}
	return n
}

//  PAYMENTS

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(ctx context.Context, payment *bookings.Payment) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	for _, existing := range r.s.data.payments {
		if existing.Reference == payment.Reference {
			return fmt.Errorf("duplicate payment reference %s", payment.Reference)
		}
	}
	payment.ID = r.s.id("payments")
	now := r.s.Now()
	payment.CreatedAt, payment.UpdatedAt = now, now
	r.s.data.payments[payment.ID] = *payment
	return nil
}

func (r paymentRepo) FindByReference(ctx context.Context, reference string) (*bookings.Payment, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.data.payments {
		if p.Reference == reference {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r paymentRepo) FindPending(ctx context.Context, bookingID uint, amount int64) (*bookings.Payment, error) {
	defer r.s.lock(ctx)()
	var found *bookings.Payment
	for _, p := range r.s.data.payments {
		if p.BookingID == bookingID && p.Amount == amount && p.Status == bookings.PaymentPending {
			if found == nil || p.ID > found.ID {
				found = &p
			}
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (r paymentRepo) ListByBooking(ctx context.Context, bookingID uint) ([]bookings.Payment, error) {
	defer r.s.lock(ctx)()
	var out []bookings.Payment
	for _, p := range r.s.data.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r paymentRepo) MarkPaid(ctx context.Context, reference string, st payments.Settlement) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	for id, p := range r.s.data.payments {
		if p.Reference != reference || p.Status == bookings.PaymentPaid {
			continue
		}
		p.Status = bookings.PaymentPaid
		p.PaidAt = ptr(st.PaidAt)
		if st.Amount > 0 {
			p.Amount = st.Amount
		}
		if st.Currency != "" {
			p.Currency = st.Currency
		}
		if st.Channel != "" {
			p.Channel = st.Channel
		}
		if st.Authorization != "" {
			p.Authorization = st.Authorization
		}
		if st.CustomerID != "" {
			p.CustomerID = st.CustomerID
		}
		if st.GatewayResponse != "" {
			p.GatewayResponse = st.GatewayResponse
		}
		p.UpdatedAt = r.s.Now()
		r.s.data.payments[id] = p
		return 1, nil
	}
	return 0, nil
}

func (r paymentRepo) MarkFailed(ctx context.Context, reference, gatewayResponse string) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	for id, p := range r.s.data.payments {
		if p.Reference == reference && p.Status == bookings.PaymentPending {
			p.Status = bookings.PaymentFailed
			p.GatewayResponse = gatewayResponse
			p.UpdatedAt = r.s.Now()
			r.s.data.payments[id] = p
			return 1, nil
		}
	}
	return 0, nil
}

func (r paymentRepo) SumPaid(ctx context.Context, bookingID uint) (int64, int64, error) {
	defer r.s.lock(ctx)()
	var total, count int64
	for _, p := range r.s.data.payments {
		if p.BookingID == bookingID && p.Status == bookings.PaymentPaid {
			total += p.Amount
			count++
		}
	}
	return total, count, nil
}

//  LOCKS

type lockRepo struct{ s *Store }

func (r lockRepo) Ensure(ctx context.Context, name string) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	if _, ok := r.s.data.locks[name]; !ok {
		r.s.data.locks[name] = locks.JobLock{Name: name, UpdatedAt: r.s.Now()}
	}
	return nil
}

func (r lockRepo) Acquire(ctx context.Context, name string, now, staleBefore time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	l, ok := r.s.data.locks[name]
	if !ok || (l.LockedAt != nil && !l.LockedAt.Before(staleBefore)) {
		return 0, nil
	}
	l.LockedAt = ptr(now)
	l.UpdatedAt = r.s.Now()
	r.s.data.locks[name] = l
	return 1, nil
}

func (r lockRepo) Release(ctx context.Context, name string) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return err
	}
	if l, ok := r.s.data.locks[name]; ok {
		l.LockedAt = nil
		r.s.data.locks[name] = l
	}
	return nil
}

func (r lockRepo) ReleaseHeld(ctx context.Context, name string, lockedAt time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.injected(); err != nil {
		return 0, err
	}
	l, ok := r.s.data.locks[name]
	if !ok || l.LockedAt == nil || !l.LockedAt.Equal(lockedAt) {
		return 0, nil
	}
	l.LockedAt = nil
	r.s.data.locks[name] = l
	return 1, nil
}
