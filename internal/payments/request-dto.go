package payments

// CreateIntentRequest opens a gateway charge for a booking. Amount is in minor
// units; zero means the full amount still due. With no SeatIDs the seats the
// booking currently holds are checked.
type CreateIntentRequest struct {
	BookingID    uint   `json:"booking_id" binding:"required_without=BookingToken"`
	BookingToken string `json:"booking_token" binding:"required_without=BookingID"`
	SeatIDs      []uint `json:"seat_ids" binding:"omitempty,unique,dive,gt=0"`
	Amount       int64  `json:"amount" binding:"min=0"`
	Channel      string `json:"channel" binding:"omitempty,max=50"`
	Email        string `json:"email" binding:"omitempty,email"`
}

type AdminPaymentRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Note   string `json:"note" binding:"omitempty,max=255"`
}
