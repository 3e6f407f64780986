package seats

type ReleaseSeatsRequest struct {
	SeatIDs []uint `json:"seat_ids" binding:"required,min=1,dive,gt=0"`
}
