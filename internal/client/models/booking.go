package models

// Booking is a reservation as listed by either app. Owners additionally get
// the lot name and, for completed bookings, duration and cost.
type Booking struct {
	ID             int64     `json:"id"`
	LicensePlate   string    `json:"license_plate"`
	ParkingLotID   int64     `json:"parking_lot_id"`
	ParkingLotName string    `json:"parking_lot_name,omitempty"`
	ParkingSlotID  int64     `json:"parking_slot_id"`
	SlotNumber     string    `json:"slot_number,omitempty"`
	Status         string    `json:"status"`
	BookedAt       Timestamp `json:"booked_at"`
	ExpiresAt      Timestamp `json:"expires_at"`
	ParkingCost    *float64  `json:"parking_cost,omitempty"`
}

// ParkingSession is a driver's stay in a slot.
type ParkingSession struct {
	ID                   int64     `json:"id"`
	BookingID            *int64    `json:"booking_id,omitempty"`
	LicensePlate         string    `json:"license_plate"`
	ParkingLotID         int64     `json:"parking_lot_id"`
	ParkingSlotID        int64     `json:"parking_slot_id"`
	Status               string    `json:"status"`
	StartTime            Timestamp `json:"start_time"`
	EndTime              Timestamp `json:"end_time"`
	TotalDurationMinutes *float64  `json:"total_duration_minutes,omitempty"`
	ParkingCost          *float64  `json:"parking_cost,omitempty"`
}

// Health is the body of the unauthenticated /health endpoint.
type Health struct {
	Status string `json:"status"`
}
