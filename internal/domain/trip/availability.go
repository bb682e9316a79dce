package trip

// Availability は便の空席状況（表示用）。予約受付の判定には使用しない
type Availability struct {
	TripID    string
	Capacity  int
	Reserved  int
	Available int
}

// NewAvailability は定員と確定座席数から空席状況を作成する
func NewAvailability(t *Trip, reserved int) Availability {
	available := t.Capacity() - reserved
	if available < 0 {
		available = 0
	}
	return Availability{
		TripID:    t.ID,
		Capacity:  t.Capacity(),
		Reserved:  reserved,
		Available: available,
	}
}
