package trip

import "time"

// Bus はバス車両を表す。Capacity は同一便で確定できる座席数の上限
type Bus struct {
	ID       string
	Name     string
	Capacity int
}

// Trip は便（ある都市からある都市への運行）を表す
type Trip struct {
	ID                string
	BusID             string
	OriginCityID      string
	DestinationCityID string
	DepartureTime     time.Time
	// Price は1座席あたりの料金（最小通貨単位）
	Price     int
	IsActive  bool
	Bus       Bus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Capacity は便の定員を返す
func (t *Trip) Capacity() int {
	return t.Bus.Capacity
}

// HasDeparted は now 時点で出発済みかを返す（出発時刻ちょうども出発済みとみなす）
func (t *Trip) HasDeparted(now time.Time) bool {
	return !t.DepartureTime.After(now)
}

// IsBookable は一般ユーザーが予約可能かを返す
func (t *Trip) IsBookable(now time.Time) bool {
	return t.IsActive && !t.HasDeparted(now)
}

// PriceFor は座席数に対する合計金額を返す
func (t *Trip) PriceFor(seats int) int {
	return t.Price * seats
}
