package models

import "time"

// DailyBar is one end-of-day OHLCV observation.
type DailyBar struct {
	EventID string    `json:"event_id"`
	Symbol  string    `json:"symbol"`
	Date    time.Time `json:"date"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Volume  float64   `json:"volume"`
	Source  string    `json:"source"`
}

// Closes extracts closing prices in the order given.
func Closes(bars []DailyBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
