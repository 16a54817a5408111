package dto

import "time"

// DrawdownEpisode is one peak-to-trough-to-recovery excursion of the equity
// curve. Depth is a negative fraction of the peak; RecoveryTime stays nil
// while the curve has not regained the peak value.
type DrawdownEpisode struct {
	PeakValue    float64    `json:"peak_value"`
	PeakTime     time.Time  `json:"peak_time"`
	TroughValue  float64    `json:"trough_value"`
	TroughTime   time.Time  `json:"trough_time"`
	RecoveryTime *time.Time `json:"recovery_time"`
	Depth        float64    `json:"depth"`
	DurationDays float64    `json:"duration_days"`
	RecoveryDays *float64   `json:"recovery_days"`
}

// Recovered reports whether the curve regained the episode's peak.
func (e DrawdownEpisode) Recovered() bool {
	return e.RecoveryTime != nil
}
