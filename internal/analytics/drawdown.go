package analytics

import (
	"golang-backtest-analytics/internal/dto"
	"golang-backtest-analytics/pkg/utils"
)

// DrawdownAnalysis is the full reconstruction over one equity curve: the
// per-point drawdown series, the deepest excursion, and every episode in
// chronological order. LongestDurationDays measures the longest underwater
// stretch, peak to recovery, or to the end of the curve when unrecovered.
type DrawdownAnalysis struct {
	Series              []float64
	Max                 dto.DrawdownEpisode
	Episodes            []dto.DrawdownEpisode
	AverageDepth        float64
	LongestDurationDays float64
}

// AnalyzeDrawdown validates the curve and reconstructs its drawdown
// structure. The deepest episode follows the running-peak definition:
// drawdown_t = (V_t - peak_t)/peak_t, the trough is the minimum drawdown,
// the start is the last point at the peak value before the trough, and
// recovery is the first later point at or above the start value (nil if the
// curve never recovers). Durations are calendar days.
func AnalyzeDrawdown(curve dto.EquityCurve) (*DrawdownAnalysis, error) {
	if err := curve.Validate(); err != nil {
		return nil, err
	}

	n := len(curve)
	series := make([]float64, n)
	peakValue := curve[0].Value
	troughIdx := 0
	troughPeakValue := peakValue
	maxDD := 0.0
	for i := 0; i < n; i++ {
		if curve[i].Value > peakValue {
			peakValue = curve[i].Value
		}
		series[i] = (curve[i].Value - peakValue) / peakValue
		if series[i] < maxDD {
			maxDD = series[i]
			troughIdx = i
			troughPeakValue = peakValue
		}
	}

	analysis := &DrawdownAnalysis{
		Series:   series,
		Max:      maxEpisode(curve, troughIdx, troughPeakValue),
		Episodes: collectEpisodes(curve, series),
	}

	lastTime := curve[n-1].Timestamp
	for _, ep := range analysis.Episodes {
		analysis.AverageDepth += ep.Depth
		underwater := utils.DaysBetween(ep.PeakTime, lastTime)
		if ep.RecoveryTime != nil {
			underwater = utils.DaysBetween(ep.PeakTime, *ep.RecoveryTime)
		}
		if underwater > analysis.LongestDurationDays {
			analysis.LongestDurationDays = underwater
		}
	}
	if len(analysis.Episodes) > 0 {
		analysis.AverageDepth /= float64(len(analysis.Episodes))
	}
	return analysis, nil
}

// maxEpisode rebuilds the deepest episode around the trough index. With a
// flat or rising curve the trough sits at index 0 and the episode is
// degenerate: zero depth, immediate recovery.
func maxEpisode(curve dto.EquityCurve, troughIdx int, peakValue float64) dto.DrawdownEpisode {
	startIdx := troughIdx
	for i := troughIdx; i >= 0; i-- {
		if curve[i].Value == peakValue {
			startIdx = i
			break
		}
	}

	episode := dto.DrawdownEpisode{
		PeakValue:    curve[startIdx].Value,
		PeakTime:     curve[startIdx].Timestamp,
		TroughValue:  curve[troughIdx].Value,
		TroughTime:   curve[troughIdx].Timestamp,
		Depth:        (curve[troughIdx].Value - curve[startIdx].Value) / curve[startIdx].Value,
		DurationDays: utils.DaysBetween(curve[startIdx].Timestamp, curve[troughIdx].Timestamp),
	}
	for i := troughIdx; i < len(curve); i++ {
		if curve[i].Value >= curve[startIdx].Value {
			episode.RecoveryTime = utils.ToPointer(curve[i].Timestamp)
			episode.RecoveryDays = utils.ToPointer(utils.DaysBetween(curve[troughIdx].Timestamp, curve[i].Timestamp))
			break
		}
	}
	return episode
}

// collectEpisodes walks the drawdown series and emits one episode per
// excursion below the running peak. The episode peak is the point right
// before the first decline, which is also the last point at the peak value.
func collectEpisodes(curve dto.EquityCurve, series []float64) []dto.DrawdownEpisode {
	var episodes []dto.DrawdownEpisode
	n := len(curve)
	idx := 0
	for idx < n {
		if series[idx] >= 0 {
			idx++
			continue
		}

		peakIdx := idx - 1
		troughIdx := idx
		recoveryIdx := -1
		for j := idx; j < n; j++ {
			if series[j] >= 0 {
				recoveryIdx = j
				break
			}
			if curve[j].Value < curve[troughIdx].Value {
				troughIdx = j
			}
		}

		episode := dto.DrawdownEpisode{
			PeakValue:    curve[peakIdx].Value,
			PeakTime:     curve[peakIdx].Timestamp,
			TroughValue:  curve[troughIdx].Value,
			TroughTime:   curve[troughIdx].Timestamp,
			Depth:        (curve[troughIdx].Value - curve[peakIdx].Value) / curve[peakIdx].Value,
			DurationDays: utils.DaysBetween(curve[peakIdx].Timestamp, curve[troughIdx].Timestamp),
		}
		if recoveryIdx >= 0 {
			episode.RecoveryTime = utils.ToPointer(curve[recoveryIdx].Timestamp)
			episode.RecoveryDays = utils.ToPointer(utils.DaysBetween(curve[troughIdx].Timestamp, curve[recoveryIdx].Timestamp))
			idx = recoveryIdx
		} else {
			idx = n
		}
		episodes = append(episodes, episode)
	}
	return episodes
}
