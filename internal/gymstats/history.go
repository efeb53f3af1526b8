package gymstats

import "sort"

// DaySummary is the per day digest of an exercise history:
// average and max weight per set, average reps, and volume (sum of weight*reps).
type DaySummary struct {
	Date      string  `json:"date"`
	Sets      int     `json:"sets"`
	AvgWeight float64 `json:"avg_weight"`
	MaxWeight float64 `json:"max_weight"`
	AvgReps   float64 `json:"avg_reps"`
	Volume    float64 `json:"volume"`
}

// SummarizeHistory groups sets by day, newest day first.
// Weights are the ones stored with the sets, no bar normalization is applied.
func SummarizeHistory(sets []Set) []DaySummary {
	day2sets := make(map[string][]Set)
	for _, s := range sets {
		day2sets[s.Date] = append(day2sets[s.Date], s)
	}

	summaries := make([]DaySummary, 0, len(day2sets))
	for day, daySets := range day2sets {
		summary := DaySummary{
			Date: day,
			Sets: len(daySets),
		}
		var totalWeight float64
		var totalReps int
		for _, s := range daySets {
			totalWeight += s.Weight
			totalReps += s.Reps
			summary.Volume += s.Weight * float64(s.Reps)
			if s.Weight > summary.MaxWeight {
				summary.MaxWeight = s.Weight
			}
		}
		summary.AvgWeight = totalWeight / float64(len(daySets))
		summary.AvgReps = float64(totalReps) / float64(len(daySets))
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date > summaries[j].Date
	})
	return summaries
}
