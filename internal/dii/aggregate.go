package dii

// DayScore is one scored observation period, as returned by Score.
type DayScore struct {
	Label         string             `json:"label"`
	Total         float64            `json:"total"`
	Contributions map[string]float64 `json:"contributions"`
}

// Average aggregates day scores across a multi-day log: the arithmetic
// mean of the per-day totals and, independently, the arithmetic mean of
// each parameter's contribution. The percentile transform is nonlinear, so
// the averaged contributions are not the contributions of an averaged
// intake; both aggregates are plain means and no identity between them is
// guaranteed.
func Average(days []DayScore) (float64, map[string]float64) {
	avg := make(map[string]float64)
	if len(days) == 0 {
		return 0, avg
	}

	totalSum := 0.0
	counts := make(map[string]int)
	for _, d := range days {
		totalSum += d.Total
		for id, c := range d.Contributions {
			avg[id] += c
			counts[id]++
		}
	}
	for id := range avg {
		avg[id] /= float64(counts[id])
	}
	return totalSum / float64(len(days)), avg
}
