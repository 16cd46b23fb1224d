package logstats

import (
	"math"
	"sort"
)

// Row is one line of the report, keyed by URL.
type Row struct {
	URL       string  `json:"url"`
	Count     int     `json:"count"`
	CountPerc float64 `json:"count_perc"`
	TimeSum   float64 `json:"time_sum"`
	TimePerc  float64 `json:"time_perc"`
	TimeAvg   float64 `json:"time_avg"`
	TimeMax   float64 `json:"time_max"`
	TimeMed   float64 `json:"time_med"`
}

// Aggregate computes per-URL statistics over the parsed entries, sorted by
// total request time descending and truncated to reportSize rows.
func Aggregate(entries []Entry, reportSize int) []Row {
	if len(entries) == 0 {
		return []Row{}
	}

	times := make(map[string][]float64)
	totalRequests := 0
	totalTime := 0.0
	for _, entry := range entries {
		times[entry.URL] = append(times[entry.URL], entry.RequestTime)
		totalRequests++
		totalTime += entry.RequestTime
	}

	rows := make([]Row, 0, len(times))
	for url, samples := range times {
		sort.Float64s(samples)

		sum := 0.0
		max := samples[len(samples)-1]
		for _, t := range samples {
			sum += t
		}
		count := len(samples)

		rows = append(rows, Row{
			URL:       url,
			Count:     count,
			CountPerc: round(float64(count)/float64(totalRequests)*100, 3),
			TimeSum:   round(sum, 2),
			TimePerc:  round(sum/totalTime*100, 3),
			TimeAvg:   round(sum/float64(count), 3),
			TimeMax:   round(max, 3),
			TimeMed:   round(median(samples), 3),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].TimeSum > rows[j].TimeSum })
	if reportSize > 0 && len(rows) > reportSize {
		rows = rows[:reportSize]
	}
	return rows
}

// median assumes samples are sorted.
func median(samples []float64) float64 {
	n := len(samples)
	if n%2 == 1 {
		return samples[n/2]
	}
	return (samples[n/2-1] + samples[n/2]) / 2
}

func round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
