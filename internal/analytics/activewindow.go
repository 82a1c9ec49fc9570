package analytics

import "sort"

// ActivePoint is one bucket of the active-users series.
type ActivePoint struct {
	Date        string `json:"date"`
	ActiveUsers int    `json:"activeUsers"`
}

// ActiveWindowSeries counts, for each day bucket, the distinct devices whose
// last-seen instant falls within the trailing window
// [bucketStart - (windowDays-1) days, bucket end]. windowDays is clamped to
// at least one day so the window can never be empty or negative.
//
// Both window edges advance monotonically across buckets, so instead of
// rescanning the snapshot set per bucket the snapshots are sorted by
// last-seen once and swept with two pointers; a reference-counted id set
// keeps the distinct count correct if a device ever appears in more than one
// snapshot.
func ActiveWindowSeries(snapshots []DeviceSnapshot, buckets []Day, windowDays int) []ActivePoint {
	if windowDays < 1 {
		windowDays = 1
	}

	sorted := make([]DeviceSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastSeen.Before(sorted[j].LastSeen)
	})

	series := make([]ActivePoint, 0, len(buckets))
	inWindow := make(map[string]int)
	distinct := 0
	lo, hi := 0, 0

	for _, bucket := range buckets {
		windowStart := (bucket - Day(windowDays-1)).Start()
		windowEnd := (bucket + 1).Start() // exclusive

		for hi < len(sorted) && sorted[hi].LastSeen.Before(windowEnd) {
			if inWindow[sorted[hi].DeviceID] == 0 {
				distinct++
			}
			inWindow[sorted[hi].DeviceID]++
			hi++
		}
		for lo < hi && sorted[lo].LastSeen.Before(windowStart) {
			inWindow[sorted[lo].DeviceID]--
			if inWindow[sorted[lo].DeviceID] == 0 {
				distinct--
				delete(inWindow, sorted[lo].DeviceID)
			}
			lo++
		}

		series = append(series, ActivePoint{Date: bucket.Key(), ActiveUsers: distinct})
	}
	return series
}
