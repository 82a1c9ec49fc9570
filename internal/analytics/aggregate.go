package analytics

import (
	"math"
	"strconv"
)

// Snapshot holds the per-period totals produced by AggregatePeriod. When a
// period is aggregated with series enabled, the ByDay slices are indexed by
// the day's offset within the period; without series they are nil. Snapshots
// are request-scoped values and are never mutated after construction.
type Snapshot struct {
	TotalRevenue float64
	TrialRevenue float64
	PaidCount    int
	TrialCount   int
	TotalCount   int
	NewUsers     int

	RevenueByDay      []float64
	TrialRevenueByDay []float64
	UsersByDay        []int
}

// parsePrice parses a raw decimal string, reporting ok=false for anything
// that does not yield a finite number.
func parsePrice(raw string) (float64, bool) {
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// AggregatePeriod reduces purchase and device rows into a Snapshot in a
// single streaming pass.
//
// Prices are parsed defensively: a non-finite or unparseable price drops that
// record's revenue contribution but still counts the purchase. Each purchase
// routes to trial or paid totals by its flag, so trial and paid revenue stay
// mutually exclusive per record. When series are enabled, the record's UTC
// day is re-derived from its timestamp and only accumulated if that day lies
// inside the period; rows outside the expected window are dropped here
// regardless of upstream query filtering.
func AggregatePeriod(purchases []PurchaseRecord, devices []DeviceRecord, p Period, withSeries bool) Snapshot {
	snap := Snapshot{TotalCount: len(purchases)}
	if withSeries {
		n := p.Days()
		snap.RevenueByDay = make([]float64, n)
		snap.TrialRevenueByDay = make([]float64, n)
		snap.UsersByDay = make([]int, n)
	}

	for _, purchase := range purchases {
		price, ok := parsePrice(purchase.Price)

		if purchase.IsTrial {
			snap.TrialCount++
			if ok {
				snap.TrialRevenue += price
			}
		} else {
			snap.PaidCount++
			if ok {
				snap.TotalRevenue += price
			}
		}

		if !withSeries || !ok {
			continue
		}
		if off, in := p.Offset(DayOf(purchase.CreatedAt)); in {
			if purchase.IsTrial {
				snap.TrialRevenueByDay[off] += price
			} else {
				snap.RevenueByDay[off] += price
			}
		}
	}

	seen := make(map[string]struct{}, len(devices))
	for _, device := range devices {
		if _, dup := seen[device.DeviceID]; !dup {
			seen[device.DeviceID] = struct{}{}
			snap.NewUsers++
		}
		if !withSeries {
			continue
		}
		if off, in := p.Offset(DayOf(device.CreatedAt)); in {
			snap.UsersByDay[off]++
		}
	}

	snap.TotalRevenue = Round2(snap.TotalRevenue)
	snap.TrialRevenue = Round2(snap.TrialRevenue)
	return snap
}
