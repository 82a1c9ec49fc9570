package analytics

import "math"

// Round2 rounds to two decimal places, matching the precision every
// user-facing metric is reported at.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PercentDelta returns the percent change from previous to current, rounded
// to two decimals. It returns nil whenever the baseline is zero or
// non-finite so a missing prior period never surfaces as Infinity or NaN.
func PercentDelta(current, previous float64) *float64 {
	if previous == 0 || math.IsInf(previous, 0) || math.IsNaN(previous) {
		return nil
	}
	if math.IsInf(current, 0) || math.IsNaN(current) {
		return nil
	}
	delta := Round2((current - previous) / previous * 100)
	return &delta
}

// ConversionRate is the share of new users that made a paid purchase, as a
// percentage. Zero when there are no new users.
func ConversionRate(paidCount, newUsers int) float64 {
	if newUsers <= 0 {
		return 0
	}
	return Round2(float64(paidCount) / float64(newUsers) * 100)
}

// RevenuePerUser is total revenue divided by new users. Zero when there are
// no new users.
func RevenuePerUser(totalRevenue float64, newUsers int) float64 {
	if newUsers <= 0 {
		return 0
	}
	return Round2(totalRevenue / float64(newUsers))
}
