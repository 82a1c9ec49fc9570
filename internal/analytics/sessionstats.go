package analytics

import "time"

// SessionStats is the average duration of currently-live sessions.
type SessionStats struct {
	AverageSeconds *float64
	SampleSize     int
}

// SubscriptionStats is the average paid-subscription length for a period.
type SubscriptionStats struct {
	AverageDays *float64
	SampleSize  int
}

// LiveSessionStats averages the elapsed time between session start and last
// heartbeat over sessions where both timestamps are present and the
// heartbeat is strictly after the start. Degenerate pairs are excluded from
// the sample without failing anything.
func LiveSessionStats(sessions []SessionRecord) SessionStats {
	var total time.Duration
	var count int
	for _, session := range sessions {
		if session.SessionStartedAt == nil || session.LastHeartbeat == nil {
			continue
		}
		d := session.LastHeartbeat.Sub(*session.SessionStartedAt)
		if d <= 0 {
			continue
		}
		total += d
		count++
	}
	if count == 0 {
		return SessionStats{}
	}
	avg := Round2(total.Seconds() / float64(count))
	return SessionStats{AverageSeconds: &avg, SampleSize: count}
}

// SubscriptionDurationStats averages expiration minus purchase date, in days,
// over non-trial purchases carrying a valid pair (expiration strictly after
// purchase). Returns a nil average when no purchase qualifies.
func SubscriptionDurationStats(purchases []PurchaseRecord) SubscriptionStats {
	var totalDays float64
	var count int
	for _, purchase := range purchases {
		if purchase.IsTrial || purchase.PurchaseDate == nil || purchase.ExpirationDate == nil {
			continue
		}
		d := purchase.ExpirationDate.Sub(*purchase.PurchaseDate)
		if d <= 0 {
			continue
		}
		totalDays += d.Hours() / 24
		count++
	}
	if count == 0 {
		return SubscriptionStats{}
	}
	avg := Round2(totalDays / float64(count))
	return SubscriptionStats{AverageDays: &avg, SampleSize: count}
}
