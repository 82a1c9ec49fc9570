package analytics

import "time"

// Report is the full analytics response document for one app and range. It
// is assembled once per request from immutable snapshots and never cached or
// persisted.
type Report struct {
	App                AppInfo            `json:"app"`
	Range              RangeInfo          `json:"range"`
	Metrics            ReportMetrics      `json:"metrics"`
	Chart              []ChartPoint       `json:"chart"`
	ActiveUsers        ActiveUsersSection `json:"activeUsers"`
	PurchasesByProduct []ProductCount     `json:"purchasesByProduct"`
	Geography          GeoBreakdown       `json:"geography"`
	Options            OptionSets         `json:"options"`
}

// AppInfo echoes the target app's identity.
type AppInfo struct {
	ID    string `json:"id"`
	AppID string `json:"app_id"`
	Name  string `json:"name"`
}

// RangeInfo describes the resolved current period. Start and End are the
// midnights opening the first and last included days; both denote full days,
// so End is not the exclusive query bound.
type RangeInfo struct {
	Days  int       `json:"days"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReportMetrics groups every headline metric with its previous-period value
// and percent delta. Delta fields are nil when the baseline is zero or
// missing.
type ReportMetrics struct {
	ActiveSessions      ActiveSessionsMetric      `json:"activeSessions"`
	AverageSubscription AverageSubscriptionMetric `json:"averageSubscription"`
	TrialCancellation   TrialCancellationMetric   `json:"trialCancellation"`
	Revenue             RevenueMetric             `json:"revenue"`
	NewUsers            CountMetric               `json:"newUsers"`
	Session             SessionMetric             `json:"session"`

	RevenuePerUser         float64  `json:"revenuePerUser"`
	RevenuePerUserPrevious float64  `json:"revenuePerUserPrevious"`
	RevenuePerUserDelta    *float64 `json:"revenuePerUserDelta"`
	ConversionRate         float64  `json:"conversionRate"`
	ConversionRatePrevious float64  `json:"conversionRatePrevious"`
	ConversionRateDelta    *float64 `json:"conversionRateDelta"`
}

// ActiveSessionsMetric is the point-in-time count of sessions with a recent
// heartbeat. It has no previous-period equivalent, so its delta is always
// nil.
type ActiveSessionsMetric struct {
	Total         int       `json:"total"`
	WindowSeconds int       `json:"windowSeconds"`
	AsOf          time.Time `json:"asOf"`
	Delta         *float64  `json:"delta"`
}

// AverageSubscriptionMetric carries subscription-length averages with their
// sample sizes; averages are nil when no purchase in the period qualifies.
type AverageSubscriptionMetric struct {
	Days               *float64 `json:"days"`
	PreviousDays       *float64 `json:"previousDays"`
	SampleSize         int      `json:"sampleSize"`
	PreviousSampleSize int      `json:"previousSampleSize"`
	Delta              *float64 `json:"delta"`
}

// TrialCancellationMetric reports the share of trial devices that never
// converted, for the current and previous cohorts.
type TrialCancellationMetric struct {
	Rate                    float64  `json:"rate"`
	PreviousRate            float64  `json:"previousRate"`
	TotalTrials             int      `json:"totalTrials"`
	CancelledTrials         int      `json:"cancelledTrials"`
	PreviousTotalTrials     int      `json:"previousTotalTrials"`
	PreviousCancelledTrials int      `json:"previousCancelledTrials"`
	Delta                   *float64 `json:"delta"`
}

// RevenueMetric carries paid and trial revenue totals and counts.
type RevenueMetric struct {
	Total              float64  `json:"total"`
	Trial              float64  `json:"trial"`
	Currency           string   `json:"currency"`
	Count              int      `json:"count"`
	TrialCount         int      `json:"trialCount"`
	Previous           float64  `json:"previous"`
	PreviousTrial      float64  `json:"previousTrial"`
	PreviousCount      int      `json:"previousCount"`
	PreviousTrialCount int      `json:"previousTrialCount"`
	Delta              *float64 `json:"delta"`
}

// CountMetric is a plain total with its previous value and delta.
type CountMetric struct {
	Total    int      `json:"total"`
	Previous int      `json:"previous"`
	Delta    *float64 `json:"delta"`
}

// SessionMetric is the average live-session duration.
type SessionMetric struct {
	AverageDurationSeconds *float64 `json:"averageDurationSeconds"`
	SampleSize             int      `json:"sampleSize"`
}

// ChartPoint is one day of the current-period display series.
type ChartPoint struct {
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	TrialRevenue float64 `json:"trialRevenue"`
	NewUsers     int     `json:"newUsers"`
}

// ActiveUsersSection is the windowed active-users series plus the window it
// was computed with.
type ActiveUsersSection struct {
	WindowDays int           `json:"windowDays"`
	Series     []ActivePoint `json:"series"`
}

// OptionSets echoes the whitelisted parameter values so clients can render
// their pickers without hardcoding them.
type OptionSets struct {
	AllowedRanges []int `json:"allowedRanges"`
	ActiveWindows []int `json:"activeWindows"`
}
