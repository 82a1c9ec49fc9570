package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veldra/appsight/internal/apps"
)

// ActiveSessionWindowSeconds is the heartbeat recency window that defines a
// "currently active" session on the report headline.
const ActiveSessionWindowSeconds = 30

// ReportCurrency is the currency all purchase prices are recorded in.
const ReportCurrency = "USD"

// Sentinel errors distinguishing which phase of report assembly failed.
var (
	// ErrUpstreamFetch wraps failures of the first, independent round of
	// store reads.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrDependentLookup wraps failures of the second round, which depends on
	// results of the first.
	ErrDependentLookup = errors.New("dependent lookup failed")
)

// Query carries the raw, unvalidated request parameters for a report.
// Unknown values silently fall back to defaults rather than erroring.
type Query struct {
	Range        string
	ActiveWindow string
}

// Service assembles analytics reports from a Store.
type Service struct {
	store   Store
	apps    apps.Repository
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a Service. metrics may be nil; now defaults to time.Now.
func NewService(store Store, appRepo apps.Repository, metrics *Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		apps:    appRepo,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Report builds the full analytics report for one app. It returns
// apps.ErrAppNotFound when the app id is unknown, ErrUpstreamFetch when any
// independent store read fails and ErrDependentLookup when the trial
// conversion lookup fails.
func (s *Service) Report(ctx context.Context, appID string, q Query) (*Report, error) {
	started := s.now()
	rangeDays := RangeDays(q.Range)
	rangeLabel := fmt.Sprintf("%d", rangeDays)

	report, err := s.buildReport(ctx, appID, q, rangeDays)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, apps.ErrAppNotFound) {
			outcome = "not_found"
		}
	}
	s.metrics.ObserveReport(rangeLabel, outcome, s.now().Sub(started))
	return report, err
}

func (s *Service) buildReport(ctx context.Context, appID string, q Query, rangeDays int) (*Report, error) {
	app, err := s.apps.GetByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}

	windowDays := ActiveWindowDays(q.ActiveWindow)
	now := s.now().UTC()
	current, previous := ResolveRange(rangeDays, now)
	currentRange := current.TimeRange()
	previousRange := previous.TimeRange()

	// The active-user sliding window needs devices seen up to windowDays-1
	// days before the first bucket.
	snapshotRange := TimeRange{
		Start: (current.Start - Day(windowDays-1)).Start(),
		End:   currentRange.End,
	}
	activeSince := now.Add(-ActiveSessionWindowSeconds * time.Second)

	var (
		curPurchases, prevPurchases []PurchaseRecord
		curDevices, prevDevices     []DeviceRecord
		liveSessions                []SessionRecord
		snapshots                   []DeviceSnapshot
		sessionCountries            []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		curPurchases, err = s.store.PurchasesCreatedBetween(gctx, appID, currentRange)
		return err
	})
	g.Go(func() (err error) {
		prevPurchases, err = s.store.PurchasesCreatedBetween(gctx, appID, previousRange)
		return err
	})
	g.Go(func() (err error) {
		curDevices, err = s.store.DevicesCreatedBetween(gctx, appID, currentRange)
		return err
	})
	g.Go(func() (err error) {
		prevDevices, err = s.store.DevicesCreatedBetween(gctx, appID, previousRange)
		return err
	})
	g.Go(func() (err error) {
		liveSessions, err = s.store.SessionsActiveSince(gctx, appID, activeSince)
		return err
	})
	g.Go(func() (err error) {
		snapshots, err = s.store.DeviceSnapshotsLastSeenBetween(gctx, appID, snapshotRange)
		return err
	})
	g.Go(func() (err error) {
		sessionCountries, err = s.store.SessionCountriesStartedBetween(gctx, appID, currentRange)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.RecordFetchFailure("upstream")
		s.logger.Error("analytics upstream fetch failed", "app_id", appID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}

	curTrialIDs := TrialDevices(curPurchases)
	prevTrialIDs := TrialDevices(prevPurchases)

	var curConverted, prevConverted []string
	g2, g2ctx := errgroup.WithContext(ctx)
	if len(curTrialIDs) > 0 {
		g2.Go(func() (err error) {
			curConverted, err = s.store.ConvertedTrialDevices(g2ctx, appID, curTrialIDs)
			return err
		})
	}
	if len(prevTrialIDs) > 0 {
		g2.Go(func() (err error) {
			prevConverted, err = s.store.ConvertedTrialDevices(g2ctx, appID, prevTrialIDs)
			return err
		})
	}
	if err := g2.Wait(); err != nil {
		s.metrics.RecordFetchFailure("dependent")
		s.logger.Error("analytics trial conversion lookup failed", "app_id", appID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrDependentLookup, err)
	}

	cur := AggregatePeriod(curPurchases, curDevices, current, true)
	prev := AggregatePeriod(prevPurchases, prevDevices, previous, false)
	curTrial := ResolveTrialConversion(curTrialIDs, curConverted)
	prevTrial := ResolveTrialConversion(prevTrialIDs, prevConverted)
	curSub := SubscriptionDurationStats(curPurchases)
	prevSub := SubscriptionDurationStats(prevPurchases)
	live := LiveSessionStats(liveSessions)

	buckets := current.Buckets()
	chart := make([]ChartPoint, len(buckets))
	for i, bucket := range buckets {
		chart[i] = ChartPoint{
			Date:         bucket.Key(),
			Revenue:      Round2(cur.RevenueByDay[i]),
			TrialRevenue: Round2(cur.TrialRevenueByDay[i]),
			NewUsers:     cur.UsersByDay[i],
		}
	}

	conversionRate := ConversionRate(cur.PaidCount, cur.NewUsers)
	prevConversionRate := ConversionRate(prev.PaidCount, prev.NewUsers)
	revenuePerUser := RevenuePerUser(cur.TotalRevenue, cur.NewUsers)
	prevRevenuePerUser := RevenuePerUser(prev.TotalRevenue, prev.NewUsers)

	var subscriptionDelta *float64
	if curSub.AverageDays != nil && prevSub.AverageDays != nil {
		subscriptionDelta = PercentDelta(*curSub.AverageDays, *prevSub.AverageDays)
	}

	return &Report{
		App: AppInfo{ID: app.ID, AppID: app.AppID, Name: app.Name},
		Range: RangeInfo{
			Days:  rangeDays,
			Start: currentRange.Start,
			End:   current.End.Start(),
		},
		Metrics: ReportMetrics{
			ActiveSessions: ActiveSessionsMetric{
				Total:         len(liveSessions),
				WindowSeconds: ActiveSessionWindowSeconds,
				AsOf:          now,
			},
			AverageSubscription: AverageSubscriptionMetric{
				Days:               curSub.AverageDays,
				PreviousDays:       prevSub.AverageDays,
				SampleSize:         curSub.SampleSize,
				PreviousSampleSize: prevSub.SampleSize,
				Delta:              subscriptionDelta,
			},
			TrialCancellation: TrialCancellationMetric{
				Rate:                    curTrial.Rate,
				PreviousRate:            prevTrial.Rate,
				TotalTrials:             curTrial.TotalTrials,
				CancelledTrials:         curTrial.CancelledTrials,
				PreviousTotalTrials:     prevTrial.TotalTrials,
				PreviousCancelledTrials: prevTrial.CancelledTrials,
				Delta:                   PercentDelta(curTrial.Rate, prevTrial.Rate),
			},
			Revenue: RevenueMetric{
				Total:              cur.TotalRevenue,
				Trial:              cur.TrialRevenue,
				Currency:           ReportCurrency,
				Count:              cur.PaidCount,
				TrialCount:         cur.TrialCount,
				Previous:           prev.TotalRevenue,
				PreviousTrial:      prev.TrialRevenue,
				PreviousCount:      prev.PaidCount,
				PreviousTrialCount: prev.TrialCount,
				Delta:              PercentDelta(cur.TotalRevenue, prev.TotalRevenue),
			},
			NewUsers: CountMetric{
				Total:    cur.NewUsers,
				Previous: prev.NewUsers,
				Delta:    PercentDelta(float64(cur.NewUsers), float64(prev.NewUsers)),
			},
			Session: SessionMetric{
				AverageDurationSeconds: live.AverageSeconds,
				SampleSize:             live.SampleSize,
			},
			RevenuePerUser:         revenuePerUser,
			RevenuePerUserPrevious: prevRevenuePerUser,
			RevenuePerUserDelta:    PercentDelta(revenuePerUser, prevRevenuePerUser),
			ConversionRate:         conversionRate,
			ConversionRatePrevious: prevConversionRate,
			ConversionRateDelta:    PercentDelta(conversionRate, prevConversionRate),
		},
		Chart: chart,
		ActiveUsers: ActiveUsersSection{
			WindowDays: windowDays,
			Series:     ActiveWindowSeries(snapshots, buckets, windowDays),
		},
		PurchasesByProduct: RankProducts(curPurchases),
		Geography:          GeoDistribution(sessionCountries),
		Options: OptionSets{
			AllowedRanges: AllowedRanges,
			ActiveWindows: AllowedActiveWindows,
		},
	}, nil
}
