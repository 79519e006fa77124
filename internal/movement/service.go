package movement

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/babymoves/internal/telemetry/metrics"
	"github.com/2beens/babymoves/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=movement_test

// eventStore is the append-only system of record for movement events.
type eventStore interface {
	Append(ctx context.Context, event Event) error
	FetchAll(ctx context.Context) ([]Event, error)
}

type HistoryParams struct {
	Columns int
	Rows    int
}

// History holds everything the history view renders, computed from a single store fetch.
type History struct {
	Days             []DayCount    `json:"days"`
	HourAverages     []HourAverage `json:"hourAverages"`
	TodayHours       []HourCount   `json:"todayHours"`
	WeekHeatSectors  []HeatSector  `json:"weekHeatSectors"`
	TodayHeatSectors []HeatSector  `json:"todayHeatSectors"`
	Total            int           `json:"total"`
	Skipped          int           `json:"skipped"`
	WeekStart        time.Time     `json:"weekStart"`
	GeneratedAt      time.Time     `json:"generatedAt"`
}

type ServiceParams struct {
	Store   eventStore
	Metrics *metrics.Manager
	// Location is the timezone "today" and the reporting week are computed in.
	Location *time.Location
	// StoreTimeout bounds a single store call, zero means no timeout.
	StoreTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store        eventStore
	metrics      *metrics.Manager
	location     *time.Location
	storeTimeout time.Duration
	now          func() time.Time
}

func NewService(params ServiceParams) *Service {
	location := params.Location
	if location == nil {
		location = time.Local
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:        params.Store,
		metrics:      params.Metrics,
		location:     location,
		storeTimeout: params.StoreTimeout,
		now:          now,
	}
}

func (s *Service) Add(ctx context.Context, event Event) (_ *Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.movement.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("type", event.Type),
		attribute.String("position", event.Position),
	)

	if err := event.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.store.Append(ctx, event); err != nil {
		s.metrics.CounterStoreErrors.WithLabelValues("append").Inc()
		return nil, fmt.Errorf("%w: append: %w", ErrStoreUnavailable, err)
	}

	s.metrics.CounterMovements.Inc()
	return &event, nil
}

// ByDay lists all stored events under their date.
func (s *Service) ByDay(ctx context.Context) (_ map[string][]DayEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.movement.byday")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	events, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	return GroupByDay(events, s.now().In(s.location)), nil
}

func (s *Service) History(ctx context.Context, params HistoryParams) (_ *History, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.movement.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	columns, rows := params.Columns, params.Rows
	if columns <= 0 {
		columns = DefaultColumns
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	span.SetAttributes(attribute.Int("columns", columns), attribute.Int("rows", rows))

	events, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.location)
	skipped := s.countUnparseable(events, now.Location())
	span.SetAttributes(attribute.Int("events", len(events)), attribute.Int("skipped", skipped))

	week := ReportingWeek(events, now)
	today := Today(events, now)

	return &History{
		Days:             ComputeDayCounts(events, now),
		HourAverages:     ComputeHourAverages(week),
		TodayHours:       ComputeTodayHourCounts(events, now),
		WeekHeatSectors:  ComputeHeatSectors(Positions(week), columns, rows),
		TodayHeatSectors: ComputeHeatSectors(Positions(today), columns, rows),
		Total:            len(events),
		Skipped:          skipped,
		WeekStart:        WeekStart(now),
		GeneratedAt:      now,
	}, nil
}

func (s *Service) fetchAll(ctx context.Context) ([]Event, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	defer func(begin time.Time) {
		s.metrics.HistStoreFetchDuration.Observe(time.Since(begin).Seconds())
	}(time.Now())

	events, err := s.store.FetchAll(ctx)
	if err != nil {
		s.metrics.CounterStoreErrors.WithLabelValues("fetch_all").Inc()
		return nil, fmt.Errorf("%w: fetch all: %w", ErrStoreUnavailable, err)
	}
	return events, nil
}

// countUnparseable logs and counts the events that cannot be bucketed.
// They are left out of the affected buckets, the rest of the history is still computed.
func (s *Service) countUnparseable(events []Event, loc *time.Location) int {
	skipped := 0
	for i, e := range events {
		_, dateErr := ParseDay(e.Date, loc)
		_, timeErr := ParseHour(e.Time)
		if dateErr == nil && timeErr == nil {
			continue
		}
		skipped++
		log.WithFields(log.Fields{
			"record": i,
			"date":   e.Date,
			"time":   e.Time,
		}).Warnf("movement record skipped: date err: %v, time err: %v", dateErr, timeErr)
	}
	if skipped > 0 {
		s.metrics.CounterSkippedRecords.Add(float64(skipped))
	}
	return skipped
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}
