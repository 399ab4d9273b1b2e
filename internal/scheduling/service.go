package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/instrumentation"
	"github.com/teemow/dealdesk/internal/logging"
)

// DefaultCalendarID is used when a request does not name a calendar.
const DefaultCalendarID = "primary"

// ErrNoBusySource is returned when a request carries no busy intervals and the
// service has no source to read them from.
var ErrNoBusySource = errors.New("no busy interval source configured")

// Request identifies whose calendar to check and how.
type Request struct {
	Account    string
	CalendarID string
	Input      availability.Input
}

func (r Request) calendarID() string {
	if r.CalendarID == "" {
		return DefaultCalendarID
	}
	return r.CalendarID
}

// Service resolves availability for accounts against a busy source.
type Service struct {
	source     BusySource
	sourceName string
	cfg        availability.Config
	now        func() time.Time
	staleAfter time.Duration
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used when a request has no reference instant.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithStaleAfter logs a warning when a synced source is older than d. Zero disables
// the check.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Service) { s.staleAfter = d }
}

// NewService creates a Service. source may be nil, in which case every request must
// carry its own busy intervals. sourceName labels metrics and logs.
func NewService(source BusySource, sourceName string, cfg availability.Config, opts ...Option) *Service {
	s := &Service{
		source:     source,
		sourceName: sourceName,
		cfg:        cfg,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the engine configuration.
func (s *Service) Config() availability.Config {
	return s.cfg
}

// SourceName returns the label of the configured busy source.
func (s *Service) SourceName() string {
	return s.sourceName
}

// CheckAvailability resolves one request. Busy intervals supplied in the input are
// used as is; otherwise they are read from the source for the normalized window,
// exactly once.
func (s *Service) CheckAvailability(ctx context.Context, req Request) (availability.Report, error) {
	start := time.Now()
	source := s.sourceName
	if req.Input.BusyIntervals != nil {
		source = instrumentation.SourceInline
	}

	ctx, span := instrumentation.StartSpan(ctx, "availability.resolve",
		attribute.String(instrumentation.SpanAttrSource, source),
		attribute.String(instrumentation.SpanAttrCalendarID, req.calendarID()))
	defer span.End()

	logger := logging.WithOperation(s.logger, "availability.check").With(
		logging.Account(req.Account),
		logging.Calendar(req.calendarID()),
		logging.BusySource(source),
	)

	report, err := s.resolve(ctx, req, logger)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		s.metrics.RecordResolution(ctx, source, instrumentation.StatusError, 0, time.Since(start))
		logger.Warn("availability check failed", logging.Err(err))
		return availability.Report{}, err
	}

	span.SetAttributes(
		attribute.String(instrumentation.SpanAttrTimezone, report.Timezone),
		attribute.Int(instrumentation.SpanAttrSlotCount, report.TotalAvailableSlots),
		attribute.Int(instrumentation.SpanAttrBusyCount, len(report.BusySlots)),
	)
	instrumentation.SetSpanSuccess(span)
	s.metrics.RecordResolution(ctx, source, instrumentation.StatusSuccess, report.TotalAvailableSlots, time.Since(start))
	logger.Debug("availability resolved",
		logging.Timezone(report.Timezone),
		logging.SlotCount(report.TotalAvailableSlots),
		logging.BusyCount(len(report.BusySlots)),
		logging.Duration(time.Since(start)))

	return report, nil
}

func (s *Service) resolve(ctx context.Context, req Request, logger *slog.Logger) (availability.Report, error) {
	return availability.CheckWith(req.Input, s.now(), s.cfg, func(window availability.TimeWindowRequest) ([]availability.BusyInterval, error) {
		return s.fetch(ctx, req.Account, req.calendarID(), window.Start, window.End, logger)
	})
}

// BusyBlocks returns the merged busy intervals of a calendar in [start, end).
func (s *Service) BusyBlocks(ctx context.Context, account, calendarID string, start, end time.Time) ([]availability.BusyInterval, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	logger := logging.WithOperation(s.logger, "availability.busy").With(
		logging.Account(account),
		logging.Calendar(calendarID),
	)

	busy, err := s.fetch(ctx, account, calendarID, start, end, logger)
	if err != nil {
		return nil, err
	}
	merged := availability.MergeIntervals(availability.FilterValid(busy))
	return availability.ClipToWindow(merged, start, end), nil
}

func (s *Service) fetch(ctx context.Context, account, calendarID string, start, end time.Time, logger *slog.Logger) ([]availability.BusyInterval, error) {
	if s.source == nil {
		return nil, ErrNoBusySource
	}

	ctx, span := instrumentation.StartSpan(ctx, "availability.fetch_busy",
		attribute.String(instrumentation.SpanAttrSource, s.sourceName))
	defer span.End()

	began := time.Now()
	busy, err := s.source.BusyIntervals(ctx, account, calendarID, start, end)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	}
	s.metrics.RecordBusyFetch(ctx, s.sourceName, status, time.Since(began))
	if err != nil {
		return nil, fmt.Errorf("failed to read busy intervals: %w", err)
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrBusyCount, len(busy)))
	s.checkFreshness(ctx, account, logger)
	return busy, nil
}

// checkFreshness warns when a synced source lags behind. It never triggers a sync.
func (s *Service) checkFreshness(ctx context.Context, account string, logger *slog.Logger) {
	reporter, ok := s.source.(FreshnessReporter)
	if !ok || s.staleAfter <= 0 {
		return
	}

	syncedAt, err := reporter.LastSyncedAt(ctx, account)
	if err != nil {
		logger.Debug("calendar freshness unknown", logging.Err(err))
		return
	}
	if age := s.now().Sub(syncedAt); age > s.staleAfter {
		logger.Warn("calendar data is stale",
			slog.Time("last_synced_at", syncedAt),
			logging.Duration(age))
	}
}
