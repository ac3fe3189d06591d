// Package service provides the business logic layer (use cases):
// budget reports, monthly closure, transaction and category management.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/budget"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/observability"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var closureTracer = otel.Tracer("service/closure")

// ClosureService is the monthly closure state machine. A period is Open
// until a ClosureRecord exists for it, then Closed. Closing snapshots the
// period's totals into an immutable record; a closed period rejects any
// transaction mutation through GuardMutation.
type ClosureService struct {
	closures port.ClosureStore
	records  port.RecordStore
	metrics  *observability.Metrics
	logger   *zap.Logger

	// Per-(user,period) locks serialize the check-then-act inside Close and
	// the guard-then-write of every transaction mutation (GuardMutation), so
	// a mutation can never slip in between a closure's snapshot and its
	// commit. The store's unique constraint backs Close up across processes.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewClosureService creates the closure state machine.
func NewClosureService(closures port.ClosureStore, records port.RecordStore, metrics *observability.Metrics, logger *zap.Logger) *ClosureService {
	return &ClosureService{
		closures: closures,
		records:  records,
		metrics:  metrics,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *ClosureService) periodLock(userID string, period domain.Period) *sync.Mutex {
	key := userID + "/" + period.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Close transitions a period from Open to Closed, stamping the given totals
// and the current timestamp into an immutable ClosureRecord. It fails with
// ErrAlreadyClosed when a record already exists for the period.
func (s *ClosureService) Close(ctx context.Context, userID string, period domain.Period, totals domain.PeriodTotals) (*domain.ClosureRecord, error) {
	ctx, span := closureTracer.Start(ctx, "ClosureService.Close")
	defer span.End()
	span.SetAttributes(attribute.String("period", period.String()))

	lock := s.periodLock(userID, period)
	lock.Lock()
	defer lock.Unlock()

	return s.closeLocked(ctx, userID, period, totals)
}

// closeLocked does the check-then-act of Close. Callers hold the period lock.
func (s *ClosureService) closeLocked(ctx context.Context, userID string, period domain.Period, totals domain.PeriodTotals) (*domain.ClosureRecord, error) {
	if _, found, err := s.closures.LoadClosureRecord(ctx, userID, period); err != nil {
		return nil, err
	} else if found {
		return nil, &domain.ErrAlreadyClosed{Period: period}
	}

	rec := &domain.ClosureRecord{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Period:             period,
		TotalIncomeCents:   totals.IncomeCents,
		TotalExpensesCents: totals.ExpenseCents,
		ClosedAt:           time.Now().UTC(),
	}
	if err := s.closures.SaveClosureRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.metrics.IncrPeriodClosed()
	s.logger.Info("period closed",
		zap.String("user_id", userID),
		zap.String("period", period.String()),
		zap.Int64("total_income_cents", rec.TotalIncomeCents),
		zap.Int64("total_expenses_cents", rec.TotalExpensesCents),
	)
	return rec, nil
}

// ClosePeriod snapshots the period's transactions, aggregates them and
// closes the period with the resulting totals. The snapshot happens under
// the same period lock GuardMutation takes, so the stored totals always
// equal what the aggregator would compute over the committed transactions:
// a concurrent mutation either lands before the snapshot and is counted,
// or waits for the lock and is rejected with ErrPeriodClosed.
func (s *ClosureService) ClosePeriod(ctx context.Context, userID string, period domain.Period) (*domain.ClosureRecord, error) {
	ctx, span := closureTracer.Start(ctx, "ClosureService.ClosePeriod")
	defer span.End()

	lock := s.periodLock(userID, period)
	lock.Lock()
	defer lock.Unlock()

	transactions, err := s.records.ListTransactions(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	totals := budget.Aggregate(transactions, period)
	return s.closeLocked(ctx, userID, period, totals)
}

// IsClosed reports whether a ClosureRecord exists for the period.
func (s *ClosureService) IsClosed(ctx context.Context, userID string, period domain.Period) (bool, error) {
	_, found, err := s.closures.LoadClosureRecord(ctx, userID, period)
	return found, err
}

// GetClosureRecord returns the closure record for a period, if any.
func (s *ClosureService) GetClosureRecord(ctx context.Context, userID string, period domain.Period) (*domain.ClosureRecord, error) {
	rec, found, err := s.closures.LoadClosureRecord(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "closure_record", ID: period.String()}
	}
	return rec, nil
}

// GuardMutation runs mutate while holding the lock of every period the
// given dates touch, after verifying each of those periods is still Open.
// Taking the same locks Close takes makes the guard-then-write atomic
// against a concurrent closure: a mutation admitted by the guard commits
// before the closure's snapshot, never after it. Locks are acquired in
// period order so two guarded mutations can never deadlock each other.
func (s *ClosureService) GuardMutation(ctx context.Context, userID string, dates []time.Time, mutate func(ctx context.Context) error) error {
	periods := make([]domain.Period, 0, len(dates))
	seen := make(map[domain.Period]bool, len(dates))
	for _, d := range dates {
		p := domain.PeriodOf(d)
		if seen[p] {
			continue
		}
		seen[p] = true
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	for _, p := range periods {
		lock := s.periodLock(userID, p)
		lock.Lock()
		defer lock.Unlock()
	}

	for _, p := range periods {
		closed, err := s.IsClosed(ctx, userID, p)
		if err != nil {
			return err
		}
		if closed {
			s.metrics.IncrMutationRejected()
			return &domain.ErrPeriodClosed{Period: p}
		}
	}
	return mutate(ctx)
}

// AssertMutable fails with ErrPeriodClosed when the period containing the
// date is Closed. It answers the question without holding the period lock;
// transaction mutations go through GuardMutation, which re-checks under
// the lock before committing.
func (s *ClosureService) AssertMutable(ctx context.Context, userID string, date time.Time) error {
	period := domain.PeriodOf(date)
	closed, err := s.IsClosed(ctx, userID, period)
	if err != nil {
		return err
	}
	if closed {
		s.metrics.IncrMutationRejected()
		return &domain.ErrPeriodClosed{Period: period}
	}
	return nil
}

// Reopen deletes the period's ClosureRecord and returns it to Open.
// Reopening is a first-class, audited operation: it is logged and counted,
// and it is the only way back from Closed.
func (s *ClosureService) Reopen(ctx context.Context, userID string, period domain.Period) error {
	ctx, span := closureTracer.Start(ctx, "ClosureService.Reopen")
	defer span.End()
	span.SetAttributes(attribute.String("period", period.String()))

	lock := s.periodLock(userID, period)
	lock.Lock()
	defer lock.Unlock()

	rec, found, err := s.closures.LoadClosureRecord(ctx, userID, period)
	if err != nil {
		return err
	}
	if !found {
		return &domain.ErrNotFound{Resource: "closure_record", ID: period.String()}
	}
	if err := s.closures.DeleteClosureRecord(ctx, userID, period); err != nil {
		return err
	}

	s.metrics.IncrPeriodReopened()
	s.logger.Warn("period reopened",
		zap.String("user_id", userID),
		zap.String("period", period.String()),
		zap.Time("originally_closed_at", rec.ClosedAt),
	)
	return nil
}

// ListPeriodStatuses returns the closure state of every period between
// from and to, inclusive.
func (s *ClosureService) ListPeriodStatuses(ctx context.Context, userID string, from, to domain.Period) ([]domain.PeriodStatus, error) {
	ctx, span := closureTracer.Start(ctx, "ClosureService.ListPeriodStatuses")
	defer span.End()

	records, err := s.closures.ListClosureRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	byPeriod := make(map[domain.Period]*domain.ClosureRecord, len(records))
	for i := range records {
		byPeriod[records[i].Period] = &records[i]
	}

	var statuses []domain.PeriodStatus
	for p := from; !to.Before(p); p = p.Next() {
		rec := byPeriod[p]
		statuses = append(statuses, domain.PeriodStatus{
			Period: p,
			Closed: rec != nil,
			Record: rec,
		})
	}
	return statuses, nil
}
