package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hostel-ledger-backend/config"
	"hostel-ledger-backend/internal/ledger"
	"hostel-ledger-backend/internal/model"
	"hostel-ledger-backend/internal/store"
)

// Source is the read side of the store the auditor needs.
type Source interface {
	ListRooms(ctx context.Context, institutionID string) ([]model.Room, error)
	LedgerTotals(ctx context.Context) ([]store.LedgerTotals, error)
	NegativeBalances(ctx context.Context) (int64, error)
}

// Kind names a class of invariant violation.
type Kind string

const (
	KindCapacity     Kind = "capacity"
	KindConservation Kind = "conservation"
	KindNegative     Kind = "negative_balance"
)

// Violation is one broken invariant.
type Violation struct {
	Kind    Kind
	Subject string
	Detail  string
}

// Report is the outcome of one audit pass.
type Report struct {
	CheckedAt    time.Time
	Rooms        int
	Institutions int
	Violations   []Violation
}

// OK reports whether the pass found nothing wrong.
func (r Report) OK() bool {
	return len(r.Violations) == 0
}

// Service periodically checks that stored state still satisfies the ledger
// invariants: bed counts within room size, no negative balances, and every
// institution balance equal to fees collected minus payouts.
type Service struct {
	cfg    config.AuditConfig
	source Source
	clock  ledger.Clock
	logger *zap.Logger
}

// NewService creates an auditor.
func NewService(cfg config.AuditConfig, source Source, logger *zap.Logger) *Service {
	return &Service{
		cfg:    cfg,
		source: source,
		clock:  ledger.SystemClock{},
		logger: logger.Named("audit"),
	}
}

// Run audits once immediately and then on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("auditor is disabled, not starting")
		return
	}
	s.logger.Info("starting auditor", zap.Duration("interval", s.cfg.Interval))

	s.runAndLog(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("auditor shutting down")
			return
		case <-timer.C:
			s.runAndLog(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) runAndLog(ctx context.Context) {
	report, err := s.AuditOnce(ctx)
	if err != nil {
		s.logger.Error("audit pass failed", zap.Error(err))
		return
	}
	for _, v := range report.Violations {
		s.logger.Error("invariant violated",
			zap.String("kind", string(v.Kind)),
			zap.String("subject", v.Subject),
			zap.String("detail", v.Detail))
	}
	s.logger.Info("audit pass finished",
		zap.Int("rooms", report.Rooms),
		zap.Int("institutions", report.Institutions),
		zap.Int("violations", len(report.Violations)))
}

// AuditOnce performs a single audit pass.
func (s *Service) AuditOnce(ctx context.Context) (Report, error) {
	report := Report{CheckedAt: s.clock.Now()}

	rooms, err := s.source.ListRooms(ctx, "")
	if err != nil {
		return Report{}, fmt.Errorf("list rooms: %w", err)
	}
	report.Rooms = len(rooms)
	for _, room := range rooms {
		if !ledger.CapacityValid(room) {
			report.Violations = append(report.Violations, Violation{
				Kind:    KindCapacity,
				Subject: room.ID,
				Detail:  fmt.Sprintf("beds_available=%d room_size=%d", room.BedsAvailable, room.RoomSize),
			})
		}
	}

	negative, err := s.source.NegativeBalances(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("count negative balances: %w", err)
	}
	if negative > 0 {
		report.Violations = append(report.Violations, Violation{
			Kind:    KindNegative,
			Subject: "balances",
			Detail:  fmt.Sprintf("%d accounts below zero", negative),
		})
	}

	totals, err := s.source.LedgerTotals(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("ledger totals: %w", err)
	}
	report.Institutions = len(totals)
	for _, t := range totals {
		if t.Balance != t.Collected-t.PaidOut {
			report.Violations = append(report.Violations, Violation{
				Kind:    KindConservation,
				Subject: t.InstitutionID,
				Detail:  fmt.Sprintf("balance=%d collected=%d paid_out=%d", t.Balance, t.Collected, t.PaidOut),
			})
		}
	}

	return report, nil
}
