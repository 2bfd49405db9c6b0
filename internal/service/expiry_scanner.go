package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/metrics"
	"github.com/nftpawnshop/backend/internal/model"
)

// LoanQuerier finds open loans whose end date falls in [start, end].
type LoanQuerier interface {
	LoansExpiringWithin(ctx context.Context, start, end int64) ([]model.RawLoan, error)
}

// CursorStore persists the timestamp of the last completed scan. A nil
// timestamp means no scan has completed yet.
type CursorStore interface {
	GetCursor(ctx context.Context) (*int64, error)
	SetCursor(ctx context.Context, timestamp int64) error
}

// Dispatcher hands a synthetic expiry event to the notification pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev model.Event) error
}

// ExpiryScannerConfig is fixed at construction.
type ExpiryScannerConfig struct {
	// KillSwitch disables every scan with no side effects.
	KillSwitch bool
	// WindowHours is both the look-ahead window and the default look-back
	// when no cursor is stored.
	WindowHours int
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Skipped     bool  `json:"skipped"`
	Approaching int   `json:"approaching"`
	PastDue     int   `json:"pastDue"`
	Rejected    int   `json:"rejected"`
	Cursor      int64 `json:"cursor"`
}

// ExpiryScanner emits approaching-due and past-due events for loans around
// their maturity. Runs must be serialized by the caller.
type ExpiryScanner struct {
	cfg        ExpiryScannerConfig
	loans      LoanQuerier
	cursor     CursorStore
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewExpiryScanner creates a scanner.
func NewExpiryScanner(cfg ExpiryScannerConfig, loans LoanQuerier, cursor CursorStore, dispatcher Dispatcher, logger *slog.Logger) *ExpiryScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpiryScanner{
		cfg:        cfg,
		loans:      loans,
		cursor:     cursor,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *ExpiryScanner) windowSeconds() int64 {
	return int64(s.cfg.WindowHours) * 3600
}

// RunScan dispatches LiquidationOccurring for loans maturing in
// [current, current+window] and LiquidationOccurred for loans that matured in
// [cursor, current], then stores current as the new cursor. Loans the
// pipeline rejects as malformed are logged and skipped; any other dispatch
// failure leaves the cursor in place so the next run retries.
func (s *ExpiryScanner) RunScan(ctx context.Context, current int64) (*ScanResult, error) {
	m := metrics.Notifier()

	if s.cfg.KillSwitch {
		s.logger.Info("Notifications kill switch set, skipping expiry scan")
		m.RecordScanRun("killswitch")
		return &ScanResult{Skipped: true}, nil
	}

	s.logger.Info("Running expiry scan", slog.Int64("timestamp", current))

	past := s.readCursor(ctx, current)
	future := current + s.windowSeconds()
	result := &ScanResult{Cursor: past}

	var dispatchErrs []error

	approaching, err := s.loans.LoansExpiringWithin(ctx, current, future)
	if err != nil {
		m.RecordScanRun("failed")
		return result, fmt.Errorf("query loans expiring in [%d, %d]: %w", current, future, err)
	}
	for _, loan := range approaching {
		switch err := s.dispatch(ctx, model.LiquidationOccurring{RawLoan: loan}); {
		case err == nil:
			result.Approaching++
		case isPermanent(err):
			result.Rejected++
		default:
			dispatchErrs = append(dispatchErrs, err)
		}
	}

	if past < current {
		expired, err := s.loans.LoansExpiringWithin(ctx, past, current)
		if err != nil {
			m.RecordScanRun("failed")
			return result, fmt.Errorf("query loans expired in [%d, %d]: %w", past, current, err)
		}
		for _, loan := range expired {
			switch err := s.dispatch(ctx, model.LiquidationOccurred{RawLoan: loan}); {
			case err == nil:
				result.PastDue++
			case isPermanent(err):
				result.Rejected++
			default:
				dispatchErrs = append(dispatchErrs, err)
			}
		}
	}

	if len(dispatchErrs) > 0 {
		m.RecordScanRun("failed")
		return result, fmt.Errorf("expiry scan left cursor at %d: %w", past, errors.Join(dispatchErrs...))
	}

	if err := s.cursor.SetCursor(ctx, current); err != nil {
		m.RecordScanRun("failed")
		return result, fmt.Errorf("write cursor: %w", err)
	}
	result.Cursor = current
	m.RecordScanRun("completed")

	s.logger.Info("Expiry scan completed",
		slog.Int("approaching", result.Approaching),
		slog.Int("past_due", result.PastDue),
		slog.Int("rejected", result.Rejected),
		slog.Int64("cursor", current),
	)
	return result, nil
}

// readCursor falls back to one window before current when no cursor is
// stored or it cannot be read.
func (s *ExpiryScanner) readCursor(ctx context.Context, current int64) int64 {
	fallback := current - s.windowSeconds()

	ts, err := s.cursor.GetCursor(ctx)
	if err != nil {
		s.logger.Warn("Failed to read expiry scan cursor, using default window",
			slog.String("error", err.Error()),
			slog.Int64("cursor", fallback),
		)
		return fallback
	}
	if ts == nil || *ts == 0 {
		s.logger.Info("No expiry scan cursor stored, using default window", slog.Int64("cursor", fallback))
		return fallback
	}
	return *ts
}

func (s *ExpiryScanner) dispatch(ctx context.Context, ev model.Event) error {
	loanID := ev.LoanRecord().ID
	if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
		if isPermanent(err) {
			s.logger.Warn("Skipping loan rejected by notification pipeline",
				slog.String("event_type", string(ev.EventType())),
				slog.String("loan_id", loanID),
				slog.String("error", err.Error()),
			)
			metrics.Notifier().RecordScanRejected(string(ev.EventType()))
			return err
		}
		s.logger.Error("Failed to dispatch expiry event",
			slog.String("event_type", string(ev.EventType())),
			slog.String("loan_id", loanID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("dispatch %s for loan %s: %w", ev.EventType(), loanID, err)
	}
	metrics.Notifier().RecordScanDispatch(string(ev.EventType()))
	return nil
}

// isPermanent reports whether a dispatch failure comes from the loan record
// itself, so a retry would fail the same way.
func isPermanent(err error) bool {
	return errors.Is(err, apperror.ErrDataIntegrity) ||
		errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, model.ErrUnknownEventType)
}
