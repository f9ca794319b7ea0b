package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.ReportStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every store operation at debug level and every
// failure at warn level. A missing report is not a failure.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.ReportStore) ports.ReportStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(op, sessionID string, start time.Time, err error) {
	attrs := []any{"op", op, "session_id", sessionID, "duration", time.Since(start)}
	if err != nil && !errors.Is(err, domain.ErrReportNotFound) {
		m.logger.Warn("report store operation failed", append(attrs, "err", err)...)
		return
	}
	m.logger.Debug("report store operation", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, report *domain.Report) error {
	start := time.Now()
	err := m.next.Save(ctx, report)
	m.log("save", report.SessionID, start, err)
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, sessionID string) (*domain.Report, error) {
	start := time.Now()
	report, err := m.next.Load(ctx, sessionID)
	m.log("load", sessionID, start, err)
	return report, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := m.next.Delete(ctx, sessionID)
	m.log("delete", sessionID, start, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.log("list", "", start, err)
	return ids, err
}
