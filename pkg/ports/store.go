package ports

import (
	"context"

	"github.com/aretw0/furrow/pkg/domain"
)

// ReportStore defines the interface for persisting exploration session reports.
// Reports are written as checkpoints while a session runs and once more when it ends.
type ReportStore interface {
	// Save persists the report under its session ID.
	Save(ctx context.Context, report *domain.Report) error

	// Load retrieves the report for a given session ID.
	// Returns domain.ErrReportNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Report, error)

	// Delete removes the report for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of every stored session.
	List(ctx context.Context) ([]string, error)
}
