package repository

import (
	"context"
	"errors"

	"github.com/elsanchez/mediasense/internal/domain"
)

// ErrNotFound se retorna cuando no existe el registro pedido
var ErrNotFound = errors.New("not found")

// HistoryRepository define las operaciones sobre el historial de descargas
type HistoryRepository interface {
	// Escritura
	Record(ctx context.Context, entry *domain.HistoryEntry) (int64, error)
	UpdateOutputPath(ctx context.Context, taskID, path string) error

	// Queries
	GetRecent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error)
	GetByTaskID(ctx context.Context, taskID string) (*domain.HistoryEntry, error)
	GetBySession(ctx context.Context, sessionID string) ([]*domain.HistoryEntry, error)

	// Estadísticas
	CountByStatus(ctx context.Context, status domain.TaskStatus) (int, error)
}
