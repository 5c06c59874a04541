package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/elsanchez/mediasense/internal/domain"
	"github.com/elsanchez/mediasense/internal/repository"
)

// HistoryRepository implementa repository.HistoryRepository usando SQLite
type HistoryRepository struct {
	db *sqlx.DB
}

// Compiletime check: asegura que implementa la interfaz
var _ repository.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository crea un nuevo repositorio de historial
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// historyRow mapea la tabla SQL a struct Go
type historyRow struct {
	ID           int64          `db:"id"`
	SessionID    string         `db:"session_id"`
	TaskID       string         `db:"task_id"`
	URL          string         `db:"url"`
	Platform     sql.NullString `db:"platform"`
	Title        sql.NullString `db:"title"`
	FormatID     string         `db:"format_id"`
	Status       string         `db:"status"`
	OutputPath   sql.NullString `db:"output_path"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    int64          `db:"created_at"`
	FinishedAt   int64          `db:"finished_at"`
}

// Record guarda un resultado terminal. Solo se aceptan completed y error.
func (r *HistoryRepository) Record(ctx context.Context, entry *domain.HistoryEntry) (int64, error) {
	if !entry.Status.IsTerminal() {
		return 0, fmt.Errorf("record history: status %q is not terminal", entry.Status)
	}

	finished := entry.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	created := entry.CreatedAt
	if created.IsZero() {
		created = finished
	}

	query := `
		INSERT INTO history (session_id, task_id, url, platform, title, format_id,
		                     status, output_path, error_message, created_at, finished_at)
		VALUES (:session_id, :task_id, :url, :platform, :title, :format_id,
		        :status, :output_path, :error_message, :created_at, :finished_at)
	`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"session_id":    entry.SessionID,
		"task_id":       entry.TaskID,
		"url":           entry.URL,
		"platform":      nullString(entry.Platform),
		"title":         nullString(entry.Title),
		"format_id":     entry.FormatID,
		"status":        string(entry.Status),
		"output_path":   nullString(entry.OutputPath),
		"error_message": nullString(entry.ErrorMessage),
		"created_at":    created.Unix(),
		"finished_at":   finished.Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	entry.ID = id
	return id, nil
}

// UpdateOutputPath asocia el archivo guardado al registro más reciente de la tarea
func (r *HistoryRepository) UpdateOutputPath(ctx context.Context, taskID, path string) error {
	query := `
		UPDATE history SET output_path = ?
		WHERE id = (SELECT id FROM history WHERE task_id = ? ORDER BY id DESC LIMIT 1)
	`

	res, err := r.db.ExecContext(ctx, query, path, taskID)
	if err != nil {
		return fmt.Errorf("update output path: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update output path: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("history for task %s: %w", taskID, repository.ErrNotFound)
	}
	return nil
}

// GetRecent obtiene los resultados más recientes
func (r *HistoryRepository) GetRecent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	var rows []historyRow

	query := `
		SELECT * FROM history
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`

	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get recent history: %w", err)
	}

	return rowsToDomain(rows), nil
}

// GetByTaskID obtiene el último registro de una tarea
func (r *HistoryRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.HistoryEntry, error) {
	var row historyRow

	query := `SELECT * FROM history WHERE task_id = ? ORDER BY id DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &row, query, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("history for task %s: %w", taskID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("get history: %w", err)
	}

	return rowToDomain(&row), nil
}

// GetBySession obtiene los resultados de una sesión en orden
func (r *HistoryRepository) GetBySession(ctx context.Context, sessionID string) ([]*domain.HistoryEntry, error) {
	var rows []historyRow

	query := `SELECT * FROM history WHERE session_id = ? ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("get session history: %w", err)
	}

	return rowsToDomain(rows), nil
}

// CountByStatus cuenta resultados por status
func (r *HistoryRepository) CountByStatus(ctx context.Context, status domain.TaskStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM history WHERE status = ?`
	err := r.db.GetContext(ctx, &count, query, string(status))
	return count, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Helper: conversión row → domain
func rowToDomain(row *historyRow) *domain.HistoryEntry {
	return &domain.HistoryEntry{
		ID:           row.ID,
		SessionID:    row.SessionID,
		TaskID:       row.TaskID,
		URL:          row.URL,
		Platform:     row.Platform.String,
		Title:        row.Title.String,
		FormatID:     row.FormatID,
		Status:       domain.TaskStatus(row.Status),
		OutputPath:   row.OutputPath.String,
		ErrorMessage: row.ErrorMessage.String,
		CreatedAt:    time.Unix(row.CreatedAt, 0),
		FinishedAt:   time.Unix(row.FinishedAt, 0),
	}
}

// Helper: conversión múltiples rows → domain
func rowsToDomain(rows []historyRow) []*domain.HistoryEntry {
	entries := make([]*domain.HistoryEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rowToDomain(&rows[i]))
	}
	return entries
}
