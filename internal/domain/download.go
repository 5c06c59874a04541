package domain

import "time"

// TaskStatus representa los estados de la tarea del lado del cliente
type TaskStatus string

const (
	TaskIdle        TaskStatus = "idle"
	TaskStarting    TaskStatus = "starting"
	TaskDownloading TaskStatus = "downloading"
	TaskCompleted   TaskStatus = "completed"
	TaskError       TaskStatus = "error"
)

// IsTerminal retorna true si la tarea terminó (bien o mal)
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskError
}

// IsActive retorna true si la tarea está en proceso
func (s TaskStatus) IsActive() bool {
	return s == TaskStarting || s == TaskDownloading
}

// RemoteStatus es el status que reporta el servicio para un job
type RemoteStatus string

const (
	RemotePending     RemoteStatus = "pending"
	RemoteProcessing  RemoteStatus = "processing"
	RemoteDownloading RemoteStatus = "downloading"
	RemoteCompleted   RemoteStatus = "completed"
	RemoteFailed      RemoteStatus = "failed"
)

// StatusReport es la respuesta de /download/status/{task_id}
type StatusReport struct {
	Status   RemoteStatus `json:"status"`
	Progress *float64     `json:"progress,omitempty"`
	Error    *string      `json:"error,omitempty"`
	Filename *string      `json:"filename,omitempty"`
}

// ProgressOrZero retorna el progreso reportado o 0 si no vino
func (r *StatusReport) ProgressOrZero() float64 {
	if r == nil || r.Progress == nil {
		return 0
	}
	return *r.Progress
}

// HistoryEntry representa un resultado terminal guardado localmente
type HistoryEntry struct {
	ID           int64
	SessionID    string
	TaskID       string
	URL          string
	Platform     string
	Title        string
	FormatID     string
	Status       TaskStatus
	OutputPath   string
	ErrorMessage string
	CreatedAt    time.Time
	FinishedAt   time.Time
}
