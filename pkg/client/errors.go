package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// Mensajes genéricos cuando el servicio no da detalle
const (
	MsgAnalyzeFailed   = "Failed to fetch media"
	MsgAnalyzeNetwork  = "Failed to fetch media. Please check the link."
	MsgDownloadFailed  = "Failed to start download"
	MsgTaskFailed      = "Download failed"
	MsgConnectionLost  = "Connection lost"
	MsgFileUnavailable = "File not ready or found"
)

// ServerError es una respuesta no-2xx del servicio
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// TransportError es una falla de red: no hubo respuesta
type TransportError struct {
	Op  string
	Err error
}

// Error retorna el mensaje de la causa, sin el prefijo "Post \"url\":" que agrega net/http
func (e *TransportError) Error() string {
	cause := e.Err
	var urlErr *url.Error
	if errors.As(cause, &urlErr) && urlErr.Err != nil {
		cause = urlErr.Err
	}
	if cause == nil || cause.Error() == "" {
		return fmt.Sprintf("%s: no response from service", e.Op)
	}
	return cause.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport retorna true si err es (o envuelve) un TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// errorBody mapea el cuerpo de error del servicio ({"detail": "..."}).
// Los errores de validación traen detail como lista, por eso any.
type errorBody struct {
	Detail any `json:"detail"`
}

func newServerError(op string, status int, body []byte, fallback string) *ServerError {
	msg := fallback

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if detail, ok := eb.Detail.(string); ok && detail != "" {
			msg = detail
		}
	}

	return &ServerError{Op: op, StatusCode: status, Message: msg}
}
