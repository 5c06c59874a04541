package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/elsanchez/mediasense/internal/domain"
)

// DefaultAPIURL es la dirección del servicio en desarrollo local
const DefaultAPIURL = "http://127.0.0.1:8000/api/v1"

// Client representa un cliente del servicio MediaSense
type Client struct {
	baseURL string
	rest    *resty.Client
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewClient crea un cliente para baseURL.
// timeout aplica a las llamadas JSON; la descarga del archivo solo respeta el contexto.
func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	baseURL = strings.TrimRight(baseURL, "/")
	rest := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "mediasense-cli")

	logger.Debugf("Initialized service client with baseURL: %s", baseURL)

	return &Client{
		baseURL: baseURL,
		rest:    rest,
		timeout: timeout,
		logger:  logger,
	}
}

// BaseURL retorna la dirección del servicio ya resuelta
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FileURL retorna la URL de descarga del archivo de una tarea
func (c *Client) FileURL(taskID string) string {
	return c.baseURL + "/download/file/" + url.PathEscape(taskID)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Analyze obtiene el preview de una URL
func (c *Client) Analyze(ctx context.Context, mediaURL string) (*domain.MediaPreview, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.logger.Debugw("Analyzing URL", "url", mediaURL)

	var preview domain.MediaPreview
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("url", mediaURL).
		SetResult(&preview).
		Get("/analyze/")
	if err != nil {
		c.logger.Warnw("Analyze request failed", "error", err)
		return nil, &TransportError{Op: "analyze", Err: err}
	}

	if resp.IsError() {
		c.logger.Warnw("Analyze returned error status", "status", resp.Status())
		return nil, newServerError("analyze", resp.StatusCode(), resp.Body(), MsgAnalyzeFailed)
	}

	if preview.Formats == nil {
		preview.Formats = []domain.Format{}
	}

	c.logger.Infof("Analyzed %q: %d format(s)", preview.Title, len(preview.Formats))
	return &preview, nil
}

// CreateDownloadRequest es el cuerpo de POST /download
type CreateDownloadRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format_id"`
}

// CreateDownloadResponse es la respuesta de POST /download
type CreateDownloadResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status,omitempty"`
}

// CreateDownload crea una tarea de descarga y retorna su task_id
func (c *Client) CreateDownload(ctx context.Context, mediaURL, formatID string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.logger.Debugw("Creating download", "url", mediaURL, "format_id", formatID)

	var result CreateDownloadResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(&CreateDownloadRequest{URL: mediaURL, FormatID: formatID}).
		SetResult(&result).
		Post("/download")
	if err != nil {
		c.logger.Warnw("Create download request failed", "error", err)
		return "", &TransportError{Op: "create download", Err: err}
	}

	if resp.IsError() {
		c.logger.Warnw("Create download returned error status", "status", resp.Status())
		return "", newServerError("create download", resp.StatusCode(), resp.Body(), MsgDownloadFailed)
	}

	if result.TaskID == "" {
		return "", &ServerError{Op: "create download", StatusCode: resp.StatusCode(), Message: MsgDownloadFailed}
	}

	c.logger.Infof("Download task created: %s", result.TaskID)
	return result.TaskID, nil
}

// Status consulta el estado de una tarea
func (c *Client) Status(ctx context.Context, taskID string) (*domain.StatusReport, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var report domain.StatusReport
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("taskID", taskID).
		SetResult(&report).
		Get("/download/status/{taskID}")
	if err != nil {
		return nil, &TransportError{Op: "status", Err: err}
	}

	if resp.IsError() {
		c.logger.Warnw("Status returned error status", "task_id", taskID, "status", resp.Status())
		return nil, newServerError("status", resp.StatusCode(), resp.Body(), MsgConnectionLost)
	}

	c.logger.Debugw("Task status", "task_id", taskID, "status", report.Status, "progress", report.ProgressOrZero())
	return &report, nil
}

// Ping verifica que el servicio responda en su raíz
func (c *Client) Ping(ctx context.Context) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	root, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	root.Path = "/"
	root.RawQuery = ""

	var result struct {
		Message string `json:"message"`
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&result).
		Get(root.String())
	if err != nil {
		return "", &TransportError{Op: "ping", Err: err}
	}

	if resp.IsError() {
		return "", newServerError("ping", resp.StatusCode(), resp.Body(), resp.Status())
	}

	return result.Message, nil
}
