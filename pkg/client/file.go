package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/elsanchez/mediasense/internal/media"
)

// ProgressFunc crea un writer que recibe los bytes a medida que se guardan.
// total es -1 cuando el servicio no envía Content-Length.
type ProgressFunc func(total int64, filename string) io.Writer

// FileSaver guarda el archivo de una tarea completada en un directorio
type FileSaver struct {
	client   *Client
	dir      string
	progress ProgressFunc
}

// NewFileSaver crea un FileSaver. progress puede ser nil.
func NewFileSaver(c *Client, dir string, progress ProgressFunc) *FileSaver {
	return &FileSaver{client: c, dir: dir, progress: progress}
}

// Retrieve descarga /download/file/{task_id} y retorna el path del archivo guardado
func (s *FileSaver) Retrieve(ctx context.Context, taskID string) (string, error) {
	return s.client.SaveFile(ctx, taskID, s.dir, s.progress)
}

// SaveFile descarga el archivo de una tarea dentro de dir.
// El nombre viene de Content-Disposition; si no hay, se usa el task_id.
func (c *Client) SaveFile(ctx context.Context, taskID, dir string, progress ProgressFunc) (string, error) {
	c.logger.Infof("Retrieving file for task %s", taskID)

	resp, err := c.rest.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "*/*").
		SetPathParam("taskID", taskID).
		Get("/download/file/{taskID}")
	if err != nil {
		return "", &TransportError{Op: "retrieve file", Err: err}
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
		return "", newServerError("retrieve file", resp.StatusCode(), data, MsgFileUnavailable)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := filenameFromDisposition(resp.Header().Get("Content-Disposition"))
	if filename == "" {
		filename = media.SanitizeFilename(taskID)
	}
	outPath := uniquePath(filepath.Join(dir, filename))

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}

	var dst io.Writer = f
	if progress != nil {
		if w := progress(resp.RawResponse.ContentLength, filepath.Base(outPath)); w != nil {
			dst = io.MultiWriter(f, w)
		}
	}

	written, copyErr := io.Copy(dst, body)
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(outPath)
		return "", &TransportError{Op: "retrieve file", Err: copyErr}
	}
	if closeErr != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("close output file: %w", closeErr)
	}

	c.logger.Infof("Saved %d bytes to %s", written, outPath)
	return outPath, nil
}

// filenameFromDisposition extrae y sanitiza el filename de Content-Disposition
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}

	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}

	// mime decodifica filename* (RFC 5987) en "filename"
	return media.SanitizeFilename(filepath.Base(params["filename"]))
}

// uniquePath agrega un sufijo numérico si el archivo ya existe
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
