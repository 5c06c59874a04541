package domain

import "strings"

// Format describe una variante extraíble del medio
type Format struct {
	Resolution string `json:"resolution"`
	Ext        string `json:"ext"`
	Size       string `json:"size"`
	FormatID   string `json:"format_id"`
	Type       string `json:"type"`
}

// IsAudio retorna true si el formato es solo audio
func (f Format) IsAudio() bool {
	return strings.EqualFold(f.Ext, "mp3") || strings.EqualFold(f.Type, "audio")
}

// Label retorna una etiqueta corta para mostrar el formato
func (f Format) Label() string {
	parts := []string{f.Resolution}
	if f.Ext != "" {
		parts = append(parts, strings.ToUpper(f.Ext))
	}
	if f.Size != "" {
		parts = append(parts, f.Size)
	}
	return strings.Join(parts, " • ")
}

// MediaPreview es el resultado de analizar una URL.
// Se reemplaza completo con cada análisis exitoso, nunca se modifica.
type MediaPreview struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Duration  string   `json:"duration"`
	Platform  string   `json:"platform"`
	Formats   []Format `json:"formats"`
}

// FindFormat busca un formato por su ID
func (p *MediaPreview) FindFormat(formatID string) (Format, bool) {
	if p == nil {
		return Format{}, false
	}
	for _, f := range p.Formats {
		if f.FormatID == formatID {
			return f, true
		}
	}
	return Format{}, false
}
