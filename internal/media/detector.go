package media

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrEmptyURL se retorna cuando la URL está vacía o solo tiene espacios
var ErrEmptyURL = errors.New("url is empty")

// PlatformOther es la plataforma de cualquier URL no reconocida
const PlatformOther = "other"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// DetectPlatform detecta la plataforma desde la URL
func DetectPlatform(urlStr string) string {
	urlStr = strings.ToLower(urlStr)

	switch {
	case strings.Contains(urlStr, "youtube.com"), strings.Contains(urlStr, "youtu.be"):
		return "youtube"
	case strings.Contains(urlStr, "twitter.com"), strings.Contains(urlStr, "x.com"):
		return "twitter"
	case strings.Contains(urlStr, "instagram.com"):
		return "instagram"
	case strings.Contains(urlStr, "pinterest."), strings.Contains(urlStr, "pin.it"):
		return "pinterest"
	case strings.Contains(urlStr, "tiktok.com"):
		return "tiktok"
	case strings.Contains(urlStr, "vimeo.com"):
		return "vimeo"
	case strings.Contains(urlStr, "reddit.com"):
		return "reddit"
	default:
		return PlatformOther
	}
}

// NormalizeURL limpia la entrada del usuario.
// Retorna ErrEmptyURL si no queda nada después de recortar espacios.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyURL
	}
	return s, nil
}

// IsHTTPURL verifica que la URL sea absoluta http(s)
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SanitizeFilename sanitiza un string para usarlo como nombre de archivo
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, ".")

	// Limitar longitud conservando la extensión
	if len(s) > 120 {
		ext := ""
		if i := strings.LastIndex(s, "."); i > 0 && len(s)-i <= 10 {
			ext = s[i:]
		}
		s = s[:120-len(ext)] + ext
	}

	return s
}
