package questionnaire

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

var errNotDataURL = errors.New("not a base64 data url")

// ParseDataURL decodes "data:<mime>;base64,<payload>".
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errNotDataURL
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return "", nil, errNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode payload: %w", err)
	}
	return mime, data, nil
}

// EncodeDataURL is the inverse of ParseDataURL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// EncodeImage reads an image file into a data URL. Files whose content is
// not sniffed as image/* are rejected.
func EncodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s: not an image (%s)", path, mime)
	}
	return EncodeDataURL(mime, data), nil
}
