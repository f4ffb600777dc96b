package docent

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ImageSource fetches artwork image bytes for multimodal injection. Fetch
// returns the raw bytes and the content type reported by the source ("" if
// unknown).
type ImageSource interface {
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
}

// maxImageBytes bounds how much image data is fetched and inlined. Data
// URLs grow ~4/3 over the raw size, and control channel messages should
// stay well under transport limits.
const maxImageBytes = 8 << 20

// HTTPImageSource fetches images over HTTP(S).
type HTTPImageSource struct {
	httpClient *http.Client
}

// NewHTTPImageSource creates an image source. Pass nil to use
// http.DefaultClient.
func NewHTTPImageSource(client *http.Client) *HTTPImageSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPImageSource{httpClient: client}
}

// Fetch implements ImageSource.
func (s *HTTPImageSource) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// encodeImageDataURL inlines image bytes as a base64 data URL. The MIME
// type comes from the declared content type, falling back to sniffing the
// PNG signature; everything else is treated as JPEG.
func encodeImageDataURL(data []byte, contentType string) string {
	mime := "image/jpeg"
	switch {
	case strings.Contains(contentType, "png"):
		mime = "image/png"
	case contentType == "" && bytes.HasPrefix(data, pngMagic):
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
