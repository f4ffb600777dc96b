package artwork

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPResolver resolves artworks against the gallery's record API.
type HTTPResolver struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPResolver creates a resolver for the gallery at baseURL.
func NewHTTPResolver(baseURL string, httpClient *http.Client) *HTTPResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPResolver{baseURL: baseURL, httpClient: httpClient}
}

// artworkRecord is the wire shape of a gallery artwork record.
type artworkRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Facts       string `json:"facts"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// Resolve fetches the record for idOrShortName and derives the session
// instructions. A 404 maps to NotFoundError; a record without a title is
// rejected.
func (r *HTTPResolver) Resolve(ctx context.Context, idOrShortName string) (*Context, error) {
	if idOrShortName == "" {
		return nil, fmt.Errorf("artwork: empty identifier")
	}

	u := fmt.Sprintf("%s/api/artworks/%s", r.baseURL, url.PathEscape(idOrShortName))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("artwork: resolve %q: %w", idOrShortName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{ID: idOrShortName}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("artwork: resolve %q: status %d: %s", idOrShortName, resp.StatusCode, body)
	}

	var record artworkRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("artwork: decode record: %w", err)
	}
	if record.Title == "" {
		return nil, fmt.Errorf("artwork: record %q has no title", idOrShortName)
	}

	c := &Context{
		ID:          record.ID,
		Title:       record.Title,
		Facts:       record.Facts,
		Description: record.Description,
		ImageURL:    record.ImageURL,
	}
	if c.ID == "" {
		c.ID = idOrShortName
	}
	c.Instructions = BuildInstructions(c)
	return c, nil
}

// Ensure HTTPResolver implements Resolver.
var _ Resolver = (*HTTPResolver)(nil)
