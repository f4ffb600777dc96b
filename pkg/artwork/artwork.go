// Package artwork defines the resolved artwork context that seeds a
// conversation, and the resolver contract for obtaining it.
package artwork

import (
	"context"
	"fmt"
)

// Context is a read-only snapshot of one artwork, resolved immediately
// before a session. It is never mutated in place; a new session re-resolves.
type Context struct {
	// ID is the opaque identifier or short-name the record was resolved by.
	ID string `json:"id"`

	// Title is the artwork title. Always non-empty for a valid context.
	Title string `json:"title"`

	// Facts is curator-supplied descriptive text. May be empty.
	Facts string `json:"facts,omitzero"`

	// Description is a longer curatorial description. May be empty.
	Description string `json:"description,omitzero"`

	// ImageURL optionally references an image of the artwork.
	ImageURL string `json:"image_url,omitzero"`

	// Instructions is the narrative prompt derived from the fields above.
	Instructions string `json:"-"`
}

// Resolver resolves an artwork identifier or short-name into a Context.
type Resolver interface {
	Resolve(ctx context.Context, idOrShortName string) (*Context, error)
}

// NotFoundError indicates the identifier matched no artwork record.
type NotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artwork: %q not found", e.ID)
}
