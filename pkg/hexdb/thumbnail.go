package hexdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Thumbnail fetches /hex-image-thumb?hex={hex}, which answers with the photo
// URL as plain text. An empty body is ErrNotFound; HTTP 500 is ErrServerError.
func (c *Client) Thumbnail(ctx context.Context, hex string) (string, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	body, err := c.get(ctx, "/hex-image-thumb?hex="+url.QueryEscape(hex), "text/plain")
	if err != nil {
		return "", err
	}

	thumb := strings.TrimSpace(string(body))
	if thumb == "" || strings.EqualFold(thumb, "n/a") {
		return "", fmt.Errorf("%w: no thumbnail for %s", ErrNotFound, hex)
	}
	return thumb, nil
}
