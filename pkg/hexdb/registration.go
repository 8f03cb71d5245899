package hexdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// HexForRegistration maps a registration (e.g., "G-EUPT") to its Mode S hex
// via /reg-hex?reg=. The registry answers "n/a" for unknown registrations.
func (c *Client) HexForRegistration(ctx context.Context, registration string) (string, error) {
	registration = strings.ToUpper(strings.TrimSpace(registration))
	if registration == "" {
		return "", fmt.Errorf("%w: empty registration", ErrNotFound)
	}

	body, err := c.get(ctx, "/reg-hex?reg="+url.QueryEscape(registration), "text/plain")
	if err != nil {
		return "", err
	}

	hex := strings.TrimSpace(string(body))
	if hex == "" || strings.EqualFold(hex, "n/a") {
		return "", fmt.Errorf("%w: registration %s", ErrNotFound, registration)
	}
	return hex, nil
}
