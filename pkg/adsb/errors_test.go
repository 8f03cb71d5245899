package adsb

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

// TestParseRetryAfter tests Retry-After header parsing.
func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected time.Duration
	}{
		{"Empty header", "", 0},
		{"Delay seconds", "30", 30 * time.Second},
		{"Zero seconds", "0", 0},
		{"Negative (invalid)", "-10", 0},
		{"HTTP date in the past", "Wed, 21 Oct 2015 07:28:00 GMT", 0},
		{"Invalid string", "invalid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.header != "" {
				headers.Set("Retry-After", tt.header)
			}

			if result := parseRetryAfter(headers); result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestExtractRateLimitHeaders tests rate limit header extraction.
func TestExtractRateLimitHeaders(t *testing.T) {
	t.Run("Standard headers", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("X-Rate-Limit-Limit", "100")
		headers.Set("X-Rate-Limit-Remaining", "25")
		headers.Set("X-Rate-Limit-Reset", "1609459200")

		result := extractRateLimitHeaders(headers)

		if result.Limit != 100 {
			t.Errorf("Expected limit 100, got %d", result.Limit)
		}
		if result.Remaining != 25 {
			t.Errorf("Expected remaining 25, got %d", result.Remaining)
		}
		if !result.Reset.Equal(time.Unix(1609459200, 0)) {
			t.Errorf("Expected reset %v, got %v", time.Unix(1609459200, 0), result.Reset)
		}
	})

	t.Run("Alternative header names", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("X-RateLimit-Limit", "200")
		headers.Set("X-RateLimit-Remaining", "50")

		result := extractRateLimitHeaders(headers)

		if result.Limit != 200 {
			t.Errorf("Expected limit 200, got %d", result.Limit)
		}
		if result.Remaining != 50 {
			t.Errorf("Expected remaining 50, got %d", result.Remaining)
		}
	})

	t.Run("Missing headers", func(t *testing.T) {
		result := extractRateLimitHeaders(http.Header{})

		if result.Limit != -1 {
			t.Errorf("Expected limit -1, got %d", result.Limit)
		}
		if result.Remaining != -1 {
			t.Errorf("Expected remaining -1, got %d", result.Remaining)
		}
	})
}

// TestRateLimitError tests rate limit error handling.
func TestRateLimitError(t *testing.T) {
	t.Run("Error message with retry after", func(t *testing.T) {
		err := &RateLimitError{
			StatusCode: 429,
			RetryAfter: 30 * time.Second,
			Message:    "Rate limit exceeded",
		}

		expected := "Rate limit exceeded (retry after 30s)"
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
		if err.RetryAfterDelay() != 30*time.Second {
			t.Errorf("Expected RetryAfterDelay 30s, got %v", err.RetryAfterDelay())
		}
	})

	t.Run("IsRateLimitError check", func(t *testing.T) {
		wrapped := fmt.Errorf("poll: %w", &RateLimitError{StatusCode: 429})
		rle, ok := IsRateLimitError(wrapped)
		if !ok {
			t.Fatal("Expected true for wrapped RateLimitError")
		}
		if rle.StatusCode != 429 {
			t.Errorf("Expected status 429, got %d", rle.StatusCode)
		}

		if _, ok := IsRateLimitError(fmt.Errorf("normal error")); ok {
			t.Error("Expected false for normal error")
		}
	})
}
