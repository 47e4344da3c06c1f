package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-cmp/cmp"
)

// Sentinel errors for this package.
var (
	ErrCheckFailed   = errors.New("probe check failed")
	ErrInvalidConfig = errors.New("invalid probe config")
)

// checkHealth verifies /healthcheck reports healthy.
func checkHealth(ctx context.Context, c *HTTPClient) error {
	var body statusResponse
	if _, err := c.getJSON(ctx, "/healthcheck", http.StatusOK, &body); err != nil {
		return err
	}
	if body.Status != HealthyStatus {
		return fmt.Errorf("%w: status %q, want %q", ErrCheckFailed, body.Status, HealthyStatus)
	}
	return nil
}

// checkMessage verifies path answers with a non-empty message.
func checkMessage(ctx context.Context, c *HTTPClient, path string) error {
	var body messageResponse
	if _, err := c.getJSON(ctx, path, http.StatusOK, &body); err != nil {
		return err
	}
	if body.Message == "" {
		return fmt.Errorf("%w: GET %s returned an empty message", ErrCheckFailed, path)
	}
	return nil
}

// listRecords fetches the collection and verifies its size.
func listRecords(ctx context.Context, c *HTTPClient) ([]Record, error) {
	var records []Record
	if _, err := c.getJSON(ctx, "/api/examples", http.StatusOK, &records); err != nil {
		return nil, err
	}
	if len(records) != ExpectedRecords {
		return nil, fmt.Errorf("%w: listed %d records, want %d", ErrCheckFailed, len(records), ExpectedRecords)
	}
	return records, nil
}

// checkRecord verifies a single fetch returns exactly the listed record.
func checkRecord(ctx context.Context, c *HTTPClient, want Record) error {
	var got Record
	path := "/api/examples/" + url.PathEscape(want.ID)
	if _, err := c.getJSON(ctx, path, http.StatusOK, &got); err != nil {
		return err
	}
	if diff := cmp.Diff(want, got); diff != "" {
		return fmt.Errorf("%w: GET %s mismatch (-listed +fetched):\n%s", ErrCheckFailed, path, diff)
	}
	return nil
}

// checkNotFound verifies an unknown id yields 404 with a detail.
func checkNotFound(ctx context.Context, c *HTTPClient, id string) error {
	var body errorResponse
	path := "/api/examples/" + url.PathEscape(id)
	if _, err := c.getJSON(ctx, path, http.StatusNotFound, &body); err != nil {
		return err
	}
	if body.Detail == "" {
		return fmt.Errorf("%w: GET %s returned 404 without detail", ErrCheckFailed, path)
	}
	return nil
}
