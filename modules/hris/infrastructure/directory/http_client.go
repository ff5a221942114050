package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/pkg/configuration"
)

// HTTPClient talks to the HR directory's REST API. Requests carry a bearer
// token; transient failures (network errors, 5xx, 429) are retried with
// backoff up to maxRetries, credential failures are surfaced immediately as
// AuthError.
type HTTPClient struct {
	baseURL    string
	token      string
	client     *http.Client
	maxRetries int
	pageSize   int
	log        *logrus.Logger
}

func NewHTTPClient(opts configuration.DirectoryOptions, log *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    opts.BaseURL,
		token:      opts.APIToken,
		client:     &http.Client{Timeout: opts.FetchTimeout},
		maxRetries: opts.MaxRetries,
		pageSize:   opts.PageSize,
		log:        log,
	}
}

// NewClientFromConfig selects the directory client implementation by
// configuration. The orchestrator only ever sees the interface.
func NewClientFromConfig(conf *configuration.Configuration, log *logrus.Logger) (directory.Client, error) {
	switch conf.Directory.Driver {
	case "http":
		return NewHTTPClient(conf.Directory, log), nil
	case "mock":
		return NewMockClient(SeedRecords()), nil
	default:
		return nil, errors.Errorf("unknown directory driver %q", conf.Directory.Driver)
	}
}

type employeesPage struct {
	Employees  []directory.ExternalRecord `json:"employees"`
	Page       int                        `json:"page"`
	TotalPages int                        `json:"total_pages"`
}

func (c *HTTPClient) FetchAll(ctx context.Context, statusFilter *directory.Status) ([]directory.ExternalRecord, error) {
	query := url.Values{}
	if statusFilter != nil {
		query.Set("status", string(*statusFilter))
	}
	return c.fetchPaged(ctx, query)
}

func (c *HTTPClient) FetchSince(ctx context.Context, since time.Time) ([]directory.ExternalRecord, error) {
	query := url.Values{}
	query.Set("updated_since", since.UTC().Format(time.RFC3339))
	return c.fetchPaged(ctx, query)
}

func (c *HTTPClient) FetchOne(ctx context.Context, externalID string) (*directory.ExternalRecord, error) {
	var record directory.ExternalRecord
	status, err := c.getJSON(ctx, "/api/v1/employees/"+url.PathEscape(externalID), nil, &record)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, directory.ErrRecordNotFound
	}
	if err := record.Validate(); err != nil {
		return nil, errors.Wrap(err, "fetch one")
	}
	return &record, nil
}

func (c *HTTPClient) TestConnection(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	status, err := c.getJSON(ctx, "/api/v1/ping", nil, &out)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &directory.UnavailableError{Cause: errors.Errorf("ping returned status %d", status)}
	}
	return nil
}

func (c *HTTPClient) fetchPaged(ctx context.Context, query url.Values) ([]directory.ExternalRecord, error) {
	var all []directory.ExternalRecord
	query.Set("per_page", strconv.Itoa(c.pageSize))

	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))

		var body employeesPage
		status, err := c.getJSON(ctx, "/api/v1/employees", query, &body)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, &directory.UnavailableError{
				Cause: errors.Errorf("employees endpoint returned status %d", status),
			}
		}
		for _, record := range body.Employees {
			if err := record.Validate(); err != nil {
				// Malformed rows are skipped here and will show up as
				// discrepancies in the next full sync; they must not sink
				// the whole fetch.
				c.log.WithError(err).WithField("external_id", record.ExternalID).
					Warn("skipping malformed directory record")
				continue
			}
			all = append(all, record)
		}
		if body.TotalPages == 0 || page >= body.TotalPages {
			return all, nil
		}
	}
}

// getJSON performs one GET with bounded retries. It returns the final HTTP
// status for the caller to interpret; 401/403 and retry exhaustion come back
// as errors.
func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) (int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return 0, &directory.UnavailableError{Cause: ctx.Err()}
			case <-time.After(backoff(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return 0, errors.Wrap(err, "build directory request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).WithFields(logrus.Fields{
				"endpoint": path,
				"attempt":  attempt,
			}).Warn("directory request failed")
			continue
		}

		status, err := c.handleResponse(resp, out)
		if err == nil {
			return status, nil
		}
		var authErr *directory.AuthError
		if errors.As(err, &authErr) {
			return status, err
		}
		lastErr = err
		c.log.WithError(err).WithFields(logrus.Fields{
			"endpoint": path,
			"attempt":  attempt,
		}).Warn("directory request failed")
	}

	return 0, &directory.UnavailableError{
		Cause: fmt.Errorf("%s failed after %d attempts: %w", path, c.maxRetries, lastErr),
	}
}

func (c *HTTPClient) handleResponse(resp *http.Response, out any) (int, error) {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, &directory.AuthError{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
		}
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return resp.StatusCode, errors.Errorf("directory returned status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "decode directory response")
	}
	return resp.StatusCode, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt-1) * 500 * time.Millisecond
}
