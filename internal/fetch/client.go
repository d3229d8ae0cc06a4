// Package fetch downloads the remote CSV data sources and parses them into
// gota DataFrames. All columns are loaded as strings; type coercion is the
// loaders' job, where schema errors can be reported per column.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Client fetches CSV tables over HTTP with a bounded timeout.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new CSV fetch client. Every request is bounded by
// timeout; transient failures (transport errors, 5xx) are retried with a
// linearly growing delay.
func NewClient(timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchCSV retrieves the CSV document at url and parses it into a DataFrame.
// The frame's columns are all string-typed. Any failure, including an
// empty or unparseable body, is returned as an error: the caller treats a
// failed fetch as fatal for the run.
func (c *Client) FetchCSV(ctx context.Context, url string) (dataframe.DataFrame, error) {
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	df := dataframe.ReadCSV(resp.Body,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Error() != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse CSV from %s: %w", url, df.Error())
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("empty table from %s", url)
	}

	return df, nil
}

// doRequest performs the HTTP request with retry on transient failures.
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "text/csv")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i+1)):
			}
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i+1)):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
