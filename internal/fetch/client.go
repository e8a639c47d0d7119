// Package fetch acquires daily agroclimatology series from the NASA
// POWER API. It is the external data-acquisition collaborator for the
// index pipeline: it hands back climate.Location values and carries all
// retry, backoff and rate limiting itself.
package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"acvicli/internal/climate"
)

// DefaultBaseURL is the NASA POWER daily point endpoint.
const DefaultBaseURL = "https://power.larc.nasa.gov/api/temporal/daily/point"

const (
	community   = "AG"
	maxAttempts = 3
	retryDelay  = 2 * time.Second
	// Base delay after a 429; grows by throttleStep per attempt.
	throttleDelay = 5 * time.Second
	throttleStep  = 2 * time.Second
)

// Config controls the acquisition client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RatePerSec  float64
	Concurrency int
}

// DefaultConfig matches the service's published fair-use limits.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     90 * time.Second,
		RatePerSec:  2,
		Concurrency: 4,
	}
}

// Client downloads daily series for sites. Safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter
	concurrency int
	logger      *slog.Logger
}

// NewClient creates an acquisition client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
}

// Fetch downloads the daily series for one site over [start, end].
func (c *Client) Fetch(ctx context.Context, site Site, start, end time.Time) (*climate.TimeSeries, error) {
	params := make([]string, 0, len(climate.BaseParameters()))
	for _, p := range climate.BaseParameters() {
		params = append(params, string(p))
	}

	query := url.Values{}
	query.Set("parameters", strings.Join(params, ","))
	query.Set("community", community)
	query.Set("longitude", strconv.FormatFloat(site.Lon, 'f', -1, 64))
	query.Set("latitude", strconv.FormatFloat(site.Lat, 'f', -1, 64))
	query.Set("start", start.Format("20060102"))
	query.Set("end", end.Format("20060102"))
	query.Set("format", "CSV")
	endpoint := c.baseURL + "?" + query.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		series, retryable, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return series, nil
		}
		lastErr = err
		if !retryable || attempt == maxAttempts {
			break
		}

		delay := retryDelay
		if strings.Contains(err.Error(), "429") {
			delay = throttleDelay + time.Duration(attempt-1)*throttleStep
		}
		c.logger.WarnContext(ctx, "retrying download",
			"site", site.ID,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", site.ID, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) (*climate.TimeSeries, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("status 429")
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode >= 500, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	series, err := ParseDailyCSV(string(body))
	if err != nil {
		return nil, false, err
	}
	return series, false, nil
}

// FetchAll downloads every site in parallel and returns the successful
// locations sorted by the input order. Sites that fail after retries are
// logged and skipped; the call errors only when nothing succeeds.
func (c *Client) FetchAll(ctx context.Context, sites []Site, start, end time.Time) ([]climate.Location, error) {
	slots := make([]*climate.Location, len(sites))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			series, err := c.Fetch(gctx, site, start, end)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.ErrorContext(gctx, "download failed",
					"site", site.ID,
					"error", err,
				)
				return nil
			}
			slots[i] = &climate.Location{ID: site.ID, Lat: site.Lat, Lon: site.Lon, Series: series}
			c.logger.InfoContext(gctx, "downloaded site",
				"site", site.ID,
				"records", series.Len(),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	locations := make([]climate.Location, 0, len(sites))
	for _, loc := range slots {
		if loc != nil {
			locations = append(locations, *loc)
		}
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("all %d site downloads failed", len(sites))
	}
	return locations, nil
}

// ParseDailyCSV parses the POWER daily CSV payload. The payload opens
// with a free-text preamble; the tabular part starts at the line naming
// both the YEAR and DOY columns. The -999 sentinel becomes NaN.
func ParseDailyCSV(payload string) (*climate.TimeSeries, error) {
	lines := strings.Split(payload, "\n")
	headerIdx := -1
	for i, line := range lines {
		if strings.Contains(line, "YEAR") && strings.Contains(line, "DOY") {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("tabular header not found in payload")
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines[headerIdx:], "\n")))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	yearCol, doyCol := -1, -1
	var params []climate.Parameter
	paramCols := make([]int, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch name {
		case "YEAR":
			yearCol = i
		case "DOY":
			doyCol = i
		default:
			params = append(params, climate.Parameter(name))
			paramCols = append(paramCols, i)
		}
	}
	if yearCol == -1 || doyCol == -1 {
		return nil, fmt.Errorf("YEAR/DOY columns missing")
	}

	var dates []time.Time
	columns := make(map[climate.Parameter][]float64, len(params))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		year, err := strconv.Atoi(strings.TrimSpace(record[yearCol]))
		if err != nil {
			return nil, fmt.Errorf("parse year %q: %w", record[yearCol], err)
		}
		doy, err := strconv.Atoi(strings.TrimSpace(record[doyCol]))
		if err != nil {
			return nil, fmt.Errorf("parse day of year %q: %w", record[doyCol], err)
		}
		dates = append(dates, time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1))

		for j, p := range params {
			cell := strings.TrimSpace(record[paramCols[j]])
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || v == climate.MissingSentinel {
				v = math.NaN()
			}
			columns[p] = append(columns[p], v)
		}
	}

	return climate.NewTimeSeries(dates, columns)
}
