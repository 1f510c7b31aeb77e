package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Fetcher retrieves raw tabular data from a remote URL with a local file
// fallback. Any remote failure, including malformed content, falls back.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (f *Fetcher) Run(ctx context.Context, url, fallbackPath string, timeout time.Duration) (*RawTable, error) {
	if url != "" {
		table, err := f.fetchRemote(ctx, url, timeout)
		if err == nil {
			slog.Debug("Source fetched", "source", url, "rows", len(table.Records))
			return table, nil
		}

		slog.Warn("Remote fetch failed, using fallback", "url", url, "fallback", fallbackPath, "error", err)

		table, fallbackErr := f.readLocal(fallbackPath)
		if fallbackErr != nil {
			return nil, fmt.Errorf("%w: remote: %v; fallback: %v", ErrSourceUnavailable, err, fallbackErr)
		}
		slog.Debug("Source fetched", "source", fallbackPath, "rows", len(table.Records))
		return table, nil
	}

	table, err := f.readLocal(fallbackPath)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback: %v", ErrSourceUnavailable, err)
	}
	slog.Debug("Source fetched", "source", fallbackPath, "rows", len(table.Records))
	return table, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, url string, timeout time.Duration) (*RawTable, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	table, err := parseCSV(data)
	if err != nil {
		return nil, err
	}
	table.Source = url

	return table, nil
}

func (f *Fetcher) readLocal(path string) (*RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback file: %w", err)
	}

	table, err := parseCSV(data)
	if err != nil {
		return nil, err
	}
	table.Source = path

	return table, nil
}

func parseCSV(data []byte) (*RawTable, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV contains no header row")
	}

	return &RawTable{
		Header:  records[0],
		Records: records[1:],
	}, nil
}
