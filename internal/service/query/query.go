// Package query implements the async query proxy: it submits one SQL
// statement to the backend engine, polls for completion within a bounded
// wait, fetches the tabular result, and coerces it into typed rows.
package query

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"sensor-dash/internal/domain"
)

// Default poll timings; overridable via Options.
const (
	defaultMaxWait      = 30 * time.Second
	defaultPollInterval = time.Second
)

// identifierColumns are preserved as strings when a cell fails numeric
// parsing. Every other non-numeric cell coerces to 0.0 — lossy, but it is
// what the dashboard has always been shown.
var identifierColumns = map[string]struct{}{
	"device":    {},
	"device_id": {},
	"alert_key": {},
}

// Options tune the proxy's poll loop.
type Options struct {
	MaxWait      time.Duration  // wait budget per query (default 30s)
	PollInterval time.Duration  // status poll interval (default 1s)
	Sleep        domain.Sleeper // injectable sleep (default domain.SleepContext)
}

// Service is the async query proxy. Every Run re-submits the query; results
// are never cached across invocations.
type Service struct {
	backend      domain.QueryBackend
	maxWait      time.Duration
	pollInterval time.Duration
	sleep        domain.Sleeper
	logger       *slog.Logger
}

// NewService creates a query proxy over the given backend.
func NewService(backend domain.QueryBackend, opts Options, logger *slog.Logger) *Service {
	if opts.MaxWait <= 0 {
		opts.MaxWait = defaultMaxWait
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Sleep == nil {
		opts.Sleep = domain.SleepContext
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:      backend,
		maxWait:      opts.MaxWait,
		pollInterval: opts.PollInterval,
		sleep:        opts.Sleep,
		logger:       logger,
	}
}

// Run executes sql against the backend and returns coerced result rows.
// A header-only result set is an empty success. All failure modes come back
// as *domain.QueryError; Run never panics past this boundary.
func (s *Service) Run(ctx context.Context, sql string) ([]domain.ResultRow, error) {
	executionID, err := s.backend.StartQuery(ctx, sql)
	if err != nil {
		s.logger.Error("query submission failed", "error", err)
		return nil, domain.ErrQuerySubmission("submit query: %s", err.Error())
	}

	status, err := s.awaitCompletion(ctx, executionID)
	if err != nil {
		return nil, err
	}

	switch status.State {
	case domain.QueryStatusSucceeded:
		// fall through to fetch
	case domain.QueryStatusFailed, domain.QueryStatusCancelled:
		reason := status.Reason
		if reason == "" {
			reason = "Unknown"
		}
		s.logger.Error("query did not succeed", "execution_id", executionID, "state", status.State, "reason", reason)
		return nil, domain.ErrQueryExecution("query %s: %s", status.State, reason)
	default:
		s.logger.Warn("query timed out", "execution_id", executionID, "max_wait", s.maxWait)
		return nil, domain.ErrQueryTimeout("query timeout after %s", s.maxWait)
	}

	raw, err := s.backend.QueryResults(ctx, executionID)
	if err != nil {
		s.logger.Error("fetch query results failed", "execution_id", executionID, "error", err)
		return nil, domain.ErrQueryTransport("fetch results: %s", err.Error())
	}
	if len(raw) <= 1 {
		s.logger.Info("query returned no data rows", "execution_id", executionID)
		return []domain.ResultRow{}, nil
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		if h != nil {
			headers[i] = *h
		}
	}

	rows := make([]domain.ResultRow, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		rows = append(rows, coerceRow(headers, cells))
	}

	s.logger.Info("query succeeded", "execution_id", executionID, "row_count", len(rows))
	return rows, nil
}

// awaitCompletion polls until the execution leaves PENDING or the wait
// budget is exhausted. The returned status is still PENDING on timeout.
func (s *Service) awaitCompletion(ctx context.Context, executionID string) (domain.ExecutionStatus, error) {
	var status domain.ExecutionStatus
	waited := time.Duration(0)

	for {
		var err error
		status, err = s.backend.QueryStatus(ctx, executionID)
		if err != nil {
			s.logger.Error("query status poll failed", "execution_id", executionID, "error", err)
			return status, domain.ErrQueryTransport("poll status: %s", err.Error())
		}
		if status.State != domain.QueryStatusPending {
			return status, nil
		}
		if waited >= s.maxWait {
			return status, nil
		}
		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return status, domain.ErrQueryTransport("poll interrupted: %s", err.Error())
		}
		waited += s.pollInterval
	}
}

// coerceRow maps one raw result row onto column names with the dashboard's
// coercion rules: numeric parse first, identifier columns stay strings, and
// anything else non-numeric becomes 0.0. Nil cells take the non-numeric path.
func coerceRow(headers []string, cells []*string) domain.ResultRow {
	row := make(domain.ResultRow, len(cells))
	for i, cell := range cells {
		if i >= len(headers) {
			break
		}
		header := headers[i]

		if cell != nil {
			if f, err := strconv.ParseFloat(*cell, 64); err == nil {
				row[header] = f
				continue
			}
		}
		if _, ok := identifierColumns[header]; ok {
			if cell != nil {
				row[header] = *cell
			} else {
				row[header] = ""
			}
			continue
		}
		row[header] = 0.0
	}
	return row
}
