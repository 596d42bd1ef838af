package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-dash/internal/domain"
)

// === Fakes ===

// fakeBackend scripts the backend's behavior: a sequence of polled statuses
// (the last one repeats) and a fixed result set.
type fakeBackend struct {
	startErr   error
	statusErr  error
	resultsErr error

	statuses []domain.ExecutionStatus
	results  [][]*string

	startCalls  int
	statusCalls int
	resultCalls int
}

func (f *fakeBackend) StartQuery(_ context.Context, _ string) (string, error) {
	f.startCalls++
	if f.startErr != nil {
		return "", f.startErr
	}
	return "exec-1", nil
}

func (f *fakeBackend) QueryStatus(_ context.Context, _ string) (domain.ExecutionStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return domain.ExecutionStatus{}, f.statusErr
	}
	idx := f.statusCalls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return f.statuses[idx], nil
}

func (f *fakeBackend) QueryResults(_ context.Context, _ string) ([][]*string, error) {
	f.resultCalls++
	if f.resultsErr != nil {
		return nil, f.resultsErr
	}
	return f.results, nil
}

// fakeSleeper records total simulated sleep instead of blocking.
type fakeSleeper struct {
	slept time.Duration
	calls int
}

func (f *fakeSleeper) sleep(_ context.Context, d time.Duration) error {
	f.calls++
	f.slept += d
	return nil
}

func strPtr(s string) *string { return &s }

func pending() domain.ExecutionStatus {
	return domain.ExecutionStatus{State: domain.QueryStatusPending}
}

func succeeded() domain.ExecutionStatus {
	return domain.ExecutionStatus{State: domain.QueryStatusSucceeded}
}

func newTestService(backend domain.QueryBackend, sleep domain.Sleeper) *Service {
	return NewService(backend, Options{
		MaxWait:      30 * time.Second,
		PollInterval: time.Second,
		Sleep:        sleep,
	}, nil)
}

// === Tests ===

func TestRun_SucceededWithRows(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		statuses: []domain.ExecutionStatus{pending(), pending(), succeeded()},
		results: [][]*string{
			{strPtr("device"), strPtr("co"), strPtr("temp")},
			{strPtr("b8:27:eb:bf:9d:51"), strPtr("0.004"), strPtr("22.5")},
			{strPtr("1c:bf:ce:15:ec:4d"), strPtr("0.0051"), strPtr("21")},
		},
	}
	sleeper := &fakeSleeper{}
	svc := newTestService(backend, sleeper.sleep)

	rows, err := svc.Run(context.Background(), "SELECT 1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.ResultRow{"device": "b8:27:eb:bf:9d:51", "co": 0.004, "temp": 22.5}, rows[0])
	assert.Equal(t, domain.ResultRow{"device": "1c:bf:ce:15:ec:4d", "co": 0.0051, "temp": 21.0}, rows[1])
	assert.Equal(t, 2, sleeper.calls, "one sleep per PENDING observation")
}

func TestRun_HeaderOnlyIsEmptySuccess(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		statuses: []domain.ExecutionStatus{succeeded()},
		results:  [][]*string{{strPtr("device"), strPtr("avg_co")}},
	}
	svc := newTestService(backend, (&fakeSleeper{}).sleep)

	rows, err := svc.Run(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRun_NilResultSetIsEmptySuccess(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{statuses: []domain.ExecutionStatus{succeeded()}}
	svc := newTestService(backend, (&fakeSleeper{}).sleep)

	rows, err := svc.Run(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRun_FailedStopsBeforeBudget(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		statuses: []domain.ExecutionStatus{
			pending(),
			{State: domain.QueryStatusFailed, Reason: "SYNTAX_ERROR: line 1"},
		},
	}
	sleeper := &fakeSleeper{}
	svc := newTestService(backend, sleeper.sleep)

	_, err := svc.Run(context.Background(), "SELECT nope")
	var qerr *domain.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, domain.QueryErrorExecution, qerr.Kind)
	assert.Contains(t, qerr.Message, "FAILED")
	assert.Contains(t, qerr.Message, "SYNTAX_ERROR: line 1")
	assert.Less(t, sleeper.slept, 30*time.Second, "must not exhaust the wait budget")
	assert.Zero(t, backend.resultCalls, "no fetch after failure")
}

func TestRun_CancelledReportsReason(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		statuses: []domain.ExecutionStatus{{State: domain.QueryStatusCancelled}},
	}
	svc := newTestService(backend, (&fakeSleeper{}).sleep)

	_, err := svc.Run(context.Background(), "SELECT 1")
	var qerr *domain.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, domain.QueryErrorExecution, qerr.Kind)
	// Empty backend reason falls back to Unknown.
	assert.Contains(t, qerr.Message, "CANCELLED: Unknown")
}

func TestRun_TimeoutExactlyAtBudget(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{statuses: []domain.ExecutionStatus{pending()}}
	sleeper := &fakeSleeper{}
	svc := newTestService(backend, sleeper.sleep)

	_, err := svc.Run(context.Background(), "SELECT 1")
	var qerr *domain.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, domain.QueryErrorTimeout, qerr.Kind)
	assert.Equal(t, 30*time.Second, sleeper.slept, "timeout exactly when the budget is exhausted")
	assert.Equal(t, 31, backend.statusCalls, "one poll per interval plus the final check")
	assert.Zero(t, backend.resultCalls)
}

func TestRun_SubmissionError(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{startErr: errors.New("AccessDeniedException: not authorized")}
	svc := newTestService(backend, (&fakeSleeper{}).sleep)

	_, err := svc.Run(context.Background(), "SELECT 1")
	var qerr *domain.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, domain.QueryErrorSubmission, qerr.Kind)
	assert.Contains(t, qerr.Message, "AccessDeniedException")
	assert.Zero(t, backend.statusCalls)
}

func TestRun_PollTransportError(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{statusErr: errors.New("connection reset")}
	svc := newTestService(backend, (&fakeSleeper{}).sleep)

	_, err := svc.Run(context.Background(), "SELECT 1")
	var qerr *domain.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, domain.QueryErrorTransport, qerr.Kind)
}

func TestRun_FetchTransportError(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		statuses:   []domain.ExecutionStatus{succeeded()},
		resultsErr: errors.New("throttled"),
	}
	svc := newTestService(backend, (&fakeSleeper{}).sleep)

	_, err := svc.Run(context.Background(), "SELECT 1")
	var qerr *domain.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, domain.QueryErrorTransport, qerr.Kind)
	assert.Contains(t, qerr.Message, "throttled")
}

func TestRun_EverySubmissionResubmits(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		statuses: []domain.ExecutionStatus{succeeded()},
		results:  [][]*string{{strPtr("device")}},
	}
	svc := newTestService(backend, (&fakeSleeper{}).sleep)

	for i := 0; i < 3; i++ {
		_, err := svc.Run(context.Background(), "SELECT 1")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, backend.startCalls, "no result caching across invocations")
}

func TestCoerceRow(t *testing.T) {
	t.Parallel()

	headers := []string{"device", "device_id", "alert_key", "co", "smoke", "temp", "note"}

	tests := []struct {
		name  string
		cells []*string
		want  domain.ResultRow
	}{
		{
			name: "numeric parse wins everywhere",
			cells: []*string{
				strPtr("12.5"), strPtr("7"), strPtr("3"),
				strPtr("0.1305"), strPtr("0.025"), strPtr("28.0"), strPtr("-1e3"),
			},
			want: domain.ResultRow{
				"device": 12.5, "device_id": 7.0, "alert_key": 3.0,
				"co": 0.1305, "smoke": 0.025, "temp": 28.0, "note": -1000.0,
			},
		},
		{
			name: "identifiers stay strings, other columns collapse to zero",
			cells: []*string{
				strPtr("b8:27:eb:bf:9d:51"), strPtr("b8:27:eb:bf:9d:51"), strPtr("tent1_co"),
				strPtr("n/a"), strPtr("err"), strPtr("12.5"), strPtr("hot"),
			},
			want: domain.ResultRow{
				"device": "b8:27:eb:bf:9d:51", "device_id": "b8:27:eb:bf:9d:51", "alert_key": "tent1_co",
				"co": 0.0, "smoke": 0.0, "temp": 12.5, "note": 0.0,
			},
		},
		{
			name:  "nil cells follow the non-numeric path",
			cells: []*string{nil, nil, nil, nil, nil, nil, nil},
			want: domain.ResultRow{
				"device": "", "device_id": "", "alert_key": "",
				"co": 0.0, "smoke": 0.0, "temp": 0.0, "note": 0.0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, coerceRow(headers, tt.cells))
		})
	}
}

func TestCoerceRow_ExtraCellsIgnored(t *testing.T) {
	t.Parallel()

	row := coerceRow([]string{"co"}, []*string{strPtr("0.1"), strPtr("orphan")})
	assert.Equal(t, domain.ResultRow{"co": 0.1}, row)
}
