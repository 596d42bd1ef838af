package domain

// QueryStatus represents the lifecycle state of a backend query execution as
// observed by polling. Queued and running both surface as PENDING; no
// client-side transition exists.
type QueryStatus string

// Query execution statuses.
const (
	QueryStatusPending   QueryStatus = "PENDING"
	QueryStatusSucceeded QueryStatus = "SUCCEEDED"
	QueryStatusFailed    QueryStatus = "FAILED"
	QueryStatusCancelled QueryStatus = "CANCELLED"
)

// ExecutionStatus is one polled observation of a query execution.
// Reason carries the backend's state-change reason for FAILED/CANCELLED.
type ExecutionStatus struct {
	State  QueryStatus
	Reason string
}

// ResultRow is one coerced record of a backend result set. Values are either
// float64 (numeric parse succeeded) or string (identifier columns).
type ResultRow map[string]interface{}

// TrendPoint is one synthetic CO trend sample.
type TrendPoint struct {
	TS     int64   `json:"ts"`
	Device string  `json:"device"`
	CO     float64 `json:"co"`
}
