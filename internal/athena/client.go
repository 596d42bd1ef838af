// Package athena implements the query backend port against AWS Athena.
package athena

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sensor-dash/internal/config"
	"sensor-dash/internal/domain"
)

// Compile-time check: Client implements the query backend port.
var _ domain.QueryBackend = (*Client)(nil)

// Client wraps the Athena SDK with the database and result location the
// telemetry queries run against.
type Client struct {
	athena         *athena.Client
	s3             *s3.Client
	database       string
	workgroup      string
	outputLocation string
}

// NewClient builds an Athena client from config. Static credentials are used
// when configured; otherwise the SDK's default credential chain applies.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	c := &Client{
		database:       cfg.AthenaDatabase,
		workgroup:      cfg.AthenaWorkgroup,
		outputLocation: cfg.OutputLocation,
	}

	if cfg.HasStaticCredentials() {
		creds := credentials.NewStaticCredentialsProvider(*cfg.AWSKeyID, *cfg.AWSSecret, "")
		c.athena = athena.New(athena.Options{Region: cfg.AthenaRegion, Credentials: creds})
		c.s3 = s3.New(s3.Options{Region: cfg.AthenaRegion, Credentials: creds})
		return c, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AthenaRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	c.athena = athena.NewFromConfig(awsCfg)
	c.s3 = s3.NewFromConfig(awsCfg)
	return c, nil
}

// StartQuery submits sql to Athena and returns the query execution ID.
func (c *Client) StartQuery(ctx context.Context, sql string) (string, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString:           aws.String(sql),
		QueryExecutionContext: &types.QueryExecutionContext{Database: aws.String(c.database)},
		ResultConfiguration:   &types.ResultConfiguration{OutputLocation: aws.String(c.outputLocation)},
	}
	if c.workgroup != "" {
		input.WorkGroup = aws.String(c.workgroup)
	}

	out, err := c.athena.StartQueryExecution(ctx, input)
	if err != nil {
		return "", fmt.Errorf("start query execution: %w", err)
	}
	return aws.ToString(out.QueryExecutionId), nil
}

// QueryStatus polls one query execution and maps Athena's state onto the
// domain enum. QUEUED and RUNNING both report as PENDING.
func (c *Client) QueryStatus(ctx context.Context, executionID string) (domain.ExecutionStatus, error) {
	out, err := c.athena.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(executionID),
	})
	if err != nil {
		return domain.ExecutionStatus{}, fmt.Errorf("get query execution %s: %w", executionID, err)
	}
	if out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return domain.ExecutionStatus{}, fmt.Errorf("get query execution %s: empty status", executionID)
	}

	status := out.QueryExecution.Status
	st := domain.ExecutionStatus{Reason: aws.ToString(status.StateChangeReason)}
	switch status.State {
	case types.QueryExecutionStateSucceeded:
		st.State = domain.QueryStatusSucceeded
	case types.QueryExecutionStateFailed:
		st.State = domain.QueryStatusFailed
	case types.QueryExecutionStateCancelled:
		st.State = domain.QueryStatusCancelled
	default: // QUEUED, RUNNING
		st.State = domain.QueryStatusPending
	}
	if st.Reason == "" && status.AthenaError != nil {
		st.Reason = aws.ToString(status.AthenaError.ErrorMessage)
	}
	return st, nil
}

// QueryResults fetches the full result set in one call. The dashboard
// queries are small aggregates, so pagination is deliberately not handled.
func (c *Client) QueryResults(ctx context.Context, executionID string) ([][]*string, error) {
	out, err := c.athena.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(executionID),
	})
	if err != nil {
		return nil, fmt.Errorf("get query results %s: %w", executionID, err)
	}
	if out.ResultSet == nil {
		return nil, nil
	}

	rows := make([][]*string, 0, len(out.ResultSet.Rows))
	for _, r := range out.ResultSet.Rows {
		cells := make([]*string, len(r.Data))
		for i, d := range r.Data {
			cells[i] = d.VarCharValue
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// CheckOutputLocation probes the results bucket with a HeadBucket call so a
// misconfigured output location surfaces at startup instead of on the first
// dashboard load.
func (c *Client) CheckOutputLocation(ctx context.Context) error {
	bucket, err := bucketFromS3Path(c.outputLocation)
	if err != nil {
		return err
	}
	if _, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("head bucket %q: %w", bucket, err)
	}
	return nil
}

// bucketFromS3Path extracts the bucket from an "s3://bucket/prefix/" URI.
func bucketFromS3Path(s3Path string) (string, error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", fmt.Errorf("parse S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("empty bucket in S3 path %q", s3Path)
	}
	return u.Host, nil
}
