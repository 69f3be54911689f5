// Package warehouse wraps a cloud data-warehouse client with the retry
// semantics the rest of the application relies on: a bounded retry loop
// around query submission that absorbs transient access-denied responses,
// and exponential-backoff polling for load-job completion. The client itself
// is an injected collaborator; this package only depends on the contract
// below.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// QueryConfig describes one SQL statement to submit.
type QueryConfig struct {
	SQL          string
	Params       map[string]any
	UseLegacySQL bool
}

// DataFormat names the wire format of load-job source data.
type DataFormat string

const (
	CSV  DataFormat = "CSV"
	JSON DataFormat = "NEWLINE_DELIMITED_JSON"
)

// LoadConfig describes a data-load job reading rows from Source.
type LoadConfig struct {
	Dataset         string
	Table           string
	Source          io.Reader
	Format          DataFormat
	SkipLeadingRows int
}

// FieldSchema is one column of a table or result schema.
type FieldSchema struct {
	Name string
	Type string
}

type Schema []FieldSchema

// Row holds one result row, values ordered as the schema's fields.
type Row []any

// QueryResult is a fully materialized select result.
type QueryResult struct {
	Schema Schema
	Rows   []Row
}

// JobError is the error-result metadata a failed job carries.
type JobError struct {
	Reason   string
	Location string
	Message  string
}

// JobStatus is a snapshot of a job's remote state, refreshed by Reload.
type JobStatus struct {
	Done        bool
	ErrorResult *JobError
}

// Job is a handle to an asynchronous warehouse operation (query or load)
// that can be polled for completion and inspected for an error result.
type Job interface {
	// Complete reports whether the job finished, per the last Reload.
	Complete() bool
	// Reload refreshes the job's status from the remote side.
	Reload(ctx context.Context) error
	// Status returns the last observed status snapshot.
	Status() JobStatus
	// Result materializes the rows of a finished select job.
	Result(ctx context.Context) (*QueryResult, error)
}

// Client is the remote surface the service needs. Implementations adapt a
// concrete warehouse SDK; tests substitute fakes.
type Client interface {
	RunQuery(ctx context.Context, cfg QueryConfig) (Job, error)
	Load(ctx context.Context, cfg LoadConfig) (Job, error)
	TableSchema(ctx context.Context, dataset, table string) (Schema, error)
	Close() error
}

// RemoteError is a failure reported by the warehouse API, carrying the
// HTTP-level status code the retry policy keys on.
type RemoteError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("warehouse: remote error %d (%s): %s", e.StatusCode, e.Reason, e.Message)
}

// IsForbidden reports whether err is an access-denied remote error, the only
// class the query retry loop treats as transient.
func IsForbidden(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusForbidden
}
