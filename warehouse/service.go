package warehouse

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/unkn0wn-root/bqcache"
)

// ClientFactory builds the concrete warehouse client from validated config.
type ClientFactory func(ctx context.Context, cfg *Config) (Client, error)

// Service exposes the warehouse operations application code calls:
// query execution with bounded forbidden-retry, table truncation, CSV load
// jobs with backoff polling, and select-result shaping.
type Service struct {
	client Client
	cfg    *Config
	log    bqcache.Logger

	// seams for tests
	sleep        func(time.Duration)
	pollInterval time.Duration
}

type ServiceOptions struct {
	// Required
	Config  *Config
	Factory ClientFactory

	Logger bqcache.Logger // if nil, logging is disabled

	// PollInterval is the initial backoff interval for load-job polling.
	// 0 => 500ms.
	PollInterval time.Duration
}

// NewService validates the configuration (including the credentials file)
// and constructs the client through the factory.
func NewService(ctx context.Context, opts ServiceOptions) (*Service, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("warehouse: config is required")
	}
	if opts.Factory == nil {
		return nil, fmt.Errorf("warehouse: client factory is required")
	}
	opts.Config.applyDefaults()
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	client, err := opts.Factory(ctx, opts.Config)
	if err != nil {
		return nil, err
	}

	s := &Service{
		client: client,
		cfg:    opts.Config,
		sleep:  time.Sleep,
	}
	if opts.Logger != nil {
		s.log = opts.Logger
	} else {
		s.log = bqcache.NopLogger{}
	}
	s.pollInterval = opts.PollInterval
	if s.pollInterval <= 0 {
		s.pollInterval = 500 * time.Millisecond
	}
	return s, nil
}

// RunQuery submits cfg and returns the job handle without waiting for
// completion; use WaitForJob to block until the job finishes. Access-denied
// responses are retried up to the configured attempt budget with a fixed
// back-off between attempts; any other remote error is fatal immediately.
func (s *Service) RunQuery(ctx context.Context, cfg QueryConfig) (Job, error) {
	attempts := s.cfg.QueryAttempts
	for {
		job, err := s.client.RunQuery(ctx, cfg)
		if err == nil {
			return job, nil
		}
		if !IsForbidden(err) || attempts <= 1 {
			return nil, err
		}
		attempts--
		s.log.Warn("query rejected with access denied; backing off", bqcache.Fields{
			"remaining": attempts,
			"backoff":   s.cfg.forbiddenBackoff().String(),
		})
		s.sleep(s.cfg.forbiddenBackoff())
	}
}

// Truncate removes all rows from dataset.table and waits for the statement
// to finish.
func (s *Service) Truncate(ctx context.Context, dataset, table string) error {
	q := QueryConfig{SQL: fmt.Sprintf("TRUNCATE TABLE `%s.%s`", dataset, table)}
	job, err := s.RunQuery(ctx, q)
	if err != nil {
		return err
	}
	return s.WaitForJob(ctx, job)
}

// SaveFromFile streams the CSV file at path into dataset.table as a load
// job and waits for it to complete. The first row is assumed to be a header.
func (s *Service) SaveFromFile(ctx context.Context, dataset, table, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	job, err := s.client.Load(ctx, LoadConfig{
		Dataset:         dataset,
		Table:           table,
		Source:          f,
		Format:          CSV,
		SkipLeadingRows: 1,
	})
	if err != nil {
		return err
	}
	return s.WaitForJob(ctx, job)
}

// SaveRows encodes rows as CSV in memory and loads them into dataset.table.
func (s *Service) SaveRows(ctx context.Context, dataset, table string, rows []Row) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, r := range rows {
		rec := make([]string, len(r))
		for i, v := range r {
			rec[i] = fmt.Sprint(v)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	job, err := s.client.Load(ctx, LoadConfig{
		Dataset: dataset,
		Table:   table,
		Source:  &buf,
		Format:  CSV,
	})
	if err != nil {
		return err
	}
	return s.WaitForJob(ctx, job)
}

// TableSchema returns the schema metadata for dataset.table.
func (s *Service) TableSchema(ctx context.Context, dataset, table string) (Schema, error) {
	return s.client.TableSchema(ctx, dataset, table)
}

// HandleSelectResult zips a select result's schema field names with each
// row's values into one map per row.
func (s *Service) HandleSelectResult(res *QueryResult) []map[string]any {
	if res == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		m := make(map[string]any, len(res.Schema))
		for i, f := range res.Schema {
			if i < len(row) {
				m[f.Name] = row[i]
			} else {
				m[f.Name] = nil
			}
		}
		out = append(out, m)
	}
	return out
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}
