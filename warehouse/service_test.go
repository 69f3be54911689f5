package warehouse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ==============================
// Fakes
// ==============================

type fakeJob struct {
	reloads       int
	completeAfter int // number of reloads before Complete() turns true
	reloadErr     error
	errorResult   *JobError
	result        *QueryResult
}

func (j *fakeJob) Complete() bool { return j.reloads >= j.completeAfter }

func (j *fakeJob) Reload(context.Context) error {
	if j.reloadErr != nil {
		return j.reloadErr
	}
	j.reloads++
	return nil
}

func (j *fakeJob) Status() JobStatus {
	return JobStatus{Done: j.Complete(), ErrorResult: j.errorResult}
}

func (j *fakeJob) Result(context.Context) (*QueryResult, error) {
	return j.result, nil
}

type fakeClient struct {
	queryErrs []error // consumed one per RunQuery call; nil => success
	queries   []QueryConfig
	job       *fakeJob

	loadJob  *fakeJob
	loadCfgs []LoadConfig
	loadSrc  []byte

	schema Schema
	closed bool
}

func (c *fakeClient) RunQuery(_ context.Context, cfg QueryConfig) (Job, error) {
	c.queries = append(c.queries, cfg)
	if len(c.queryErrs) > 0 {
		err := c.queryErrs[0]
		c.queryErrs = c.queryErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if c.job == nil {
		c.job = &fakeJob{}
	}
	return c.job, nil
}

func (c *fakeClient) Load(_ context.Context, cfg LoadConfig) (Job, error) {
	b, err := io.ReadAll(cfg.Source)
	if err != nil {
		return nil, err
	}
	c.loadSrc = b
	c.loadCfgs = append(c.loadCfgs, cfg)
	if c.loadJob == nil {
		c.loadJob = &fakeJob{}
	}
	return c.loadJob, nil
}

func (c *fakeClient) TableSchema(context.Context, string, string) (Schema, error) {
	return c.schema, nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func newTestService(t *testing.T, client *fakeClient, cfg *Config) (*Service, *[]time.Duration) {
	t.Helper()
	if cfg == nil {
		cfg = &Config{ProjectID: "proj"}
	}
	s, err := NewService(context.Background(), ServiceOptions{
		Config:       cfg,
		Factory:      func(context.Context, *Config) (Client, error) { return client, nil },
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	var sleeps []time.Duration
	s.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return s, &sleeps
}

func forbiddenErr() error {
	return &RemoteError{StatusCode: http.StatusForbidden, Reason: "accessDenied", Message: "quota"}
}

// ==============================
// Query retry
// ==============================

// TestRunQueryRetriesForbiddenThenSucceeds: three access-denied responses
// then success within a budget of five means exactly three back-off sleeps.
func TestRunQueryRetriesForbiddenThenSucceeds(t *testing.T) {
	client := &fakeClient{queryErrs: []error{forbiddenErr(), forbiddenErr(), forbiddenErr(), nil}}
	s, sleeps := newTestService(t, client, &Config{ProjectID: "p", SleepTime403: 7})

	job, err := s.RunQuery(context.Background(), QueryConfig{SQL: "SELECT 1"})
	if err != nil || job == nil {
		t.Fatalf("RunQuery: job=%v err=%v", job, err)
	}
	if len(client.queries) != 4 {
		t.Fatalf("attempts = %d, want 4", len(client.queries))
	}
	if len(*sleeps) != 3 {
		t.Fatalf("sleeps = %d, want 3", len(*sleeps))
	}
	for _, d := range *sleeps {
		if d != 7*time.Second {
			t.Fatalf("sleep = %v, want 7s", d)
		}
	}
}

func TestRunQueryOtherErrorsAreFatal(t *testing.T) {
	boom := &RemoteError{StatusCode: http.StatusInternalServerError, Reason: "backendError"}
	client := &fakeClient{queryErrs: []error{boom}}
	s, sleeps := newTestService(t, client, nil)

	_, err := s.RunQuery(context.Background(), QueryConfig{SQL: "SELECT 1"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(client.queries) != 1 || len(*sleeps) != 0 {
		t.Fatalf("attempts=%d sleeps=%d, want 1/0", len(client.queries), len(*sleeps))
	}
}

func TestRunQueryBudgetExhaustion(t *testing.T) {
	client := &fakeClient{queryErrs: []error{
		forbiddenErr(), forbiddenErr(), forbiddenErr(), forbiddenErr(), forbiddenErr(),
	}}
	s, sleeps := newTestService(t, client, &Config{ProjectID: "p", QueryAttempts: 5})

	_, err := s.RunQuery(context.Background(), QueryConfig{SQL: "SELECT 1"})
	if !IsForbidden(err) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if len(client.queries) != 5 {
		t.Fatalf("attempts = %d, want 5", len(client.queries))
	}
	if len(*sleeps) != 4 {
		t.Fatalf("sleeps = %d, want 4", len(*sleeps))
	}
}

// ==============================
// Job completion polling
// ==============================

func TestWaitForJobPollsUntilComplete(t *testing.T) {
	client := &fakeClient{}
	s, _ := newTestService(t, client, nil)

	job := &fakeJob{completeAfter: 3}
	if err := s.WaitForJob(context.Background(), job); err != nil {
		t.Fatalf("WaitForJob: %v", err)
	}
	if job.reloads != 3 {
		t.Fatalf("reloads = %d, want 3", job.reloads)
	}
}

func TestWaitForJobErrorResultIsFatal(t *testing.T) {
	client := &fakeClient{}
	s, _ := newTestService(t, client, nil)

	job := &fakeJob{errorResult: &JobError{Reason: "invalid", Message: "bad column"}}
	err := s.WaitForJob(context.Background(), job)

	var jfe *JobFailureError
	if !errors.As(err, &jfe) {
		t.Fatalf("err = %v, want JobFailureError", err)
	}
	if !strings.Contains(err.Error(), "bad column") {
		t.Fatalf("error lacks job metadata: %v", err)
	}
}

func TestWaitForJobReloadErrorStopsPolling(t *testing.T) {
	client := &fakeClient{}
	s, _ := newTestService(t, client, nil)

	boom := errors.New("reload failed")
	job := &fakeJob{completeAfter: 99, reloadErr: boom}
	if err := s.WaitForJob(context.Background(), job); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestWaitForJobRetriesExhausted(t *testing.T) {
	client := &fakeClient{}
	s, _ := newTestService(t, client, &Config{ProjectID: "p", LoadPollRetries: 2})

	job := &fakeJob{completeAfter: 99}
	err := s.WaitForJob(context.Background(), job)
	if !errors.Is(err, errJobPending) {
		t.Fatalf("err = %v, want pending surfaced from backoff", err)
	}
	// initial poll + 2 retries
	if job.reloads != 3 {
		t.Fatalf("reloads = %d, want 3", job.reloads)
	}
}

// ==============================
// Operations
// ==============================

func TestTruncateRunsStatementAndWaits(t *testing.T) {
	client := &fakeClient{job: &fakeJob{completeAfter: 1}}
	s, _ := newTestService(t, client, nil)

	if err := s.Truncate(context.Background(), "ds", "events"); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if len(client.queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(client.queries))
	}
	sql := client.queries[0].SQL
	if !strings.Contains(sql, "TRUNCATE TABLE") || !strings.Contains(sql, "ds.events") {
		t.Fatalf("unexpected statement %q", sql)
	}
	if client.job.reloads == 0 {
		t.Fatal("Truncate did not wait for the job")
	}
}

func TestSaveFromFileLoadsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	content := "id,name\n1,ada\n2,grace\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	client := &fakeClient{loadJob: &fakeJob{completeAfter: 1}}
	s, _ := newTestService(t, client, nil)

	if err := s.SaveFromFile(context.Background(), "ds", "people", path); err != nil {
		t.Fatalf("SaveFromFile: %v", err)
	}
	if len(client.loadCfgs) != 1 {
		t.Fatalf("loads = %d, want 1", len(client.loadCfgs))
	}
	cfg := client.loadCfgs[0]
	if cfg.Dataset != "ds" || cfg.Table != "people" || cfg.Format != CSV || cfg.SkipLeadingRows != 1 {
		t.Fatalf("unexpected load config %+v", cfg)
	}
	if string(client.loadSrc) != content {
		t.Fatalf("source = %q, want file content", client.loadSrc)
	}
}

func TestSaveFromFileFailedJobSurfacesMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	if err := os.WriteFile(path, []byte("id\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := &fakeClient{loadJob: &fakeJob{
		completeAfter: 1,
		errorResult:   &JobError{Reason: "invalid", Message: "schema mismatch"},
	}}
	s, _ := newTestService(t, client, nil)

	err := s.SaveFromFile(context.Background(), "ds", "people", path)
	var jfe *JobFailureError
	if !errors.As(err, &jfe) {
		t.Fatalf("err = %v, want JobFailureError", err)
	}
}

func TestSaveRowsEncodesCSV(t *testing.T) {
	client := &fakeClient{loadJob: &fakeJob{completeAfter: 1}}
	s, _ := newTestService(t, client, nil)

	rows := []Row{{1, "ada"}, {2, "grace"}}
	if err := s.SaveRows(context.Background(), "ds", "people", rows); err != nil {
		t.Fatalf("SaveRows: %v", err)
	}
	want := "1,ada\n2,grace\n"
	if string(client.loadSrc) != want {
		t.Fatalf("csv = %q, want %q", client.loadSrc, want)
	}
	if client.loadCfgs[0].SkipLeadingRows != 0 {
		t.Fatal("SaveRows should not skip leading rows")
	}
}

func TestHandleSelectResultZipsSchemaAndRows(t *testing.T) {
	client := &fakeClient{}
	s, _ := newTestService(t, client, nil)

	res := &QueryResult{
		Schema: Schema{{Name: "id", Type: "INTEGER"}, {Name: "name", Type: "STRING"}},
		Rows:   []Row{{1, "ada"}, {2}},
	}
	got := s.HandleSelectResult(res)
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if got[0]["id"] != 1 || got[0]["name"] != "ada" {
		t.Fatalf("row 0 = %v", got[0])
	}
	if got[1]["name"] != nil {
		t.Fatalf("short row should pad with nil, got %v", got[1]["name"])
	}
	if s.HandleSelectResult(nil) != nil {
		t.Fatal("nil result should map to nil")
	}
}

// ==============================
// Configuration
// ==============================

func TestNewServiceMissingCredentialsIsFatal(t *testing.T) {
	cfg := &Config{ProjectID: "p", CredentialsPath: "/nonexistent/creds.json"}
	_, err := NewService(context.Background(), ServiceOptions{
		Config:  cfg,
		Factory: func(context.Context, *Config) (Client, error) { return &fakeClient{}, nil },
	})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
	if ce.Field != "credentials_path" {
		t.Fatalf("field = %q", ce.Field)
	}
}

func TestLoadConfigFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warehouse.yaml")
	body := "project_id: analytics\nauth_cache_store: redis\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.ProjectID != "analytics" || cfg.AuthCacheStore != "redis" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.SleepTime403 != defaultSleepTime403 {
		t.Fatalf("sleep_time_403 = %d, want default", cfg.SleepTime403)
	}
	if cfg.QueryAttempts != defaultQueryAttempts || cfg.LoadPollRetries != defaultLoadRetries {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigFileRequiresProject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warehouse.yaml")
	if err := os.WriteFile(path, []byte("auth_cache_store: redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var ce *ConfigError
	if _, err := LoadConfigFile(path); !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
}
