package warehouse

import (
	"encoding/json"
	"fmt"
)

// ConfigError reports configuration material that is missing or unusable at
// startup. It is fatal and never retried.
type ConfigError struct {
	Field string
	Path  string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("warehouse config: %s: %q: %v", e.Field, e.Path, e.Err)
	}
	return fmt.Sprintf("warehouse config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// JobFailureError is raised when a completed job carries an error result.
type JobFailureError struct {
	Status JobStatus
}

func (e *JobFailureError) Error() string {
	meta, err := json.Marshal(e.Status)
	if err != nil {
		return fmt.Sprintf("warehouse: job failed: %+v", e.Status)
	}
	return fmt.Sprintf("warehouse: job failed: %s", meta)
}
