package engine

import (
	"time"
)

// Operation names carried in reports
const (
	OperationBackup  = "backup"
	OperationRestore = "restore"
	OperationMigrate = "migrate"
	OperationClean   = "clean"
)

// Report is the uniform result envelope returned by every engine operation.
// ItemsRecovered is semantically overloaded per operation: created or matched
// rows for backup/restore/migrate, deleted rows for clean. The overload is
// intentional; each call site documents which meaning applies.
type Report struct {
	Timestamp      time.Time     `json:"timestamp"`
	Operation      string        `json:"operation"`
	TenantID       string        `json:"tenant_id,omitempty"`
	Success        bool          `json:"success"`
	ItemsProcessed int           `json:"items_processed"`
	ItemsRecovered int           `json:"items_recovered"`
	Errors         []string      `json:"errors"`
	Duration       time.Duration `json:"duration"`
}

// newReport starts a report for one operation run
func newReport(operation, tenantID string) *Report {
	return &Report{
		Timestamp: time.Now().UTC(),
		Operation: operation,
		TenantID:  tenantID,
		Errors:    []string{},
	}
}

// addError records a per-entity failure; the run continues
func (r *Report) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// complete marks the run completed. Success means the run finished, not that
// it was error-free: a non-empty Errors list with Success=true is a partial
// recovery.
func (r *Report) complete() *Report {
	r.Success = true
	r.Duration = time.Since(r.Timestamp)
	return r
}

// fail marks the run failed outright (NotFound/Conflict/storage failure)
func (r *Report) fail(err error) *Report {
	r.Success = false
	r.Duration = time.Since(r.Timestamp)
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
	return r
}
