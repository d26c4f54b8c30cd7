package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestReportLifecycle(t *testing.T) {
	report := newReport(OperationRestore, "tenant-1")
	if report.Errors == nil || len(report.Errors) != 0 {
		t.Fatal("errors must start as an empty slice")
	}

	report.addError("user ghost@acme: boom")
	report.ItemsProcessed = 3
	report.ItemsRecovered = 2
	report.complete()

	if !report.Success {
		t.Error("complete() must mark success")
	}
	if report.Duration < 0 {
		t.Error("duration not set")
	}
	if len(report.Errors) != 1 {
		t.Errorf("errors = %d, want 1", len(report.Errors))
	}
}

func TestReportFail(t *testing.T) {
	report := newReport(OperationClean, "")
	report.fail(nil)
	if report.Success {
		t.Error("fail() must clear success")
	}
	if len(report.Errors) != 0 {
		t.Error("fail(nil) must not append")
	}
}

func TestReportJSONShape(t *testing.T) {
	report := newReport(OperationBackup, "tenant-1")
	report.complete()

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"operation":"backup"`, `"tenant_id":"tenant-1"`, `"items_processed":0`, `"items_recovered":0`, `"errors":[]`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("report JSON missing %s:\n%s", key, data)
		}
	}

	// clean runs are cross-tenant and omit the tenant id
	crossTenant := newReport(OperationClean, "")
	crossTenant.complete()
	data, _ = json.Marshal(crossTenant)
	if strings.Contains(string(data), "tenant_id") {
		t.Errorf("empty tenant id must be omitted:\n%s", data)
	}
}
