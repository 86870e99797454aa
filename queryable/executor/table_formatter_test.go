package executor

import (
	"strings"
	"testing"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/plan"
)

func TestFormatRecordsEmpty(t *testing.T) {
	if got := NewTableFormatter().FormatRecords(nil); got != "_No records_" {
		t.Errorf("unexpected empty rendering %q", got)
	}
}

func TestFormatRecordsTable(t *testing.T) {
	records := []*Record{
		NewRecord("Article", "a1").
			Set("id", queryable.String("a1")).
			Set("title", queryable.String("Go Guide")),
		NewRecord("Video", "v1").
			Set("id", queryable.String("v1")).
			Set("durationSeconds", queryable.Int(120)),
	}
	out := NewTableFormatter().FormatRecords(records)

	if !strings.Contains(out, "type") {
		t.Error("expected a type column")
	}
	if !strings.Contains(out, "Go Guide") || !strings.Contains(out, "120") {
		t.Errorf("expected cell values in output:\n%s", out)
	}
	if !strings.Contains(out, "_2 records_") {
		t.Errorf("expected record count suffix:\n%s", out)
	}
}

func TestFormatRecordsTruncates(t *testing.T) {
	tf := &TableFormatter{MaxWidth: 10, TruncateString: "..."}
	rec := NewRecord("Article", "a1").
		Set("body", queryable.String("a body well beyond ten characters"))
	out := tf.FormatRecords([]*Record{rec})
	if !strings.Contains(out, "a body ...") {
		t.Errorf("expected truncated cell:\n%s", out)
	}
}

func TestFormatPlanWithoutColor(t *testing.T) {
	n := &plan.Take{Count: 3, From: &plan.Scan{Resource: "contents", Storage: "Content"}}
	if got := FormatPlan(n, false); got != plan.Render(n) {
		t.Error("colorless output must match the plain rendering")
	}
}
