package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/selah-index/core/pipeline"
)

// capture routes the logger into a buffer at debug level while f runs.
func capture(t *testing.T, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelDebug, FormatJSON)
	defer InitLogger(LevelInfo, FormatJSON)
	f()
	return buf.String()
}

// decode parses a single JSON log line.
func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &m); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	return m
}

func TestInitLoggerTo(t *testing.T) {
	rejected := func() { SourceRejected("bad.csv", errors.New("no column for reference")) }
	tests := []struct {
		name      string
		level     Level
		format    Format
		logFn     func()
		wantEmpty bool
		wantJSON  bool
	}{
		{"debug json", LevelDebug, FormatJSON, func() { Debug("reference_cache") }, false, true},
		{"info filters debug", LevelInfo, FormatJSON, func() { Debug("reference_cache") }, true, true},
		{"warn text", LevelWarn, FormatText, rejected, false, false},
		{"error filters warn", LevelError, FormatText, rejected, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerTo(&buf, tt.level, tt.format)
			defer InitLogger(LevelInfo, FormatJSON)

			tt.logFn()
			out := buf.String()
			if (out == "") != tt.wantEmpty {
				t.Fatalf("output = %q, wantEmpty %v", out, tt.wantEmpty)
			}
			if out != "" && strings.HasPrefix(out, "{") != tt.wantJSON {
				t.Errorf("output = %q, wantJSON %v", out, tt.wantJSON)
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	out := capture(t, func() { JobStarted(pipeline.KindTopics, "r0", nil) })
	ts, ok := decode(t, out)["time"].(string)
	if !ok {
		t.Fatalf("no time in %q", out)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestSourceRejected(t *testing.T) {
	out := capture(t, func() {
		SourceRejected("bad.csv", errors.New("no column for reference"))
	})
	m := decode(t, out)
	if m["msg"] != "source_rejected" || m["path"] != "bad.csv" || m["level"] != "WARN" {
		t.Errorf("log = %v", m)
	}
}

func TestJobStarted(t *testing.T) {
	out := capture(t, func() {
		JobStarted(pipeline.KindConcordance, "abc", []string{"a.csv"})
	})
	m := decode(t, out)
	if m["msg"] != "job_started" || m["run_id"] != "abc" || m["kind"] != "concordance" {
		t.Errorf("log = %v", m)
	}
}

func TestJobFinished(t *testing.T) {
	tests := []struct {
		name      string
		report    *pipeline.JobReport
		wantLevel string
	}{
		{
			name: "completed",
			report: &pipeline.JobReport{
				RunID: "r1", Kind: pipeline.KindTopics, Status: pipeline.StatusCompleted,
				RowsIn: 3, RowsOut: 2, DroppedByReason: map[string]int{"missing_topic": 1},
				DropSamples: map[string][]string{"missing_topic": {"topics.csv:row 2: missing_topic"}},
				OutputPaths: []string{"out/topics_links.jsonl.gz"},
			},
			wantLevel: "INFO",
		},
		{
			name: "failed",
			report: &pipeline.JobReport{
				RunID: "r2", Kind: pipeline.KindConcordance, Status: pipeline.StatusFailed,
				Error: "disk full",
			},
			wantLevel: "ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, capture(t, func() { JobFinished(tt.report) }))
			if m["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", m["level"], tt.wantLevel)
			}
			if m["run_id"] != tt.report.RunID || m["status"] != string(tt.report.Status) {
				t.Errorf("log = %v", m)
			}
			if _, ok := m["drop_samples"]; ok != (len(tt.report.DropSamples) > 0) {
				t.Errorf("drop_samples present = %v, log = %v", ok, m)
			}
			if tt.report.OK() && m["outputs"] == nil {
				t.Errorf("completed job logged no outputs: %v", m)
			}
			if !tt.report.OK() && m["error"] != tt.report.Error {
				t.Errorf("error = %v, want %q", m["error"], tt.report.Error)
			}
		})
	}
}

func TestHooks(t *testing.T) {
	h := Hooks()
	if h.JobStarted == nil || h.JobFinished == nil {
		t.Fatal("Hooks() returned nil callbacks")
	}
	out := capture(t, func() {
		h.JobStarted(pipeline.KindTopics, "x", nil)
	})
	if !strings.Contains(out, "job_started") {
		t.Errorf("output = %q", out)
	}
}
