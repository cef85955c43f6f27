package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"mercator-hq/vesta/pkg/syncer"
)

func TestSimpleProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgressReporter(buf)

	p.Start(4)
	p.Update(2, "photo.jpg")
	if !strings.Contains(buf.String(), "2/4 photo.jpg") {
		t.Errorf("expected progress line, got %q", buf.String())
	}

	p.Finish()
	if !strings.Contains(buf.String(), "4/4") {
		t.Errorf("expected finished line, got %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Finish should end the line")
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgressReporter(buf)
	p.Start(0)
	p.Update(0, "")
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty batch, got %q", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	NewProgressReporter(buf).Error(errors.New("remote unreachable"))
	if !strings.Contains(buf.String(), "remote unreachable") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

type recordingReporter struct {
	starts  []int
	updates []int
}

func (r *recordingReporter) Start(total int)                { r.starts = append(r.starts, total) }
func (r *recordingReporter) Update(completed int, _ string) { r.updates = append(r.updates, completed) }
func (r *recordingReporter) Finish()                        {}
func (r *recordingReporter) Error(error)                    {}

func TestSyncProgress(t *testing.T) {
	r := &recordingReporter{}
	fn := SyncProgress(r)

	fn(syncer.Progress{Total: 3, Completed: 0, Current: "a"})
	fn(syncer.Progress{Total: 3, Completed: 1, Current: "b"})
	fn(syncer.Progress{Total: 3, Completed: 3})

	if len(r.starts) != 1 || r.starts[0] != 3 {
		t.Errorf("starts = %v, want [3]", r.starts)
	}
	if len(r.updates) != 3 || r.updates[2] != 3 {
		t.Errorf("updates = %v", r.updates)
	}
}
