package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/arbor/pkg/attr"
)

func snapshot(state string, scope *attr.Map, history ...string) *Execution {
	e := NewExecution("exec-1", "booking")
	s := e.Spawn(NewFlow("booking"))
	s.StateID = state
	s.Scope = scope
	e.History = history
	return e
}

func TestDiff(t *testing.T) {
	t.Run("Initial Load", func(t *testing.T) {
		d := Diff(nil, snapshot("start", attr.Of("a", 1), "booking:start"))
		if d == nil {
			t.Fatal("expected a diff")
		}
		if *d.StateID != "start" || *d.FlowID != "booking" || *d.Status != StatusActive || *d.Depth != 1 {
			t.Errorf("unexpected position: %+v", d)
		}
		if d.FlowScope["a"] != 1 {
			t.Errorf("expected flow scope delta, got %v", d.FlowScope)
		}
		if len(d.History.Appended) != 1 {
			t.Errorf("expected full history, got %v", d.History)
		}
	})

	t.Run("No Changes", func(t *testing.T) {
		old := snapshot("start", attr.Of("a", 1), "booking:start")
		now := snapshot("start", attr.Of("a", 1), "booking:start")
		if d := Diff(old, now); d != nil {
			t.Errorf("expected nil diff, got %+v", d)
		}
	})

	t.Run("State And Scope Changes", func(t *testing.T) {
		old := snapshot("start", attr.Of("a", 1, "gone", true), "booking:start")
		now := snapshot("review", attr.Of("a", 2, "b", "new"), "booking:start", "booking:review")

		d := Diff(old, now)
		if d == nil {
			t.Fatal("expected a diff")
		}
		if d.StateID == nil || *d.StateID != "review" {
			t.Errorf("expected state change, got %v", d.StateID)
		}
		if d.FlowID != nil || d.Status != nil || d.Depth != nil {
			t.Errorf("unexpected position changes: %+v", d)
		}
		if d.FlowScope["a"] != 2 || d.FlowScope["b"] != "new" {
			t.Errorf("unexpected flow scope delta: %v", d.FlowScope)
		}
		if v, ok := d.FlowScope["gone"]; !ok || v != nil {
			t.Errorf("expected deletion marker for 'gone', got %v", d.FlowScope)
		}
		if len(d.History.Appended) != 1 || d.History.Appended[0] != "booking:review" {
			t.Errorf("unexpected history delta: %v", d.History)
		}
	})

	t.Run("Ended", func(t *testing.T) {
		old := snapshot("confirm", attr.New())
		now := snapshot("confirm", attr.New())
		now.Pop(&Outcome{ID: "finished"})

		d := Diff(old, now)
		if d == nil || d.Status == nil || *d.Status != StatusEnded || *d.Depth != 0 {
			t.Errorf("expected ended diff, got %+v", d)
		}
	})
}

func TestDiff_JSON(t *testing.T) {
	d := Diff(snapshot("a", attr.New()), snapshot("b", attr.New()))
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"state_id":"b"`) || strings.Contains(s, "flow_scope") {
		t.Errorf("unexpected JSON: %s", s)
	}
}
