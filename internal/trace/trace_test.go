package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelPhase, ScopeDriver, true},
		{LevelPhase, ScopeUnit, true},
		{LevelPhase, ScopePass, false},
		{LevelDetail, ScopePass, true},
		{LevelDetail, ScopeEmit, false},
		{LevelDebug, ScopeEmit, true},
		{LevelError, ScopeDriver, false},
		{LevelOff, ScopeDriver, false},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestRingSnapshotOrderAndWrap(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(r, ScopeEmit, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	got := []string{snap[0].Name, snap[1].Name, snap[2].Name}
	if strings.Join(got, ",") != "b,c,d" {
		t.Fatalf("snapshot order = %v", got)
	}
}

func TestSpanBeginEnd(t *testing.T) {
	r := NewRingTracer(16, LevelDetail)
	root := Begin(r, ScopeUnit, "unit:core", 0)
	child := Begin(r, ScopePass, "finalize.autolink", root.ID())
	child.WithExtra("entries", "2").End("")
	root.End("ok")

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events, got %d", len(snap))
	}
	if snap[1].ParentID != root.ID() {
		t.Fatalf("child parent = %d, want %d", snap[1].ParentID, root.ID())
	}
	if snap[2].Kind != KindSpanEnd || snap[2].Extra["entries"] != "2" {
		t.Fatalf("unexpected child end event %+v", snap[2])
	}
	if names := r.Names(KindSpanBegin, "finalize."); len(names) != 1 || names[0] != "finalize.autolink" {
		t.Fatalf("Names = %v", names)
	}
}

func TestFilteredSpanIsInert(t *testing.T) {
	r := NewRingTracer(16, LevelPhase)
	span := Begin(r, ScopePass, "finalize.global-lists", 7)
	if span.ID() != 7 {
		t.Fatalf("inert span ID = %d, want parent 7", span.ID())
	}
	if d := span.End(""); d != 0 {
		t.Fatalf("inert span duration = %v", d)
	}
	if len(r.Snapshot()) != 0 {
		t.Fatal("filtered span must not record events")
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(st, ScopeEmit, "runtime:rt_retain", "declared", 0)
	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("invalid NDJSON %q: %v", buf.String(), err)
	}
	if decoded["name"] != "runtime:rt_retain" || decoded["scope"] != "emit" || decoded["kind"] != "point" {
		t.Fatalf("unexpected event %v", decoded)
	}
}

func TestFormatTextSortsExtra(t *testing.T) {
	ev := &Event{
		Time:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Kind:  KindSpanEnd,
		Scope: ScopePass,
		Name:  "finalize.debug-info",
		Extra: map[string]string{"z": "1", "a": "2"},
	}
	got := string(FormatEvent(ev, FormatText))
	want := "03:04:05.000 [pass]     < finalize.debug-info {a=2, z=1}\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	a := NewRingTracer(8, LevelDebug)
	b := NewRingTracer(8, LevelDebug)
	m := NewMultiTracer(LevelDebug, a, b)
	Point(m, ScopeDriver, "x", "", 0)
	if len(a.Snapshot()) != 1 || len(b.Snapshot()) != 1 {
		t.Fatal("expected event in both tracers")
	}
	if m.Ring() != a {
		t.Fatal("Ring should return the first ring tracer")
	}
}

func TestContextPropagation(t *testing.T) {
	r := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	ctx, outer := Start(ctx, ScopeDriver, "emit")
	_, inner := Start(ctx, ScopeUnit, "unit:a")
	inner.End("")
	outer.End("")
	snap := r.Snapshot()
	if snap[1].ParentID != outer.ID() {
		t.Fatalf("inner parent = %d, want %d", snap[1].ParentID, outer.ID())
	}
	if FromContext(context.Background()) != Nop {
		t.Fatal("expected Nop for empty context")
	}
}

func TestNewConfig(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("expected disabled tracer, got %v, %v", tr, err)
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := tr.(*MultiTracer)
	if !ok || m.Ring() == nil {
		t.Fatalf("expected multi tracer with ring, got %T", tr)
	}
	if _, err := ParseFormat("chrome"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestHeartbeatStop(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat should not start for a disabled tracer")
	}
	r := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	h.Stop()
	h.Stop()
	if len(r.Names(KindHeartbeat, "heartbeat")) == 0 {
		t.Fatal("expected at least one heartbeat")
	}
}
