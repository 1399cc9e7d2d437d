package diag

import (
	"testing"

	"irgen/internal/source"
)

func TestBagLimitAndSeverity(t *testing.T) {
	b := NewBag(2)
	if _, ok := b.MaxSeverity(); ok {
		t.Fatal("expected empty bag to report no severity")
	}
	if !b.Add(New(SevWarning, IRGenInfo, source.NoSpan, "w")) {
		t.Fatal("expected first add to succeed")
	}
	if b.HasErrors() {
		t.Fatal("expected no errors yet")
	}
	if !b.Add(NewError(IRGenFailure, source.NoSpan, "e")) {
		t.Fatal("expected second add to succeed")
	}
	if b.Add(NewError(IRGenFailure, source.NoSpan, "dropped")) {
		t.Fatal("expected third add to be rejected by the limit")
	}
	if sev, _ := b.MaxSeverity(); sev != SevError {
		t.Fatalf("expected max severity ERROR, got %s", sev)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatal("expected errors and warnings")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{File: 0, Start: 4, End: 8}
	b.Add(NewError(IRGenFailure, sp, "late"))
	b.Add(NewError(IRGenUnimplemented, source.Span{File: 0, Start: 1, End: 2}, "early"))
	b.Add(NewError(IRGenFailure, sp, "late"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 diagnostics after dedup, got %d", b.Len())
	}
	b.Sort()
	if b.Items()[0].Message != "early" {
		t.Fatalf("expected early first, got %q", b.Items()[0].Message)
	}
	if b.Count(IRGenFailure) != 1 || b.Count(IRGenUnimplemented) != 1 {
		t.Fatalf("unexpected code counts: %+v", b.Items())
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(IRGenFailure, source.NoSpan, "a"))
	other := NewBag(2)
	other.Add(NewError(IRGenFailure, source.NoSpan, "b"))
	other.Add(NewError(IRGenFailure, source.NoSpan, "c"))
	a.Merge(other)
	if a.Len() != 3 || a.Cap() < 3 {
		t.Fatalf("expected merged bag of 3, got len=%d cap=%d", a.Len(), a.Cap())
	}
}
