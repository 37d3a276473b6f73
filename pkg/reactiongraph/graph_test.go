package reactiongraph

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// chain builds s1 -> s2 -> s3 -> s2 plus s1 -> s4.
func chain(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, form := range []string{"a", "b", "c", "d"} {
		if _, added := g.AddState(form, nil); !added {
			t.Fatalf("state %s not added", form)
		}
	}
	g.AddTransition(Transition{From: 1, To: 2, Rule: "r1"})
	g.AddTransition(Transition{From: 2, To: 3, Rule: "r2"})
	g.AddTransition(Transition{From: 3, To: 2, Rule: "r3"})
	g.AddTransition(Transition{From: 1, To: 4, Rule: "r1", Occurrence: 1})
	return g
}

func TestAddStateDeduplicates(t *testing.T) {
	g := New()
	s1, added := g.AddState("form", nil)
	if !added || s1.ID != 1 {
		t.Fatalf("first AddState = %v, %v", s1, added)
	}
	s2, added := g.AddState("form", nil)
	if added || s2 != s1 {
		t.Errorf("duplicate AddState = %v, %v", s2, added)
	}
	if g.StateCount() != 1 {
		t.Errorf("StateCount() = %d", g.StateCount())
	}
	if s1.Label == "" {
		t.Error("state has no label")
	}
	if got, ok := g.Lookup("form"); !ok || got != s1 {
		t.Errorf("Lookup() = %v, %v", got, ok)
	}
	if _, ok := g.State(0); ok {
		t.Error("ID 0 must not resolve")
	}
	if g.Initial() != s1 {
		t.Error("Initial() should be the first state")
	}
}

func TestTransitionsAndPaths(t *testing.T) {
	g := chain(t)

	if g.TransitionCount() != 4 {
		t.Errorf("TransitionCount() = %d", g.TransitionCount())
	}
	if n := len(g.Outgoing(1)); n != 2 {
		t.Errorf("Outgoing(1) has %d transitions", n)
	}

	path, ok := g.ShortestPath(1, 3)
	if !ok {
		t.Fatal("no path 1 -> 3")
	}
	want := []Transition{{From: 1, To: 2, Rule: "r1"}, {From: 2, To: 3, Rule: "r2"}}
	if diff := cmp.Diff(want, path.Transitions); diff != "" {
		t.Errorf("path transitions mismatch (-want +got):\n%s", diff)
	}
	if len(path.States) != 3 || path.States[0].ID != 1 || path.States[2].ID != 3 {
		t.Errorf("path states = %v", path.States)
	}

	if _, ok := g.ShortestPath(4, 1); ok {
		t.Error("4 has no way back to 1")
	}
	if _, ok := g.ShortestPath(9, 1); ok {
		t.Error("unknown source must not have a path")
	}

	depths := g.Depths()
	if diff := cmp.Diff(map[uint64]int{1: 0, 2: 1, 3: 2, 4: 1}, depths); diff != "" {
		t.Errorf("Depths() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalytics(t *testing.T) {
	g := chain(t)

	if cycles := g.Cycles(); len(cycles) != 1 || len(cycles[0]) != 2 {
		t.Errorf("Cycles() = %v", cycles)
	}
	if diff := cmp.Diff([]uint64{4}, g.Deadlocks()); diff != "" {
		t.Errorf("Deadlocks() mismatch (-want +got):\n%s", diff)
	}
	terminal := g.TerminalComponents()
	if len(terminal) != 2 {
		t.Fatalf("TerminalComponents() = %d components", len(terminal))
	}
	if diff := cmp.Diff([]uint64{2, 3}, terminal[0].Nodes); diff != "" {
		t.Errorf("livelock component mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotRestoresGraph(t *testing.T) {
	g := chain(t)
	g.SetSatisfying(2, true)
	g.MarkIncomplete("budget")

	var buf bytes.Buffer
	if err := g.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot() = %v", err)
	}
	restored, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot() = %v", err)
	}

	if diff := cmp.Diff(g.Transitions(), restored.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	for _, s := range g.States() {
		r, ok := restored.Lookup(s.Canonical)
		if !ok || r.ID != s.ID || r.Label != s.Label {
			t.Errorf("state %d restored as %v", s.ID, r)
		}
	}
	if !restored.Satisfying(2) || restored.Satisfying(1) {
		t.Error("satisfying flags not restored")
	}
	if !restored.Incomplete() || restored.IncompleteReason() != "budget" {
		t.Error("incomplete flag not restored")
	}
}

func TestSnapshotRejectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	if err := chain(t).WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot() = %v", err)
	}
	data := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("XXXX"), data[4:]...)},
		{"truncated", data[:len(data)-3]},
		{"flipped payload bit", func() []byte {
			c := append([]byte(nil), data...)
			c[10] ^= 0xff
			return c
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSnapshot(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("ReadSnapshot() = %v, want ErrCorruptSnapshot", err)
			}
		})
	}
}
