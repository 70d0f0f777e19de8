package hierarchy

import (
	"context"
	"testing"

	"lotto-engine/internal/model"
)

type fakeRoster struct {
	agents []model.Agent
}

func (f *fakeRoster) ListAgents(_ context.Context) ([]model.Agent, error) {
	return f.agents, nil
}

func buildIndex(t *testing.T, agents []model.Agent) *Index {
	t.Helper()
	idx := NewIndex(&fakeRoster{agents: agents})
	if err := idx.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return idx
}

func TestAncestors(t *testing.T) {
	idx := buildIndex(t, []model.Agent{
		{Username: "root", Tier: 1},
		{Username: "master1", CreatedBy: "root", Tier: 2},
		{Username: "sub1", CreatedBy: "master1", Tier: 3},
		{Username: "sub2", CreatedBy: "master1", Tier: 3},
	})

	got := idx.Ancestors("sub1")
	want := []string{"sub1", "master1", "root"}
	if len(got) != len(want) {
		t.Fatalf("Ancestors(sub1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ancestors(sub1) = %v, want %v", got, want)
		}
	}

	if got := idx.Ancestors("root"); len(got) != 1 || got[0] != "root" {
		t.Errorf("Ancestors(root) = %v, want just root", got)
	}

	// Unknown agents are their own chain.
	if got := idx.Ancestors("ghost"); len(got) != 1 || got[0] != "ghost" {
		t.Errorf("Ancestors(ghost) = %v, want just ghost", got)
	}
}

func TestAncestorsCycleGuard(t *testing.T) {
	idx := buildIndex(t, []model.Agent{
		{Username: "a", CreatedBy: "b"},
		{Username: "b", CreatedBy: "a"},
	})

	got := idx.Ancestors("a")
	if len(got) != 2 {
		t.Fatalf("Ancestors over a cycle = %v, want walk truncated at repeat", got)
	}
}

func TestSelfParentDropped(t *testing.T) {
	idx := buildIndex(t, []model.Agent{{Username: "root", CreatedBy: "root"}})

	if got := idx.Ancestors("root"); len(got) != 1 {
		t.Errorf("self-parenting root produced chain %v", got)
	}
}

func TestDescendants(t *testing.T) {
	idx := buildIndex(t, []model.Agent{
		{Username: "root"},
		{Username: "master1", CreatedBy: "root"},
		{Username: "master2", CreatedBy: "root"},
		{Username: "sub1", CreatedBy: "master1"},
	})

	got := idx.Descendants("root")
	if len(got) != 3 {
		t.Fatalf("Descendants(root) = %v, want 3 agents", got)
	}
	seen := make(map[string]bool)
	for _, name := range got {
		seen[name] = true
	}
	for _, want := range []string{"master1", "master2", "sub1"} {
		if !seen[want] {
			t.Errorf("Descendants(root) missing %s: %v", want, got)
		}
	}

	if got := idx.Descendants("sub1"); len(got) != 0 {
		t.Errorf("Descendants(sub1) = %v, want none", got)
	}
}

func TestTierAndParent(t *testing.T) {
	idx := buildIndex(t, []model.Agent{
		{Username: "root", Tier: 1},
		{Username: "sub1", CreatedBy: "root", Tier: 3},
	})

	if got := idx.Tier("sub1"); got != 3 {
		t.Errorf("Tier(sub1) = %d, want 3", got)
	}
	if got := idx.Parent("sub1"); got != "root" {
		t.Errorf("Parent(sub1) = %q, want root", got)
	}
	if got := idx.Parent("root"); got != "" {
		t.Errorf("Parent(root) = %q, want empty", got)
	}
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	roster := &fakeRoster{agents: []model.Agent{
		{Username: "root"},
		{Username: "sub1", CreatedBy: "root"},
	}}
	idx := NewIndex(roster)
	if err := idx.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	roster.agents = append(roster.agents, model.Agent{Username: "sub2", CreatedBy: "root"})
	if err := idx.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got := idx.Descendants("root"); len(got) != 2 {
		t.Errorf("Descendants after refresh = %v, want 2", got)
	}
}
