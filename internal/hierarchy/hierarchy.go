// Package hierarchy maintains an in-memory index of the agent forest so the
// rollup and report paths can walk parent chains without touching the roster
// tables on every request.
package hierarchy

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"lotto-engine/internal/model"
)

// Store is the roster repository contract the index refreshes from.
type Store interface {
	ListAgents(ctx context.Context) ([]model.Agent, error)
}

// Index is a snapshot of parent and child edges keyed by username. Reads are
// lock-free against the current snapshot; Refresh swaps in a new one.
type Index struct {
	store Store

	mu       sync.RWMutex
	parent   map[string]string
	children map[string][]string
	tiers    map[string]int
}

// NewIndex creates an empty Index over the roster store. Call Refresh before
// first use.
func NewIndex(store Store) *Index {
	return &Index{
		store:    store,
		parent:   make(map[string]string),
		children: make(map[string][]string),
		tiers:    make(map[string]int),
	}
}

// Refresh rebuilds the adjacency maps from the roster. Self-parenting edges
// are dropped so a miswritten root row cannot create a one-node cycle.
func (x *Index) Refresh(ctx context.Context) error {
	agents, err := x.store.ListAgents(ctx)
	if err != nil {
		return err
	}

	parent := make(map[string]string, len(agents))
	children := make(map[string][]string, len(agents))
	tiers := make(map[string]int, len(agents))
	for _, a := range agents {
		tiers[a.Username] = a.Tier
		if a.CreatedBy == "" || a.CreatedBy == a.Username {
			continue
		}
		parent[a.Username] = a.CreatedBy
		children[a.CreatedBy] = append(children[a.CreatedBy], a.Username)
	}

	x.mu.Lock()
	x.parent = parent
	x.children = children
	x.tiers = tiers
	x.mu.Unlock()
	return nil
}

// Parent returns the agent's direct parent, or "" for a root.
func (x *Index) Parent(username string) string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.parent[username]
}

// Tier returns the agent's pricing tier, or 0 when unknown.
func (x *Index) Tier(username string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.tiers[username]
}

// Ancestors returns the chain from the agent up to its root, the agent itself
// first. A cycle in the stored edges terminates the walk instead of looping.
func (x *Index) Ancestors(username string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	chain := []string{username}
	visited := map[string]struct{}{username: {}}
	for cur := username; ; {
		next, ok := x.parent[cur]
		if !ok || next == "" {
			return chain
		}
		if _, seen := visited[next]; seen {
			log.Warn().Str("agent", username).Str("repeated", next).Msg("cycle in agent hierarchy, truncating ancestor walk")
			return chain
		}
		visited[next] = struct{}{}
		chain = append(chain, next)
		cur = next
	}
}

// Descendants returns every agent below the given one, breadth-first, not
// including the agent itself.
func (x *Index) Descendants(username string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []string
	visited := map[string]struct{}{username: {}}
	queue := append([]string(nil), x.children[username]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		out = append(out, cur)
		queue = append(queue, x.children[cur]...)
	}
	return out
}

// StartRefresher rebuilds the index on a fixed interval until stop closes.
// Roster writes should also call Refresh directly so new agents roll up
// without waiting a full interval.
func (x *Index) StartRefresher(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := x.Refresh(ctx); err != nil {
					log.Error().Err(err).Msg("failed to refresh agent hierarchy")
				}
			case <-stop:
				return
			}
		}
	}()
}
