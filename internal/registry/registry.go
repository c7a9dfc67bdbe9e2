// Package registry holds the in-memory collection of table records, one per
// physical table. Records are created once at startup and only mutated
// afterwards; they are never deleted.
package registry

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"pos-floor-backend/config"
	"pos-floor-backend/internal/model"
	"pos-floor-backend/internal/remote"
)

// Registry is safe for concurrent use; all mutation happens under the lock.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*model.TableRecord // keyed by normalized label
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tables: make(map[string]*model.TableRecord)}
}

// Get returns a copy of the record for a label, matched case-insensitively.
func (r *Registry) Get(label string) (model.TableRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.tables[model.LabelKey(label)]
	if !ok {
		return model.TableRecord{}, false
	}
	return *rec, true
}

// GetAll returns copies of every record, sorted by label for deterministic
// output.
func (r *Registry) GetAll() []model.TableRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.TableRecord, 0, len(r.tables))
	for _, rec := range r.tables {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Upsert inserts or replaces a record.
func (r *Registry) Upsert(rec model.TableRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := rec
	r.tables[model.LabelKey(rec.Label)] = &copied
}

// UpsertMany inserts or replaces a batch of records.
func (r *Registry) UpsertMany(recs []model.TableRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		copied := rec
		r.tables[model.LabelKey(rec.Label)] = &copied
	}
}

// Update mutates the record for a label under the lock. Returns false when
// the label is unknown.
func (r *Registry) Update(label string, fn func(*model.TableRecord)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.tables[model.LabelKey(label)]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

// Seed builds the default floor layout from configuration.
func Seed(cfg *config.SeedConfig) []model.TableRecord {
	recs := make([]model.TableRecord, 0, cfg.TimedCount+cfg.FlatCount)
	for i := 1; i <= cfg.TimedCount; i++ {
		recs = append(recs, model.TableRecord{
			Label: fmt.Sprintf("%s %d", cfg.TimedPrefix, i),
			Kind:  model.KindTimed,
		})
	}
	for i := 1; i <= cfg.FlatCount; i++ {
		recs = append(recs, model.TableRecord{
			Label: fmt.Sprintf("%s %d", cfg.FlatPrefix, i),
			Kind:  model.KindFlat,
		})
	}
	return recs
}

// LoadInitial populates the registry from the remote store. When the remote
// store is empty the default layout is seeded and persisted back best
// effort; when the remote store is unreachable the default layout still
// populates the in-memory view so the floor plan is never empty.
func (r *Registry) LoadInitial(ctx context.Context, client remote.Client, seedCfg *config.SeedConfig) {
	tables, err := client.ListTables(ctx)
	if err != nil {
		log.Printf("registry: initial table fetch failed: %v (seeding default layout locally)", err)
		r.UpsertMany(Seed(seedCfg))
		return
	}
	if len(tables) == 0 {
		seeded := Seed(seedCfg)
		r.UpsertMany(seeded)
		if err := client.UpsertTables(ctx, seeded); err != nil {
			log.Printf("registry: failed to persist seeded layout remotely: %v (continuing with local view)", err)
		}
		return
	}
	r.UpsertMany(tables)
}
