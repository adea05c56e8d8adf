package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/revops/internal/assemble"
	"github.com/soyeahso/revops/internal/crm"
	"github.com/soyeahso/revops/internal/logging"
	"github.com/soyeahso/revops/internal/resolve"
)

// Dataset is one immutable load of normalized tables. The buying-group view
// and resolver are derived at most once per load and shared by every
// question asked against it.
type Dataset struct {
	LoadID   string
	Source   string
	LoadedAt time.Time

	tables map[crm.Kind]crm.Table

	viewOnce     sync.Once
	view         crm.View
	resolverOnce sync.Once
	resolver     *resolve.Resolver
}

// Open loads and normalizes every table from src. A schema mismatch in any
// core table is fatal.
func Open(ctx context.Context, src Source, log *logging.Logger) (*Dataset, error) {
	log = log.Sub("dataset")
	start := time.Now()

	raw, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src.Describe(), err)
	}
	ds, err := New(src.Describe(), raw)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("loadId", ds.LoadID).
		Str("source", ds.Source).
		Int("contacts", ds.Table(crm.Contacts).Len()).
		Int("deals", ds.Table(crm.Deals).Len()).
		Int("roles", ds.Table(crm.Roles).Len()).
		Dur("duration", time.Since(start)).
		Msg("dataset loaded")
	return ds, nil
}

// New normalizes raw tables into a dataset without any I/O. Missing core
// tables are reported; missing passthrough tables become empty.
func New(source string, raw map[crm.Kind]crm.Table) (*Dataset, error) {
	ds := &Dataset{
		LoadID:   uuid.New().String(),
		Source:   source,
		LoadedAt: time.Now(),
		tables:   make(map[crm.Kind]crm.Table, len(crm.AllKinds)),
	}
	for _, kind := range crm.AllKinds {
		t, ok := raw[kind]
		if !ok {
			if Required(kind) {
				return nil, fmt.Errorf("dataset %s: missing table %s", source, kind)
			}
			ds.tables[kind] = crm.NewTable(kind, nil)
			continue
		}
		t.Kind = kind
		norm, err := crm.Normalize(t)
		if err != nil {
			return nil, err
		}
		ds.tables[kind] = norm
	}
	return ds, nil
}

// Table returns a normalized table. Unknown kinds yield an empty table.
func (d *Dataset) Table(kind crm.Kind) crm.Table {
	t, ok := d.tables[kind]
	if !ok {
		return crm.NewTable(kind, nil)
	}
	return t
}

// Counts returns the record count of every table.
func (d *Dataset) Counts() map[crm.Kind]int {
	out := make(map[crm.Kind]int, len(d.tables))
	for k, t := range d.tables {
		out[k] = t.Len()
	}
	return out
}

// View returns the buying-group view, computing it on first use.
func (d *Dataset) View() crm.View {
	d.viewOnce.Do(func() {
		d.view = crm.BuildBuyingGroupView(d.Table(crm.Roles), d.Table(crm.Contacts), d.Table(crm.Deals))
	})
	return d.view
}

// Resolver returns the entity resolver for this load.
func (d *Dataset) Resolver() *resolve.Resolver {
	d.resolverOnce.Do(func() {
		d.resolver = resolve.NewResolver(d.Table(crm.Accounts), d.Table(crm.Deals))
	})
	return d.resolver
}

// OpportunityNames lists the opportunities the assistant can answer about.
func (d *Dataset) OpportunityNames() []string {
	return d.View().OpportunityNames()
}

// Context resolves a question and assembles its context. An unresolved
// question yields an empty context and a false ok.
func (d *Dataset) Context(question string) (assemble.Context, resolve.Match, bool) {
	m, ok := d.Resolver().Resolve(question)
	ctx := assemble.Assemble(m.OpportunityName, d.View(), d.Table(crm.SalesActivities))
	return ctx, m, ok
}

// Holder owns the current dataset of a long-running process and swaps it
// atomically on reload.
type Holder struct {
	src Source
	log *logging.Logger

	mu  sync.RWMutex
	cur *Dataset
}

// NewHolder creates a holder that loads from src on first use.
func NewHolder(src Source, log *logging.Logger) *Holder {
	return &Holder{src: src, log: log}
}

// NewStaticHolder wraps an already loaded dataset. Reload re-reads src if
// it is non-nil.
func NewStaticHolder(ds *Dataset, src Source, log *logging.Logger) *Holder {
	return &Holder{src: src, log: log, cur: ds}
}

// Current returns the loaded dataset, loading it if needed.
func (h *Holder) Current(ctx context.Context) (*Dataset, error) {
	h.mu.RLock()
	ds := h.cur
	h.mu.RUnlock()
	if ds != nil {
		return ds, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur != nil {
		return h.cur, nil
	}
	ds, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	h.cur = ds
	return ds, nil
}

// Reload loads a fresh dataset and replaces the current one. On failure the
// previous dataset stays in place.
func (h *Holder) Reload(ctx context.Context) (*Dataset, error) {
	ds, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.cur = ds
	h.mu.Unlock()
	return ds, nil
}

func (h *Holder) load(ctx context.Context) (*Dataset, error) {
	if h.src == nil {
		return nil, fmt.Errorf("dataset holder has no source")
	}
	return Open(ctx, h.src, h.log)
}
