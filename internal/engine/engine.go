// Package engine implements the embedded container engine: schema-bound
// row storage with key addressing, read-committed transaction overlays,
// exclusive row locks, index and trigger catalogs, affinity-based
// partition routing and durable snapshots.
package engine

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tesserdb/tesser/internal/codec"
	"github.com/tesserdb/tesser/internal/errors"
	"github.com/tesserdb/tesser/internal/index"
	"github.com/tesserdb/tesser/internal/trigger"
	"github.com/tesserdb/tesser/internal/txn"
	"github.com/tesserdb/tesser/pkg/types"
)

// Options configures an engine instance.
type Options struct {
	// Partitions is the number of affinity hash slots.
	Partitions int
	// Notifier delivers trigger notifications. Nil disables delivery.
	Notifier *trigger.Notifier
	// SnapshotPath is the durable snapshot database. Empty disables
	// snapshots.
	SnapshotPath string
	// Logger defaults to a [engine]-prefixed standard logger.
	Logger *log.Logger
}

// Engine is the embedded container store. All methods are safe for
// concurrent use by multiple container sessions.
type Engine struct {
	mu         sync.RWMutex
	containers map[string]*containerState
	generation uint64

	partitions int
	locks      *lockTable
	notifier   *trigger.Notifier
	snapshot   *snapshotter
	logger     *log.Logger
}

// Handle names an open container at a point in its schema history. Row
// and schema operations through a handle fail with a stale-state error
// once the container is dropped, recreated or its column layout changed.
type Handle struct {
	name       string
	generation uint64
	version    uint64
}

// Name returns the container name the handle was opened with.
func (h Handle) Name() string { return h.name }

// Entry is one row of a batch put.
type Entry struct {
	Key types.Value
	Row types.Row
}

type containerState struct {
	mu       sync.Mutex
	schemaMu sync.Mutex

	name       string
	info       *types.ContainerInfo
	schema     *codec.Schema
	generation uint64
	partition  int

	// version counts layout changes. It is written under schemaMu but
	// read by handle resolution without any lock, hence atomic.
	version atomic.Uint64

	rows     map[string]types.Row
	order    []string
	indexes  []index.Resolved
	triggers []types.TriggerInfo
	overlays map[txn.ID]*overlay
}

// overlay is one transaction's uncommitted view of a container. A nil row
// marks a pending delete.
type overlay struct {
	rows  map[string]types.Row
	order []string
}

func newOverlay() *overlay {
	return &overlay{rows: make(map[string]types.Row)}
}

func (o *overlay) put(key string, row types.Row) {
	if _, seen := o.rows[key]; !seen {
		o.order = append(o.order, key)
	}
	o.rows[key] = row
}

type mutation struct {
	event types.TriggerEvent
	row   types.Row
}

// New creates an engine. When a snapshot path is configured, previously
// persisted containers are reloaded.
func New(opts Options) (*Engine, error) {
	if opts.Partitions < 1 {
		opts.Partitions = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[engine] ", log.LstdFlags)
	}
	e := &Engine{
		containers: make(map[string]*containerState),
		partitions: opts.Partitions,
		locks:      newLockTable(),
		notifier:   opts.Notifier,
		logger:     logger,
	}
	if opts.SnapshotPath != "" {
		snap, err := openSnapshotter(opts.SnapshotPath)
		if err != nil {
			return nil, err
		}
		e.snapshot = snap
		if err := e.reload(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Close releases the snapshot database.
func (e *Engine) Close() error {
	if e.snapshot != nil {
		return e.snapshot.close()
	}
	return nil
}

// PutContainer creates the container or opens it when one with the same
// name already exists. An existing container whose schema differs is
// rejected.
func (e *Engine) PutContainer(info *types.ContainerInfo) (Handle, error) {
	schema, err := codec.Bind(info)
	if err != nil {
		return Handle{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := strings.ToLower(info.Name())
	if state, ok := e.containers[key]; ok {
		state.mu.Lock()
		same := sameColumns(state.schema.Columns(), schema.Columns()) &&
			state.schema.ContainerType() == schema.ContainerType() &&
			state.schema.HasRowKey() == schema.HasRowKey()
		state.mu.Unlock()
		if !same {
			return Handle{}, errors.New(errors.ErrCategorySchema, errors.CodeInvalidSchema,
				"container "+info.Name()+" already exists with a different schema")
		}
		return state.handle(), nil
	}

	e.generation++
	state := &containerState{
		name:       info.Name(),
		info:       info.Clone(),
		schema:     schema,
		generation: e.generation,
		partition:  partitionOf(info.Name(), info.DataAffinity(), e.partitions),
		rows:       make(map[string]types.Row),
		overlays:   make(map[txn.ID]*overlay),
	}
	e.containers[key] = state
	e.logger.Printf("created container %s (partition %d)", info.Name(), state.partition)
	return state.handle(), nil
}

// GetContainer opens an existing container by name.
func (e *Engine) GetContainer(name string) (*types.ContainerInfo, Handle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	state, ok := e.containers[strings.ToLower(name)]
	if !ok {
		return nil, Handle{}, false
	}
	return state.snapshotInfo(), state.handle(), true
}

// DropContainer removes a container. Open handles on it become stale.
// Dropping a missing container reports false.
func (e *Engine) DropContainer(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := strings.ToLower(name)
	state, ok := e.containers[key]
	if !ok {
		return false
	}
	delete(e.containers, key)
	if e.snapshot != nil {
		if err := e.snapshot.drop(state.name); err != nil {
			e.logger.Printf("failed to drop snapshot of %s: %v", state.name, err)
		}
	}
	e.logger.Printf("dropped container %s", state.name)
	return true
}

// ContainerInfo returns the current definition behind a handle.
func (e *Engine) ContainerInfo(h Handle) (*types.ContainerInfo, error) {
	state, err := e.resolve(h)
	if err != nil {
		return nil, err
	}
	return state.snapshotInfo(), nil
}

// Schema returns the bound schema behind a handle.
func (e *Engine) Schema(h Handle) (*codec.Schema, error) {
	state, err := e.resolve(h)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.schema, nil
}

// Partition returns the affinity slot a handle's container routes to.
func (e *Engine) Partition(h Handle) (int, error) {
	state, err := e.resolve(h)
	if err != nil {
		return 0, err
	}
	return state.partition, nil
}

// Put writes a row. Inside a transaction the write lands in the overlay
// and the row lock is held until commit or abort; in one-shot mode
// (txnID is Nil) the write commits immediately. exists reports whether
// the key was already present in the caller's view.
func (e *Engine) Put(ctx context.Context, h Handle, id txn.ID, deadline time.Time,
	key types.Value, row types.Row) (bool, error) {
	state, err := e.resolve(h)
	if err != nil {
		return false, err
	}
	rowKey := key.KeyString()

	if id == txn.Nil {
		return e.oneShot(ctx, state, deadline, rowKey, func(exists bool) (bool, *mutation) {
			state.apply(rowKey, row)
			return exists, &mutation{event: types.TriggerEventPut, row: row}
		})
	}

	if err := e.locks.acquire(ctx, state.lockKey(rowKey), id, deadline); err != nil {
		return false, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	exists := state.visible(id, rowKey) != nil
	state.overlay(id).put(rowKey, row.Clone())
	return exists, nil
}

// PutAll writes a batch of rows. Duplicate keys collapse to the rearmost
// entry before any write happens. The batch is not atomic in one-shot
// mode: rows written before a failure stay written.
func (e *Engine) PutAll(ctx context.Context, h Handle, id txn.ID, deadline time.Time,
	entries []Entry) error {
	deduped := make([]Entry, 0, len(entries))
	last := make(map[string]int)
	for _, entry := range entries {
		k := entry.Key.KeyString()
		if at, seen := last[k]; seen {
			deduped[at] = entry
			continue
		}
		last[k] = len(deduped)
		deduped = append(deduped, entry)
	}
	for _, entry := range deduped {
		if _, err := e.Put(ctx, h, id, deadline, entry.Key, entry.Row); err != nil {
			return err
		}
	}
	return nil
}

// Get reads a row by key. Reads see committed state plus the caller's own
// uncommitted writes. With forUpdate the row lock is taken and held until
// the transaction ends, whether or not the row exists.
func (e *Engine) Get(ctx context.Context, h Handle, id txn.ID, deadline time.Time,
	key types.Value, forUpdate bool) (types.Row, bool, error) {
	state, err := e.resolve(h)
	if err != nil {
		return nil, false, err
	}
	rowKey := key.KeyString()

	if forUpdate {
		if id == txn.Nil {
			return nil, false, errors.NewModeError(
				"get for update is not allowed in autocommit mode")
		}
		if err := e.locks.acquire(ctx, state.lockKey(rowKey), id, deadline); err != nil {
			return nil, false, err
		}
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	row := state.visible(id, rowKey)
	if row == nil {
		return nil, false, nil
	}
	return row.Clone(), true, nil
}

// Remove deletes a row by key. Removing an absent key is a no-op
// reporting false. Inside a transaction the row lock stays held even
// though the row is gone from the caller's view.
func (e *Engine) Remove(ctx context.Context, h Handle, id txn.ID, deadline time.Time,
	key types.Value) (bool, error) {
	state, err := e.resolve(h)
	if err != nil {
		return false, err
	}
	rowKey := key.KeyString()

	if id == txn.Nil {
		return e.oneShot(ctx, state, deadline, rowKey, func(exists bool) (bool, *mutation) {
			if !exists {
				return false, nil
			}
			removed := state.rows[rowKey]
			state.unapply(rowKey)
			return true, &mutation{event: types.TriggerEventDelete, row: removed}
		})
	}

	if err := e.locks.acquire(ctx, state.lockKey(rowKey), id, deadline); err != nil {
		return false, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.visible(id, rowKey) == nil {
		// The lock is kept; record nothing.
		return false, nil
	}
	state.overlay(id).put(rowKey, nil)
	return true, nil
}

// Commit applies a transaction's overlay to committed state, fires
// triggers for the applied mutations and releases its locks.
func (e *Engine) Commit(h Handle, id txn.ID) error {
	state, err := e.resolve(h)
	if err != nil {
		e.Rollback(id)
		return err
	}

	state.mu.Lock()
	o := state.overlays[id]
	delete(state.overlays, id)
	var fired []mutation
	if o != nil {
		for _, rowKey := range o.order {
			row := o.rows[rowKey]
			if row == nil {
				if removed, ok := state.rows[rowKey]; ok {
					state.unapply(rowKey)
					fired = append(fired, mutation{event: types.TriggerEventDelete, row: removed})
				}
				continue
			}
			state.apply(rowKey, row)
			fired = append(fired, mutation{event: types.TriggerEventPut, row: row})
		}
	}
	state.mu.Unlock()

	e.locks.release(id)
	for _, m := range fired {
		e.fire(state, m)
	}
	return nil
}

// Rollback discards a transaction's overlays everywhere and releases its
// locks. It is safe on transactions that never wrote and on dropped
// containers.
func (e *Engine) Rollback(id txn.ID) {
	if id == txn.Nil {
		return
	}
	e.mu.RLock()
	for _, state := range e.containers {
		state.mu.Lock()
		delete(state.overlays, id)
		state.mu.Unlock()
	}
	e.mu.RUnlock()
	e.locks.release(id)
}

// Scan returns the caller's view of all rows in insertion order.
func (e *Engine) Scan(h Handle, id txn.ID) ([]types.Row, error) {
	state, err := e.resolve(h)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	o := state.overlays[id]
	var out []types.Row
	for _, rowKey := range state.order {
		if o != nil {
			if row, touched := o.rows[rowKey]; touched {
				if row != nil {
					out = append(out, row.Clone())
				}
				continue
			}
		}
		out = append(out, state.rows[rowKey].Clone())
	}
	if o != nil {
		for _, rowKey := range o.order {
			if _, committed := state.rows[rowKey]; committed {
				continue
			}
			if row := o.rows[rowKey]; row != nil {
				out = append(out, row.Clone())
			}
		}
	}
	return out, nil
}

// CreateIndex adds an index. Creating an equivalent index again is a
// no-op; conflicting definitions are rejected. Schema changes on a
// container serialize even when they end up changing nothing.
func (e *Engine) CreateIndex(h Handle, spec types.IndexInfo) (bool, error) {
	state, err := e.resolve(h)
	if err != nil {
		return false, err
	}
	state.schemaMu.Lock()
	defer state.schemaMu.Unlock()

	resolved, create, err := index.PlanCreate(state.schema, state.currentIndexes(), spec)
	if err != nil {
		return false, err
	}
	if !create {
		return false, nil
	}
	state.mu.Lock()
	state.indexes = append(state.indexes, resolved)
	state.mu.Unlock()
	e.logger.Printf("created %s index on %s column %d", resolved.Type, state.name, resolved.Column)
	return true, nil
}

// DropIndex removes every index matching the spec's set fields. Matching
// nothing is a no-op.
func (e *Engine) DropIndex(h Handle, spec types.IndexInfo) (int, error) {
	state, err := e.resolve(h)
	if err != nil {
		return 0, err
	}
	state.schemaMu.Lock()
	defer state.schemaMu.Unlock()

	matched, err := index.PlanDrop(state.schema, state.currentIndexes(), spec)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}
	drop := make(map[int]struct{}, len(matched))
	for _, at := range matched {
		drop[at] = struct{}{}
	}
	state.mu.Lock()
	kept := state.indexes[:0]
	for i, idx := range state.indexes {
		if _, gone := drop[i]; !gone {
			kept = append(kept, idx)
		}
	}
	state.indexes = kept
	state.mu.Unlock()
	return len(matched), nil
}

// Indexes lists the container's indexes.
func (e *Engine) Indexes(h Handle) ([]types.IndexInfo, error) {
	state, err := e.resolve(h)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.currentIndexInfos(), nil
}

// CreateTrigger registers a trigger. A trigger with the exact same name
// is replaced; a name differing only in case from an existing trigger is
// rejected.
func (e *Engine) CreateTrigger(h Handle, info types.TriggerInfo) error {
	state, err := e.resolve(h)
	if err != nil {
		return err
	}
	state.schemaMu.Lock()
	defer state.schemaMu.Unlock()

	if err := trigger.Validate(state.schema, info); err != nil {
		return err
	}
	replace, err := trigger.PlanCreate(state.currentTriggers(), info)
	if err != nil {
		return err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	if replace >= 0 {
		state.triggers[replace] = info.Clone()
		return nil
	}
	state.triggers = append(state.triggers, info.Clone())
	return nil
}

// DropTrigger removes a trigger by name, case-insensitively. Missing
// names report false.
func (e *Engine) DropTrigger(h Handle, name string) (bool, error) {
	state, err := e.resolve(h)
	if err != nil {
		return false, err
	}
	state.schemaMu.Lock()
	defer state.schemaMu.Unlock()

	at, ok := trigger.PlanDrop(state.currentTriggers(), name)
	if !ok {
		return false, nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	state.triggers = append(state.triggers[:at], state.triggers[at+1:]...)
	return true, nil
}

// Triggers lists the container's triggers.
func (e *Engine) Triggers(h Handle) ([]types.TriggerInfo, error) {
	state, err := e.resolve(h)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.currentTriggers(), nil
}

// UpdateLayout changes the container's column layout. The key column must
// stay the same; surviving columns keep their values by name, new columns
// fill with null or the type's empty value, and trigger column filters
// drop references to removed columns. Handles opened before the change
// become stale; the updating caller gets a fresh one back.
func (e *Engine) UpdateLayout(h Handle, columns []types.ColumnInfo) (Handle, error) {
	state, err := e.resolve(h)
	if err != nil {
		return Handle{}, err
	}
	state.schemaMu.Lock()
	defer state.schemaMu.Unlock()

	state.mu.Lock()
	defer state.mu.Unlock()

	next := types.NewContainerInfo(state.name, state.schema.ContainerType(),
		columns, state.schema.HasRowKey())
	schema, err := codec.Bind(next)
	if err != nil {
		return Handle{}, err
	}
	if state.schema.HasRowKey() {
		oldKey, _ := state.info.Column(0)
		newKey := columns[0]
		if !strings.EqualFold(oldKey.Name, newKey.Name) || oldKey.Type != newKey.Type {
			return Handle{}, errors.New(errors.ErrCategorySchema, errors.CodeInvalidSchema,
				"layout change must keep the key column")
		}
	}

	old := state.schema
	for rowKey, row := range state.rows {
		state.rows[rowKey] = remapRow(row, old, schema)
	}
	for id, o := range state.overlays {
		for k, row := range o.rows {
			if row != nil {
				o.rows[k] = remapRow(row, old, schema)
			}
		}
		state.overlays[id] = o
	}
	for i, trig := range state.triggers {
		state.triggers[i] = trigger.Rebind(trig, columns)
	}

	// Indexes follow their column to its new position; indexes on removed
	// columns are dropped with them.
	oldCols := old.Columns()
	kept := state.indexes[:0]
	for _, idx := range state.indexes {
		if idx.Column < 0 || idx.Column >= len(oldCols) {
			continue
		}
		if at, col, ok := schema.ColumnByName(oldCols[idx.Column].Name); ok &&
			col.Type == oldCols[idx.Column].Type {
			idx.Column = at
			kept = append(kept, idx)
		}
	}
	state.indexes = kept

	state.info = next.Clone()
	state.schema = schema
	state.version.Add(1)
	return state.handle(), nil
}

// Flush persists the container's committed rows to the snapshot database.
// Without a snapshot backend it only confirms the handle is live.
func (e *Engine) Flush(ctx context.Context, h Handle) error {
	state, err := e.resolve(h)
	if err != nil {
		return err
	}
	if e.snapshot == nil {
		return nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return e.snapshot.persist(ctx, state)
}

func (e *Engine) resolve(h Handle) (*containerState, error) {
	e.mu.RLock()
	state, ok := e.containers[strings.ToLower(h.name)]
	e.mu.RUnlock()
	if !ok || state.generation != h.generation {
		return nil, errors.NewStaleStateError(
			"container " + h.name + " was dropped or recreated")
	}
	if state.version.Load() != h.version {
		return nil, errors.NewStaleStateError(
			"container " + h.name + " schema was changed concurrently")
	}
	return state, nil
}

// oneShot runs an autocommit mutation under a short-lived lock owner so it
// still queues behind open transactions holding the row.
func (e *Engine) oneShot(ctx context.Context, state *containerState, deadline time.Time,
	rowKey string, apply func(exists bool) (bool, *mutation)) (bool, error) {
	owner := uuid.New()
	if err := e.locks.acquire(ctx, state.lockKey(rowKey), owner, deadline); err != nil {
		return false, err
	}
	defer e.locks.release(owner)

	state.mu.Lock()
	_, exists := state.rows[rowKey]
	result, m := apply(exists)
	state.mu.Unlock()

	if m != nil {
		e.fire(state, *m)
	}
	return result, nil
}

func (e *Engine) fire(state *containerState, m mutation) {
	if e.notifier == nil {
		return
	}
	state.mu.Lock()
	triggers := state.currentTriggers()
	columns := state.schema.Columns()
	state.mu.Unlock()
	if len(triggers) == 0 {
		return
	}
	go e.notifier.Notify(context.Background(), triggers, trigger.Event{
		Container: state.name,
		Kind:      m.event,
		Columns:   columns,
		Row:       m.row,
	})
}

func (e *Engine) reload() error {
	states, err := e.snapshot.loadAll()
	if err != nil {
		return err
	}
	for _, state := range states {
		e.generation++
		state.generation = e.generation
		state.partition = partitionOf(state.name, state.info.DataAffinity(), e.partitions)
		state.overlays = make(map[txn.ID]*overlay)
		e.containers[strings.ToLower(state.name)] = state
	}
	if len(states) > 0 {
		e.logger.Printf("reloaded %d containers from snapshot", len(states))
	}
	return nil
}

func (s *containerState) handle() Handle {
	return Handle{name: s.name, generation: s.generation, version: s.version.Load()}
}

func (s *containerState) lockKey(rowKey string) string {
	return strings.ToLower(s.name) + "\x00" + rowKey
}

func (s *containerState) snapshotInfo() *types.ContainerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := s.info.Clone()
	info.SetIndexes(s.currentIndexInfos())
	info.SetTriggers(s.currentTriggers())
	return info
}

// currentIndexInfos converts the resolved index set back to index
// specifications. Callers hold s.mu.
func (s *containerState) currentIndexInfos() []types.IndexInfo {
	cols := s.schema.Columns()
	out := make([]types.IndexInfo, 0, len(s.indexes))
	for _, idx := range s.indexes {
		info := types.IndexInfoByNumber(idx.Column, idx.Type).WithName(idx.Name)
		if idx.Column >= 0 && idx.Column < len(cols) {
			info.ColumnName = cols[idx.Column].Name
		}
		out = append(out, info)
	}
	return out
}

// visible returns the row as the transaction sees it, or nil. Callers
// hold s.mu.
func (s *containerState) visible(id txn.ID, rowKey string) types.Row {
	if o, ok := s.overlays[id]; ok && id != txn.Nil {
		if row, touched := o.rows[rowKey]; touched {
			return row
		}
	}
	return s.rows[rowKey]
}

func (s *containerState) overlay(id txn.ID) *overlay {
	o, ok := s.overlays[id]
	if !ok {
		o = newOverlay()
		s.overlays[id] = o
	}
	return o
}

// apply installs a committed row. Callers hold s.mu.
func (s *containerState) apply(rowKey string, row types.Row) {
	if _, exists := s.rows[rowKey]; !exists {
		s.order = append(s.order, rowKey)
	}
	s.rows[rowKey] = row.Clone()
}

// unapply removes a committed row. Callers hold s.mu.
func (s *containerState) unapply(rowKey string) {
	if _, exists := s.rows[rowKey]; !exists {
		return
	}
	delete(s.rows, rowKey)
	for i, k := range s.order {
		if k == rowKey {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *containerState) currentIndexes() []index.Resolved {
	return append([]index.Resolved(nil), s.indexes...)
}

func (s *containerState) currentTriggers() []types.TriggerInfo {
	out := make([]types.TriggerInfo, 0, len(s.triggers))
	for _, trig := range s.triggers {
		out = append(out, trig.Clone())
	}
	return out
}

func sameColumns(a, b []types.ColumnInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].Name, b[i].Name) || a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}

// remapRow rebuilds a row under a new layout, matching surviving columns
// by name and filling added columns with null or the empty value.
func remapRow(row types.Row, old, next *codec.Schema) types.Row {
	oldCols := old.Columns()
	out := make(types.Row, 0, next.ColumnCount())
	for _, col := range next.Columns() {
		found := false
		for i, prev := range oldCols {
			if strings.EqualFold(prev.Name, col.Name) && prev.Type == col.Type && i < len(row) {
				out = append(out, row[i].Clone())
				found = true
				break
			}
		}
		if !found {
			if col.Nullable {
				out = append(out, types.NewNull(col.Type))
			} else {
				out = append(out, types.EmptyValue(col.Type))
			}
		}
	}
	return out
}

// sortKeys is used by the snapshotter for deterministic persistence.
func sortKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
