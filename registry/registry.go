// Package registry holds the ordered set of toolbar shortcuts. Memory is the
// source of truth; writes to the durable store happen asynchronously and a
// failed write is logged, never rolled back.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dysaccess/log"
	"dysaccess/shortcut"
	"dysaccess/store"
)

const DefaultCapacity = 6

type Op int

const (
	Added Op = iota
	Updated
	Removed
)

func (o Op) String() string {
	switch o {
	case Added:
		return "add"
	case Updated:
		return "update"
	case Removed:
		return "remove"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

type Change struct {
	Op     Op
	Record shortcut.Record
}

type Options struct {
	// Capacity caps the number of shortcuts. Zero means no limit.
	Capacity int
	// Defaults seed an empty or unreachable store. Nil uses shortcut.Defaults().
	Defaults []shortcut.Record
	// WriteTimeout bounds each durable write.
	WriteTimeout time.Duration
	// OnPersistError is called from the writer goroutine after a failed write.
	// It must not call back into the registry.
	OnPersistError func(op Op, id string, err error)
	Now            func() time.Time
}

type write struct {
	op  Op
	rec shortcut.Record
	// mark records that the defaults were seeded instead of writing rec.
	mark bool
}

type Registry struct {
	mu      sync.RWMutex
	records []shortcut.Record
	subs    map[chan Change]struct{}

	store store.Store
	opts  Options

	queue   chan write
	pending sync.WaitGroup
	done    chan struct{}
	closed  bool
}

// New builds a registry over st. A nil store keeps records in memory only.
// The registry starts with the default set until Load is called.
func New(st store.Store, opts Options) *Registry {
	if opts.Defaults == nil {
		opts.Defaults = shortcut.Defaults()
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Registry{
		records: cloneAll(opts.Defaults),
		subs:    make(map[chan Change]struct{}),
		store:   st,
		opts:    opts,
		queue:   make(chan write, 64),
		done:    make(chan struct{}),
	}
	go r.writer()
	return r
}

// Load replaces the in-memory list with the store's contents. An unreachable
// store leaves the defaults in place and returns the error for reporting.
// The defaults are written to the store once, under fresh IDs; a store that
// remembers seeding stays empty after the user removed every shortcut.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	recs, err := r.store.Load(ctx)
	if err != nil {
		log.Warnf("load shortcuts failed, using defaults: %v", err)
		return fmt.Errorf("load shortcuts: %w", err)
	}
	seeded := false
	seeder, marks := r.store.(store.Seeder)
	if marks {
		if seeded, err = seeder.Seeded(ctx); err != nil {
			log.Warnf("read seed marker failed, using defaults: %v", err)
			return fmt.Errorf("load shortcuts: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case len(recs) > 0:
		r.records = recs
		log.Infof("loaded %d shortcuts", len(recs))
	case seeded:
		r.records = nil
		log.Info("shortcut store is empty")
		return nil
	default:
		now := r.opts.Now()
		r.records = cloneAll(r.opts.Defaults)
		for i := range r.records {
			r.records[i].ID = uuid.NewString()
			if r.records[i].CreatedAt.IsZero() {
				r.records[i].CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
			}
			r.enqueue(write{op: Added, rec: r.records[i]})
		}
		log.Infof("seeded %d default shortcuts", len(r.records))
	}
	if marks && !seeded {
		r.enqueue(write{op: Added, mark: true})
	}
	return nil
}

// List returns a snapshot of the current shortcuts in insertion order.
func (r *Registry) List() []shortcut.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.records)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *Registry) Get(id string) (shortcut.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		return r.records[i], nil
	}
	return shortcut.Record{}, &shortcut.NotFoundError{ID: id}
}

// Add validates rec and appends it. An empty ID gets a fresh one. The stored
// record is returned.
func (r *Registry) Add(rec shortcut.Record) (shortcut.Record, error) {
	rec = shortcut.Normalize(rec)
	if err := shortcut.Validate(rec); err != nil {
		return shortcut.Record{}, err
	}

	r.mu.Lock()
	if r.opts.Capacity > 0 && len(r.records) >= r.opts.Capacity {
		r.mu.Unlock()
		return shortcut.Record{}, shortcut.CapacityError(r.opts.Capacity)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if r.index(rec.ID) >= 0 {
		r.mu.Unlock()
		return shortcut.Record{}, &shortcut.ValidationError{Field: "id", Reason: fmt.Sprintf("%q already exists", rec.ID)}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.opts.Now()
	}
	r.records = append(r.records, rec)
	r.enqueue(write{op: Added, rec: rec})
	r.mu.Unlock()

	log.ShortcutEvent(Added.String(), rec.ID, rec.Name)
	r.publish(Change{Op: Added, Record: rec})
	return rec, nil
}

// Update replaces the record with the given id wholesale. The stored record
// keeps its id and creation time.
func (r *Registry) Update(id string, rec shortcut.Record) (shortcut.Record, error) {
	rec.ID = id
	rec = shortcut.Normalize(rec)
	if err := shortcut.Validate(rec); err != nil {
		return shortcut.Record{}, err
	}

	r.mu.Lock()
	i := r.index(id)
	if i < 0 {
		r.mu.Unlock()
		return shortcut.Record{}, &shortcut.NotFoundError{ID: id}
	}
	rec.CreatedAt = r.records[i].CreatedAt
	r.records[i] = rec
	r.enqueue(write{op: Updated, rec: rec})
	r.mu.Unlock()

	log.ShortcutEvent(Updated.String(), rec.ID, rec.Name)
	r.publish(Change{Op: Updated, Record: rec})
	return rec, nil
}

func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	i := r.index(id)
	if i < 0 {
		r.mu.Unlock()
		return &shortcut.NotFoundError{ID: id}
	}
	gone := r.records[i]
	r.records = append(r.records[:i:i], r.records[i+1:]...)
	r.enqueue(write{op: Removed, rec: gone})
	r.mu.Unlock()

	log.ShortcutEvent(Removed.String(), gone.ID, gone.Name)
	r.publish(Change{Op: Removed, Record: gone})
	return nil
}

// Subscribe returns a channel of changes and a cancel func. Changes are
// dropped for a subscriber whose buffer is full.
func (r *Registry) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)
	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			if _, ok := r.subs[ch]; ok {
				delete(r.subs, ch)
				close(ch)
			}
			r.mu.Unlock()
		})
	}
}

func (r *Registry) publish(c Change) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Flush blocks until every queued write has been attempted.
func (r *Registry) Flush() {
	r.pending.Wait()
}

// Close flushes pending writes, stops the writer and closes the store.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	for ch := range r.subs {
		delete(r.subs, ch)
		close(ch)
	}
	r.mu.Unlock()

	<-r.done
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// enqueue must be called with r.mu held so the queue order matches memory order.
func (r *Registry) enqueue(w write) {
	if r.store == nil || r.closed {
		return
	}
	r.pending.Add(1)
	r.queue <- w
}

func (r *Registry) writer() {
	defer close(r.done)
	for w := range r.queue {
		err := r.persist(w)
		if err != nil {
			op := w.op.String()
			if w.mark {
				op = "mark_seeded"
			}
			log.Persistence(op, w.rec.ID, err)
			if r.opts.OnPersistError != nil {
				r.opts.OnPersistError(w.op, w.rec.ID, err)
			}
		}
		r.pending.Done()
	}
}

func (r *Registry) persist(w write) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.WriteTimeout)
	defer cancel()
	if w.mark {
		return r.store.(store.Seeder).MarkSeeded(ctx)
	}
	switch w.op {
	case Added:
		return r.store.Insert(ctx, w.rec)
	case Updated:
		err := r.store.Update(ctx, w.rec)
		// Records that only ever lived in memory (defaults after a failed load)
		// are created on first edit.
		if errors.Is(err, shortcut.ErrNotFound) {
			return r.store.Insert(ctx, w.rec)
		}
		return err
	case Removed:
		err := r.store.Delete(ctx, w.rec.ID)
		if errors.Is(err, shortcut.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (r *Registry) index(id string) int {
	for i := range r.records {
		if r.records[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(in []shortcut.Record) []shortcut.Record {
	out := make([]shortcut.Record, len(in))
	copy(out, in)
	return out
}
