package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"loot-tracker/internal/constants"
	"loot-tracker/internal/document"
	"loot-tracker/internal/localstore"
	"loot-tracker/internal/reconcile"
	"loot-tracker/internal/remote"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMissingID   = errors.New("record has no id")
	ErrDuplicateID = errors.New("record id already exists")
)

type Record interface {
	GetID() string
}

// UserSource reports the signed-in user id, "" when there is none.
type UserSource interface {
	UserID() string
}

// Collection is the write-through record set of one entity type. The
// on-device copy is written before any remote call is issued; remote calls
// run in the background and their failures are only logged.
type Collection[T Record] struct {
	name   string
	key    string
	kv     localstore.KV
	remote remote.Store
	users  UserSource
	logger zerolog.Logger

	mu      sync.Mutex
	records []T
	pending sync.WaitGroup
}

func New[T Record](name, key string, kv localstore.KV, store remote.Store, users UserSource, logger zerolog.Logger) *Collection[T] {
	return &Collection[T]{
		name:    name,
		key:     key,
		kv:      kv,
		remote:  store,
		users:   users,
		logger:  logger.With().Str("collection", name).Logger(),
		records: []T{},
	}
}

func (c *Collection[T]) Name() string { return c.name }

// Load replaces the in-memory set with the on-device snapshot.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.readLocal(ctx)
	if err != nil {
		return err
	}
	records, err := document.ToRecords[T](docs)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", c.name, err)
	}
	c.records = records
	c.logger.Debug().Int("count", len(records)).Msg("collection loaded")
	return nil
}

func (c *Collection[T]) List() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.records[i], true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Add(ctx context.Context, record T) error {
	return c.AddIf(ctx, record, nil)
}

// AddIf adds record when check accepts the current set. check runs under the
// collection lock and its error is returned unchanged.
func (c *Collection[T]) AddIf(ctx context.Context, record T, check func([]T) error) error {
	id := record.GetID()
	if id == "" {
		return ErrMissingID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(id) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	if check != nil {
		if err := check(c.records); err != nil {
			return err
		}
	}

	prev := c.records
	c.records = append(append(make([]T, 0, len(prev)+1), prev...), record)
	if err := c.persist(ctx); err != nil {
		c.records = prev
		return err
	}

	c.pushRemote("add", id, record, false)
	return nil
}

// Remove is idempotent: removing an unknown id is not an error.
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(id); i >= 0 {
		prev := c.records
		next := make([]T, 0, len(prev)-1)
		next = append(next, prev[:i]...)
		c.records = append(next, prev[i+1:]...)
		if err := c.persist(ctx); err != nil {
			c.records = prev
			return err
		}
	}

	if uid := c.users.UserID(); uid != "" {
		c.background("remove", id, func(ctx context.Context) error {
			return c.remote.Delete(ctx, c.name, id)
		})
	}
	return nil
}

// Update applies fn to the record with the given id. An unknown id is a
// no-op and reports false.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false, nil
	}

	prev := c.records
	next := make([]T, len(prev))
	copy(next, prev)
	fn(&next[i])
	// the id is immutable
	if next[i].GetID() != id {
		return false, fmt.Errorf("update of %s changed its id", id)
	}
	c.records = next
	if err := c.persist(ctx); err != nil {
		c.records = prev
		return false, err
	}

	c.pushRemote("update", id, next[i], true)
	return true, nil
}

// ClearAll empties the set and removes every remote document of the current
// user for this entity type.
func (c *Collection[T]) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.records
	c.records = []T{}
	if err := c.persist(ctx); err != nil {
		c.records = prev
		return err
	}

	uid := c.users.UserID()
	if uid == "" {
		return nil
	}
	c.background("clear", uid, func(ctx context.Context) error {
		docs, err := c.remote.Query(ctx, c.name, uid)
		if err != nil {
			return err
		}
		g := new(errgroup.Group)
		for _, doc := range docs {
			id := doc.ID()
			if id == "" {
				continue
			}
			g.Go(func() error {
				return c.remote.Delete(ctx, c.name, id)
			})
		}
		return g.Wait()
	})
	return nil
}

// Replace swaps the whole set for records. With a user present the remote
// documents are rewritten to match: stale ids are deleted and every record is
// uploaded.
func (c *Collection[T]) Replace(ctx context.Context, records []T) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		id := r.GetID()
		if id == "" {
			return ErrMissingID
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	docs, err := document.FromRecords(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.records
	c.records = append(make([]T, 0, len(records)), records...)
	if err := c.persist(ctx); err != nil {
		c.records = prev
		return err
	}

	uid := c.users.UserID()
	if uid == "" {
		return nil
	}
	c.background("replace", uid, func(ctx context.Context) error {
		existing, err := c.remote.Query(ctx, c.name, uid)
		if err != nil {
			return err
		}
		g := new(errgroup.Group)
		for _, doc := range existing {
			id := doc.ID()
			if _, keep := seen[id]; keep || id == "" {
				continue
			}
			g.Go(func() error {
				return c.remote.Delete(ctx, c.name, id)
			})
		}
		for _, doc := range docs {
			g.Go(func() error {
				return c.remote.Upsert(ctx, c.name, doc.ID(), doc.WithUser(uid), false)
			})
		}
		return g.Wait()
	})
	return nil
}

// Reconcile merges the remote documents of uid with the on-device set, local
// fields winning, persists the result and uploads the records the remote
// store has never seen.
func (c *Collection[T]) Reconcile(ctx context.Context, uid string) error {
	remoteDocs, err := c.remote.Query(ctx, c.name, uid)
	if err != nil {
		return fmt.Errorf("failed to fetch remote %s: %w", c.name, err)
	}

	c.mu.Lock()
	localDocs, err := c.readLocal(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	merged, err := document.ToRecords[T](reconcile.MergeByID(remoteDocs, localDocs))
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to decode merged %s: %w", c.name, err)
	}
	prev := c.records
	c.records = merged
	if err := c.persist(ctx); err != nil {
		c.records = prev
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	uploads := reconcile.LocalOnly(remoteDocs, localDocs)
	g := new(errgroup.Group)
	for _, doc := range uploads {
		id := doc.ID()
		g.Go(func() error {
			if err := c.remote.Upsert(ctx, c.name, id, doc.WithUser(uid), false); err != nil {
				c.logger.Warn().Err(err).Str("id", id).Str("uid", uid).Msg("failed to upload local record")
			}
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Info().
		Str("uid", uid).
		Int("remote", len(remoteDocs)).
		Int("local", len(localDocs)).
		Int("merged", len(merged)).
		Int("uploaded", len(uploads)).
		Msg("collection reconciled")
	return nil
}

// Flush waits for in-flight remote calls or for ctx to end.
func (c *Collection[T]) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Collection[T]) indexOf(id string) int {
	for i, r := range c.records {
		if r.GetID() == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) readLocal(ctx context.Context) ([]document.Document, error) {
	data, _, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.name, err)
	}
	docs, err := document.DecodeList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.name, err)
	}
	return docs, nil
}

func (c *Collection[T]) persist(ctx context.Context) error {
	data, err := json.Marshal(c.records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.name, err)
	}
	if err := c.kv.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to persist %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T]) pushRemote(op, id string, record T, merge bool) {
	uid := c.users.UserID()
	if uid == "" {
		return
	}
	doc, err := document.FromRecord(record)
	if err != nil {
		c.logger.Error().Err(err).Str("id", id).Msg("failed to encode record for remote store")
		return
	}
	doc = doc.WithUser(uid)
	c.background(op, id, func(ctx context.Context) error {
		return c.remote.Upsert(ctx, c.name, id, doc, merge)
	})
}

func (c *Collection[T]) background(op, id string, task func(ctx context.Context) error) {
	c.pending.Add(1)

	g := new(errgroup.Group)
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
		defer cancel()
		return task(ctx)
	})

	go func() {
		defer c.pending.Done()
		if err := g.Wait(); err != nil {
			event := c.logger.Warn()
			if errors.Is(err, remote.ErrUnavailable) {
				event = c.logger.Debug()
			}
			event.Err(err).Str("op", op).Str("id", id).Msg("remote write failed")
		}
	}()
}
