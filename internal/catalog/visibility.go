package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"loot-tracker/internal/domain"
	"loot-tracker/internal/localstore"
)

var ErrUnknownEntry = errors.New("unknown catalog entry")

// Visibility remembers which catalog entries the user hid from pickers.
type Visibility struct {
	mu      sync.Mutex
	kv      localstore.KV
	catalog *Catalog
}

func NewVisibility(kv localstore.KV, catalog *Catalog) *Visibility {
	return &Visibility{kv: kv, catalog: catalog}
}

func hiddenKey(kind domain.RunKind) string {
	if kind == domain.KindBoss {
		return localstore.HiddenBossesKey
	}
	return localstore.HiddenDungeonsKey
}

func (v *Visibility) Hidden(ctx context.Context, kind domain.RunKind) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hidden(ctx, kind)
}

// Toggle flips the hidden state of an entry and reports whether it is now
// hidden.
func (v *Visibility) Toggle(ctx context.Context, kind domain.RunKind, name string) (bool, error) {
	entry, ok := v.catalog.Lookup(kind, name)
	if !ok {
		return false, fmt.Errorf("%w: %s %q", ErrUnknownEntry, kind, name)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	names, err := v.hidden(ctx, kind)
	if err != nil {
		return false, err
	}

	next := make([]string, 0, len(names)+1)
	hidden := true
	for _, n := range names {
		if n == entry.Name {
			hidden = false
			continue
		}
		next = append(next, n)
	}
	if hidden {
		next = append(next, entry.Name)
	}
	sort.Strings(next)

	data, err := json.Marshal(next)
	if err != nil {
		return false, err
	}
	if err := v.kv.Set(ctx, hiddenKey(kind), data); err != nil {
		return false, fmt.Errorf("failed to save hidden %s entries: %w", kind, err)
	}
	return hidden, nil
}

// Visible lists catalog entries of kind that are not hidden, in catalog order.
func (v *Visibility) Visible(ctx context.Context, kind domain.RunKind) ([]Entry, error) {
	names, err := v.Hidden(ctx, kind)
	if err != nil {
		return nil, err
	}
	hidden := make(map[string]struct{}, len(names))
	for _, n := range names {
		hidden[n] = struct{}{}
	}

	var out []Entry
	for _, e := range v.catalog.Entries(kind) {
		if _, ok := hidden[e.Name]; !ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (v *Visibility) hidden(ctx context.Context, kind domain.RunKind) ([]string, error) {
	data, ok, err := v.kv.Get(ctx, hiddenKey(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to read hidden %s entries: %w", kind, err)
	}
	names := []string{}
	if !ok || len(data) == 0 {
		return names, nil
	}
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to decode hidden %s entries: %w", kind, err)
	}
	return names, nil
}
