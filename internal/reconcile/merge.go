// Package reconcile merges on-device record sets with the copies held in the
// remote store when a user becomes present.
package reconcile

import "loot-tracker/internal/document"

// MergeByID overlays local documents onto remote ones, key by key, matching
// on id. Output order is the order ids first appear, remote before local.
// Documents without an id are skipped.
func MergeByID(remote, local []document.Document) []document.Document {
	var order []string
	byID := make(map[string]document.Document, len(remote)+len(local))

	for _, group := range [][]document.Document{remote, local} {
		for _, doc := range group {
			id := doc.ID()
			if id == "" {
				continue
			}
			existing, ok := byID[id]
			if !ok {
				order = append(order, id)
			}
			byID[id] = existing.Overlay(doc)
		}
	}

	out := make([]document.Document, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// LocalOnly returns the local documents whose id is absent from remote, in
// local order. Duplicate local ids collapse into one overlaid document.
func LocalOnly(remote, local []document.Document) []document.Document {
	known := make(map[string]struct{}, len(remote))
	for _, doc := range remote {
		if id := doc.ID(); id != "" {
			known[id] = struct{}{}
		}
	}

	var out []document.Document
	for _, doc := range MergeByID(nil, local) {
		if _, ok := known[doc.ID()]; ok {
			continue
		}
		out = append(out, doc)
	}
	return out
}
