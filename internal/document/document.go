// Package document holds the loosely typed record form shared by on-device
// snapshots and the remote document store.
package document

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// UserField tags remote documents with the owning user id.
const UserField = "uid"

type Document map[string]any

// ID returns the record identifier. Legacy records used numeric ids, those are
// rendered as integer strings. Missing or empty ids return "".
func (d Document) ID() string {
	switch v := d["id"].(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// Overlay copies every key of src onto a shallow copy of d. Keys present in
// both take the value from src.
func (d Document) Overlay(src Document) Document {
	out := make(Document, len(d)+len(src))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Normalize rewrites legacy field shapes in place: the id becomes a string and
// travelCost fills cost when cost is absent.
func (d Document) Normalize() Document {
	if id := d.ID(); id != "" {
		d["id"] = id
	}
	if _, ok := d["cost"]; !ok {
		if tc, ok := d["travelCost"]; ok {
			d["cost"] = tc
		}
	}
	return d
}

// WithUser returns a copy tagged with the user id.
func (d Document) WithUser(uid string) Document {
	return d.Overlay(Document{UserField: uid})
}

func FromRecord(record any) (Document, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode record document: %w", err)
	}
	return doc, nil
}

func FromRecords[T any](records []T) ([]Document, error) {
	docs := make([]Document, 0, len(records))
	for _, r := range records {
		doc, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ToRecords decodes documents into typed records. The user tag and any other
// unknown fields are dropped.
func ToRecords[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		data, err := json.Marshal(doc.Normalize())
		if err != nil {
			return nil, fmt.Errorf("failed to encode document %q: %w", doc.ID(), err)
		}
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to decode document %q: %w", doc.ID(), err)
		}
		out = append(out, record)
	}
	return out, nil
}

// DecodeList parses an on-device JSON array snapshot.
func DecodeList(data []byte) ([]Document, error) {
	if len(data) == 0 {
		return []Document{}, nil
	}
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	for _, d := range docs {
		d.Normalize()
	}
	return docs, nil
}
