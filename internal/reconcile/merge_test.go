package reconcile

import (
	"testing"

	"loot-tracker/internal/document"

	"github.com/google/go-cmp/cmp"
)

func TestMergeByIDLocalWins(t *testing.T) {
	remote := []document.Document{
		{"id": "r1", "cost": 100.0, "profit": 0.0, "uid": "u1"},
		{"id": "r2", "cost": 300.0, "uid": "u1"},
	}
	local := []document.Document{
		{"id": "r1", "cost": 100.0, "profit": 50.0},
		{"id": "r3", "cost": 10.0},
	}

	got := MergeByID(remote, local)
	want := []document.Document{
		{"id": "r1", "cost": 100.0, "profit": 50.0, "uid": "u1"},
		{"id": "r2", "cost": 300.0, "uid": "u1"},
		{"id": "r3", "cost": 10.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeByID mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeByIDIsIdempotent(t *testing.T) {
	remote := []document.Document{{"id": "a", "x": 1.0}, {"id": "b", "x": 2.0}}
	local := []document.Document{{"id": "b", "x": 3.0, "y": true}, {"id": "c"}}

	once := MergeByID(remote, local)
	twice := MergeByID(remote, once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second merge changed result (-once +twice):\n%s", diff)
	}
}

func TestMergeByIDSkipsMissingIDs(t *testing.T) {
	got := MergeByID(
		[]document.Document{{"name": "ghost"}},
		[]document.Document{{"id": ""}, {"id": "ok"}},
	)
	if diff := cmp.Diff([]document.Document{{"id": "ok"}}, got); diff != "" {
		t.Errorf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestMergeByIDEmpty(t *testing.T) {
	if got := MergeByID(nil, nil); len(got) != 0 {
		t.Errorf("expected empty merge, got %v", got)
	}
}

func TestLocalOnly(t *testing.T) {
	remote := []document.Document{{"id": "1"}, {"id": "2"}}
	local := []document.Document{
		{"id": "3", "v": 1.0},
		{"id": "2"},
		{"name": "no id"},
		{"id": "3", "w": 2.0},
		{"id": "4"},
	}

	got := LocalOnly(remote, local)
	want := []document.Document{
		{"id": "3", "v": 1.0, "w": 2.0},
		{"id": "4"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LocalOnly mismatch (-want +got):\n%s", diff)
	}
}
