// Package backup uploads JSON snapshots of every record set to object
// storage.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"loot-tracker/internal/domain"
	"loot-tracker/internal/storage"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
)

var (
	ErrNotConfigured    = errors.New("backup storage not configured")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

const (
	prefix       = "backups"
	deviceOwner  = "device"
	objectLayout = "20060102T150405Z"
)

type Snapshot struct {
	UserID      string              `json:"userId,omitempty"`
	TakenAt     time.Time           `json:"takenAt"`
	Characters  []domain.Character  `json:"characters"`
	DungeonRuns []domain.DungeonRun `json:"dungeonRuns"`
	BossRuns    []domain.BossRun    `json:"bossRuns"`
}

type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

type Store struct {
	client storage.Client
	bucket string
	logger zerolog.Logger
}

// NewStore returns a store that fails with ErrNotConfigured when client is
// nil.
func NewStore(client storage.Client, bucket string, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "backup").Str("bucket", bucket).Logger(),
	}
}

func ownerDir(uid string) string {
	if uid == "" {
		return path.Join(prefix, deviceOwner)
	}
	return path.Join(prefix, uid)
}

func ObjectKey(uid string, at time.Time) string {
	return path.Join(ownerDir(uid), at.UTC().Format(objectLayout)+".json")
}

// OwnedBy reports whether key lies under the snapshot directory of uid.
func OwnedBy(uid, key string) bool {
	return strings.HasPrefix(path.Clean(key), ownerDir(uid)+"/")
}

func (s *Store) Upload(ctx context.Context, snap Snapshot) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := ObjectKey(snap.UserID, snap.TakenAt)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	s.logger.Info().
		Str("key", key).
		Int("characters", len(snap.Characters)).
		Int("dungeon_runs", len(snap.DungeonRuns)).
		Int("boss_runs", len(snap.BossRuns)).
		Msg("snapshot uploaded")
	return key, nil
}

// List returns the snapshots of uid, newest first.
func (s *Store) List(ctx context.Context, uid string) ([]Object, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	out := []Object{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    ownerDir(uid) + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		out = append(out, Object{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out, nil
}

func (s *Store) Download(ctx context.Context, key string) (*Snapshot, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	defer obj.Close()

	var snap Snapshot
	if err := json.NewDecoder(obj).Decode(&snap); err != nil {
		// minio reports a missing object on first read
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
		}
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return &snap, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	s.logger.Info().Msg("bucket created")
	return nil
}
