package remote

import (
	"context"
	"errors"
	"fmt"

	"loot-tracker/internal/document"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type FirestoreConfig struct {
	ProjectID       string
	CredentialsPath string
}

type Firestore struct {
	client *firestore.Client
	logger zerolog.Logger
}

func NewFirestore(ctx context.Context, cfg FirestoreConfig, logger zerolog.Logger) (*Firestore, error) {
	if cfg.ProjectID == "" {
		return nil, ErrUnavailable
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID: cfg.ProjectID,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}

	logger.Info().Str("project_id", cfg.ProjectID).Msg("firestore remote store ready")
	return &Firestore{client: client, logger: logger}, nil
}

func (f *Firestore) Query(ctx context.Context, collection, uid string) ([]document.Document, error) {
	iter := f.client.Collection(collection).Where(document.UserField, "==", uid).Documents(ctx)
	defer iter.Stop()

	var docs []document.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		doc := document.Document(snap.Data())
		if doc.ID() == "" {
			doc["id"] = snap.Ref.ID
		}
		docs = append(docs, doc.Normalize())
	}

	f.logger.Debug().
		Str("collection", collection).
		Str("uid", uid).
		Int("count", len(docs)).
		Msg("remote documents fetched")
	return docs, nil
}

func (f *Firestore) Upsert(ctx context.Context, collection, id string, doc document.Document, merge bool) error {
	ref := f.client.Collection(collection).Doc(id)
	data := map[string]interface{}(doc)

	var err error
	if merge {
		_, err = ref.Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
