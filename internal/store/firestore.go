package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// setting is the Firestore document stored per key.
type setting struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// FirestoreStore keeps one document per key in a collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore creates a Firestore client for projectID.
func NewFirestoreStore(ctx context.Context, projectID, collection string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore store")
	}
	if collection == "" {
		collection = "settings"
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &FirestoreStore{client: client, collection: collection}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, key string) (string, error) {
	snap, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s/%s: %w", s.collection, key, err)
	}
	var rec setting
	if err := snap.DataTo(&rec); err != nil {
		return "", fmt.Errorf("failed to decode %s/%s: %w", s.collection, key, err)
	}
	return rec.Value, nil
}

func (s *FirestoreStore) Set(ctx context.Context, key, value string) error {
	rec := setting{Value: value, UpdatedAt: time.Now()}
	if _, err := s.client.Collection(s.collection).Doc(key).Set(ctx, rec); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", s.collection, key, err)
	}
	return nil
}

// Update runs fn inside a Firestore transaction, so concurrent writers on
// other instances cannot interleave between the read and the write.
func (s *FirestoreStore) Update(ctx context.Context, key string, fn func(current string) (string, error)) error {
	ref := s.client.Collection(s.collection).Doc(key)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current string
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			var rec setting
			if err := snap.DataTo(&rec); err != nil {
				return fmt.Errorf("failed to decode %s/%s: %w", s.collection, key, err)
			}
			current = rec.Value
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return tx.Set(ref, setting{Value: next, UpdatedAt: time.Now()})
	})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", s.collection, key, err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
