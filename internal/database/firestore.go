package database

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jredh-dev/lostfound/config"
)

// Firestore adapts a Firestore client to DocumentStore.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore wraps an existing client.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

// OpenFirestore connects to the configured database. The default database
// comes from the Firebase app; a named database gets its own client.
func OpenFirestore(ctx context.Context, cfg config.FirebaseConfig, app *firebase.App) (*Firestore, error) {
	if cfg.UseEmulator {
		// The client library only reads the emulator address from the environment.
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorFirestoreHost); err != nil {
			return nil, fmt.Errorf("set firestore emulator host: %w", err)
		}
	}

	if cfg.FirestoreDatabase == "" || cfg.FirestoreDatabase == firestore.DefaultDatabaseID {
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		return NewFirestore(client), nil
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" && !cfg.UseEmulator {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.FirestoreDatabase, opts...)
	if err != nil {
		return nil, fmt.Errorf("open firestore database %s: %w", cfg.FirestoreDatabase, err)
	}
	return NewFirestore(client), nil
}

// Close closes the underlying client.
func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Find(ctx context.Context, q Query) ([]Document, error) {
	query := f.client.Collection(q.Collection).Query
	for _, flt := range q.Filters {
		query = query.Where(flt.Field, "==", flt.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, classify(err)
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if id == "" {
		return nil, nil
	}
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (f *Firestore) NewID(collection string) string {
	return f.client.Collection(collection).NewDoc().ID
}

func (f *Firestore) Create(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := f.client.Collection(collection).Doc(id).Create(ctx, fields)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("create %s/%s: %w", collection, id, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, fields); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, err)
	}
	return nil
}

// classify maps Firestore's missing composite index failure to ErrIndexUnready.
func classify(err error) error {
	if isIndexUnready(err) {
		return fmt.Errorf("%w: %v", ErrIndexUnready, err)
	}
	return err
}

func isIndexUnready(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if ok && st.Code() != codes.FailedPrecondition {
		return false
	}
	msg := err.Error()
	if ok {
		msg = st.Message()
	}
	return strings.Contains(strings.ToLower(msg), "requires an index")
}
