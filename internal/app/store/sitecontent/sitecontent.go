// internal/app/store/sitecontent/sitecontent.go
package sitecontent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/curelo/landingcms/internal/app/system/txn"
	"github.com/curelo/landingcms/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names.
const (
	PointerCollection  = "site_content"
	RevisionCollection = "site_content_revisions"
)

const revisionPrefix = "content/revisions/"

// ErrRevisionNotFound is returned by LoadRevision for an unknown id.
var ErrRevisionNotFound = errors.New("revision not found")

// Pointer is the singleton document naming the current revision.
type Pointer struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Singleton   bool               `bson:"singleton"`
	RevisionID  string             `bson:"revision_id"`
	CurrentPath string             `bson:"current_path"`
	SizeBytes   int64              `bson:"size_bytes"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	UpdatedBy   string             `bson:"updated_by"`
}

// Revision records one published document blob.
type Revision struct {
	ID          string    `bson:"_id" json:"id"`
	Path        string    `bson:"path" json:"path"`
	SizeBytes   int64     `bson:"size_bytes" json:"sizeBytes"`     // JSON size
	StoredBytes int64     `bson:"stored_bytes" json:"storedBytes"` // compressed size
	Pages       int       `bson:"pages" json:"pages"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	CreatedBy   string    `bson:"created_by" json:"createdBy"`
}

// Store persists the site document. Each publish writes a new compressed
// blob, then moves the singleton pointer to it, so readers always see one
// whole document and the last completed write wins.
type Store struct {
	db        *mongo.Database
	pointers  *mongo.Collection
	revisions *mongo.Collection
	blobs     storage.Store
	enc       *zstd.Encoder
	dec       *zstd.Decoder
	logger    *zap.Logger
}

// New creates a Store.
func New(db *mongo.Database, blobs storage.Store, logger *zap.Logger) (*Store, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Store{
		db:        db,
		pointers:  db.Collection(PointerCollection),
		revisions: db.Collection(RevisionCollection),
		blobs:     blobs,
		enc:       enc,
		dec:       dec,
		logger:    logger,
	}, nil
}

// Current returns the pointer document, or nil when nothing was published.
func (s *Store) Current(ctx context.Context) (*Pointer, error) {
	var p Pointer
	err := s.pointers.FindOne(ctx, bson.M{"singleton": true}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Load returns the current document, or nil when nothing was published.
func (s *Store) Load(ctx context.Context) (*models.SiteDocument, error) {
	p, err := s.Current(ctx)
	if err != nil || p == nil {
		return nil, err
	}
	return s.readBlob(ctx, p.CurrentPath)
}

// LoadRevision reads a specific revision.
func (s *Store) LoadRevision(ctx context.Context, id string) (*models.SiteDocument, error) {
	var rev Revision
	err := s.revisions.FindOne(ctx, bson.M{"_id": id}).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRevisionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.readBlob(ctx, rev.Path)
}

func (s *Store) readBlob(ctx context.Context, path string) (*models.SiteDocument, error) {
	rc, err := s.blobs.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read content blob %s: %w", path, err)
	}
	defer rc.Close()

	compressed, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read content blob %s: %w", path, err)
	}
	raw, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress content blob %s: %w", path, err)
	}
	var doc models.SiteDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode content blob %s: %w", path, err)
	}
	return &doc, nil
}

// Save writes doc as a new revision and makes it current.
func (s *Store) Save(ctx context.Context, doc *models.SiteDocument, actor string) (*Revision, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode site document: %w", err)
	}
	compressed := s.enc.EncodeAll(raw, nil)

	now := time.Now().UTC()
	rev := &Revision{
		ID:          uuid.NewString(),
		SizeBytes:   int64(len(raw)),
		StoredBytes: int64(len(compressed)),
		Pages:       len(doc.Pages),
		CreatedAt:   now,
		CreatedBy:   actor,
	}
	rev.Path = revisionPrefix + rev.ID + ".json.zst"

	if err := s.blobs.Put(ctx, rev.Path, bytes.NewReader(compressed), &storage.PutOptions{
		ContentType: "application/zstd",
	}); err != nil {
		return nil, fmt.Errorf("write content blob: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"singleton":    true,
			"revision_id":  rev.ID,
			"current_path": rev.Path,
			"size_bytes":   rev.SizeBytes,
			"updated_at":   now,
			"updated_by":   actor,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}
	opts := options.Update().SetUpsert(true)

	err = txn.Run(ctx, s.db, s.logger, func(ctx context.Context) error {
		if _, err := s.revisions.InsertOne(ctx, rev); err != nil {
			return fmt.Errorf("record revision: %w", err)
		}
		if _, err := s.pointers.UpdateOne(ctx, bson.M{"singleton": true}, update, opts); err != nil {
			// Without a transaction the revision row is already written.
			_, _ = s.revisions.DeleteOne(ctx, bson.M{"_id": rev.ID})
			return fmt.Errorf("update content pointer: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discardBlob(ctx, rev.Path)
		return nil, err
	}

	s.logger.Info("site content saved",
		zap.String("revision", rev.ID),
		zap.Int64("json_bytes", rev.SizeBytes),
		zap.Int64("stored_bytes", rev.StoredBytes),
		zap.Int("pages", rev.Pages),
		zap.String("actor", actor))
	return rev, nil
}

// ListRevisions returns revisions newest first. limit <= 0 returns all.
func (s *Store) ListRevisions(ctx context.Context, limit int64) ([]Revision, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.revisions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Revision
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PruneRevisions deletes all but the newest keep revisions. The current
// revision is never deleted. It returns how many revisions were removed.
func (s *Store) PruneRevisions(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	revs, err := s.ListRevisions(ctx, 0)
	if err != nil {
		return 0, err
	}
	if len(revs) <= keep {
		return 0, nil
	}
	cur, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, rev := range revs[keep:] {
		if cur != nil && rev.ID == cur.RevisionID {
			continue
		}
		if err := s.blobs.Delete(ctx, rev.Path); err != nil {
			s.logger.Warn("failed to delete revision blob",
				zap.String("revision", rev.ID),
				zap.String("path", rev.Path),
				zap.Error(err))
			continue
		}
		if _, err := s.revisions.DeleteOne(ctx, bson.M{"_id": rev.ID}); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *Store) discardBlob(ctx context.Context, path string) {
	if err := s.blobs.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to remove orphaned content blob",
			zap.String("path", path),
			zap.Error(err))
	}
}
