// Package scene persists shared AR scene records in SQLite.
package scene

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/overlaylabs/arshare/pkg/models"
)

var (
	// ErrNotFound means no record exists for the requested id.
	ErrNotFound = errors.New("scene not found")

	// ErrDuplicateID means a caller-supplied id is already taken.
	ErrDuplicateID = errors.New("duplicate scene id")
)

const schema = `
CREATE TABLE IF NOT EXISTS scenes (
	id TEXT PRIMARY KEY,
	base_image_url TEXT NOT NULL,
	overlay_image_url TEXT NOT NULL,
	pos_x REAL NOT NULL,
	pos_y REAL NOT NULL,
	pos_z REAL NOT NULL,
	rot_x REAL NOT NULL,
	rot_y REAL NOT NULL,
	rot_z REAL NOT NULL,
	scale REAL NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store is the system of record for SceneRecords. Records are
// write-once: Create and GetByID are the whole surface, there is no
// update or delete.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the scene database at dsn and applies the
// schema. Use ":memory:" for tests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open scene db: %w", err)
	}
	// Each pooled connection to ":memory:" would get its own empty
	// database; pin the pool to a single connection.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init scene schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists a new scene record and returns its id. An empty
// record id gets a generated UUID; a collision on a generated id is
// retried once with a fresh UUID before giving up, while a collision
// on a caller-supplied id fails with ErrDuplicateID.
func (s *Store) Create(ctx context.Context, rec *models.SceneRecord) (string, error) {
	if rec.BaseImageURL == "" || rec.OverlayImageURL == "" {
		return "", fmt.Errorf("scene record requires both image URLs")
	}

	generated := rec.ID == ""
	if generated {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	for {
		err := s.insert(ctx, rec)
		if err == nil {
			return rec.ID, nil
		}
		if !isUniqueViolation(err) {
			return "", fmt.Errorf("insert scene: %w", err)
		}
		if !generated {
			return "", ErrDuplicateID
		}
		// Astronomically unlikely with random UUIDs; regenerate once
		// instead of surfacing the collision to the user.
		generated = false
		rec.ID = uuid.New().String()
	}
}

func (s *Store) insert(ctx context.Context, rec *models.SceneRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scenes (id, base_image_url, overlay_image_url,
			pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, scale, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.BaseImageURL, rec.OverlayImageURL,
		rec.Position.X, rec.Position.Y, rec.Position.Z,
		rec.Rotation.X, rec.Rotation.Y, rec.Rotation.Z,
		rec.Scale, rec.CreatedAt.UnixMilli())
	return err
}

// GetByID returns the record for id, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*models.SceneRecord, error) {
	var (
		rec       models.SceneRecord
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, base_image_url, overlay_image_url,
			pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, scale, created_at
		FROM scenes WHERE id = ?`, id).Scan(
		&rec.ID, &rec.BaseImageURL, &rec.OverlayImageURL,
		&rec.Position.X, &rec.Position.Y, &rec.Position.Z,
		&rec.Rotation.X, &rec.Rotation.Y, &rec.Rotation.Z,
		&rec.Scale, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query scene: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
