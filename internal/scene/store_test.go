package scene

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlaylabs/arshare/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetByID_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &models.SceneRecord{
		BaseImageURL:    "https://img.example.com/base.png",
		OverlayImageURL: "https://img.example.com/overlay.png",
		Position:        models.Vec3{X: 0, Y: 0.5, Z: 0.1},
		Rotation:        models.Vec3{X: math.Pi / 2, Y: 0, Z: 0},
		Scale:           0.8,
	}

	id, err := s.Create(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)

	// Numeric fields round-trip exactly.
	assert.Equal(t, rec.Position, got.Position)
	assert.Equal(t, rec.Rotation, got.Rotation)
	assert.Equal(t, rec.Scale, got.Scale)
	assert.Equal(t, rec.BaseImageURL, got.BaseImageURL)
	assert.Equal(t, rec.OverlayImageURL, got.OverlayImageURL)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, 5*time.Second)
}

func TestCreate_GeneratesDistinctIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := s.Create(ctx, &models.SceneRecord{
			BaseImageURL:    "https://img.example.com/base.png",
			OverlayImageURL: "https://img.example.com/overlay.png",
			Scale:           1,
		})
		require.NoError(t, err)
		require.False(t, seen[id], "id %s generated twice", id)
		seen[id] = true
	}
}

func TestCreate_DuplicateCallerID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &models.SceneRecord{
		ID:              "fixed-id",
		BaseImageURL:    "https://img.example.com/base.png",
		OverlayImageURL: "https://img.example.com/overlay.png",
		Scale:           1,
	}
	_, err := s.Create(ctx, rec)
	require.NoError(t, err)

	dup := &models.SceneRecord{
		ID:              "fixed-id",
		BaseImageURL:    "https://img.example.com/other.png",
		OverlayImageURL: "https://img.example.com/other2.png",
		Scale:           1,
	}
	_, err = s.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateID)

	// The original record is untouched.
	got, err := s.GetByID(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/base.png", got.BaseImageURL)
}

func TestCreate_RejectsMissingImageURLs(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Create(context.Background(), &models.SceneRecord{
		BaseImageURL: "https://img.example.com/base.png",
		Scale:        1,
	})
	assert.Error(t, err)
}

func TestGetByID_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetByID(context.Background(), "never-created-id-12")
	assert.ErrorIs(t, err, ErrNotFound)
}
