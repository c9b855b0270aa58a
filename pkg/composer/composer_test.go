package composer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlaylabs/arshare/pkg/models"
)

// fakeSharer records the last share request and answers with a canned
// response or error.
type fakeSharer struct {
	lastReq *models.ShareRequest
	resp    *models.ShareResponse
	err     error
}

func (f *fakeSharer) CreateScene(ctx context.Context, req *models.ShareRequest) (*models.ShareResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func composed(t *testing.T, api SceneSharer) *Composer {
	t.Helper()
	c := New(api)
	require.NoError(t, c.SetBaseImage("data:image/png;base64,base"))
	require.NoError(t, c.SetOverlayImage("data:image/png;base64,overlay"))
	return c
}

func TestLifecycle_EmptyToComposed(t *testing.T) {
	c := New(nil)
	assert.Equal(t, StateEmpty, c.State())

	require.NoError(t, c.SetBaseImage("data:image/png;base64,base"))
	assert.Equal(t, StateBaseOnly, c.State())

	require.NoError(t, c.SetOverlayImage("data:image/png;base64,overlay"))
	assert.Equal(t, StateComposed, c.State())

	// First overlay placement applies the default transform.
	pos, rot, scale := c.Transform()
	assert.Equal(t, DefaultPosition, pos)
	assert.Equal(t, DefaultRotation, rot)
	assert.Equal(t, DefaultScale, scale)
}

func TestOverlayBeforeBaseIsRejected(t *testing.T) {
	c := New(nil)
	err := c.SetOverlayImage("data:image/png;base64,overlay")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateEmpty, c.State())
}

func TestClearOverlay_KeepsTransform(t *testing.T) {
	c := composed(t, nil)
	require.NoError(t, c.SetPosition(models.Vec3{X: 1, Y: 2, Z: 3}))
	require.NoError(t, c.SetScale(1.5))

	require.NoError(t, c.ClearOverlay())
	assert.Equal(t, StateBaseOnly, c.State())

	// Re-adding an overlay must not reapply defaults; the user's
	// placement survives the swap.
	require.NoError(t, c.SetOverlayImage("data:image/png;base64,other"))
	pos, _, scale := c.Transform()
	assert.Equal(t, models.Vec3{X: 1, Y: 2, Z: 3}, pos)
	assert.Equal(t, 1.5, scale)
}

func TestTransformEditableOnlyWhenComposed(t *testing.T) {
	c := New(nil)
	assert.ErrorIs(t, c.SetPosition(models.Vec3{X: 1}), ErrInvalidTransition)

	require.NoError(t, c.SetBaseImage("data:image/png;base64,base"))
	assert.ErrorIs(t, c.SetRotation(models.Vec3{X: 1}), ErrInvalidTransition)

	require.NoError(t, c.SetOverlayImage("data:image/png;base64,overlay"))
	assert.NoError(t, c.SetScale(0.5))
	assert.Error(t, c.SetScale(0))
	assert.Error(t, c.SetScale(-1))
}

func TestShare_Success(t *testing.T) {
	api := &fakeSharer{resp: &models.ShareResponse{
		Success:  true,
		UniqueID: "id-1",
		ShareURL: "https://ar.example.com/ar-view/id-1",
		QRCode:   "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=x",
	}}
	c := composed(t, api)
	require.NoError(t, c.SetScale(0.8))

	require.NoError(t, c.Share(context.Background()))

	assert.Equal(t, StateShared, c.State())
	assert.Equal(t, "id-1", c.SceneID())
	assert.Equal(t, "https://ar.example.com/ar-view/id-1", c.ShareURL())
	assert.NotEmpty(t, c.QRCode())

	// The submitted request carried the composer's exact fields.
	require.NotNil(t, api.lastReq)
	assert.Equal(t, "data:image/png;base64,base", api.lastReq.BaseImage)
	assert.Equal(t, "data:image/png;base64,overlay", api.lastReq.OverlayImage)
	assert.Equal(t, 0.8, *api.lastReq.Scale)

	// Shared scenes are frozen until reset.
	assert.ErrorIs(t, c.SetBaseImage("data:image/png;base64,new"), ErrInvalidTransition)
	assert.ErrorIs(t, c.Share(context.Background()), ErrInvalidTransition)
}

func TestShare_FailureKeepsPreSubmitState(t *testing.T) {
	api := &fakeSharer{err: errors.New("store down")}
	c := composed(t, api)

	err := c.Share(context.Background())
	require.Error(t, err)

	// Nothing is lost: still composed, images intact, error surfaced.
	assert.Equal(t, StateComposed, c.State())
	assert.Equal(t, "data:image/png;base64,base", c.BaseImage())
	assert.Equal(t, "data:image/png;base64,overlay", c.OverlayImage())
	assert.Equal(t, err, c.Err())

	// A retry after the backend recovers succeeds in place.
	api.err = nil
	api.resp = &models.ShareResponse{Success: true, UniqueID: "id-2", ShareURL: "https://ar.example.com/ar-view/id-2"}
	require.NoError(t, c.Share(context.Background()))
	assert.Equal(t, StateShared, c.State())
	assert.NoError(t, c.Err())
}

func TestShare_RequiresComposedState(t *testing.T) {
	c := New(&fakeSharer{})
	assert.ErrorIs(t, c.Share(context.Background()), ErrInvalidTransition)

	require.NoError(t, c.SetBaseImage("data:image/png;base64,base"))
	assert.ErrorIs(t, c.Share(context.Background()), ErrInvalidTransition)
}

func TestReset_FromAnyState(t *testing.T) {
	api := &fakeSharer{resp: &models.ShareResponse{Success: true, UniqueID: "id-1", ShareURL: "u"}}
	c := composed(t, api)
	require.NoError(t, c.SetPosition(models.Vec3{X: 9}))
	require.NoError(t, c.Share(context.Background()))

	c.Reset()

	assert.Equal(t, StateEmpty, c.State())
	assert.Empty(t, c.BaseImage())
	assert.Empty(t, c.OverlayImage())
	assert.Empty(t, c.ShareURL())
	pos, rot, scale := c.Transform()
	assert.Equal(t, DefaultPosition, pos)
	assert.Equal(t, DefaultRotation, rot)
	assert.Equal(t, DefaultScale, scale)
}

func TestSnapshotRestore(t *testing.T) {
	c := composed(t, nil)
	require.NoError(t, c.SetPosition(models.Vec3{X: 1, Y: 2, Z: 3}))
	require.NoError(t, c.SetScale(1.2))

	data, err := c.Snapshot()
	require.NoError(t, err)

	restored := New(nil)
	require.NoError(t, restored.Restore(data))

	assert.Equal(t, StateComposed, restored.State())
	assert.Equal(t, c.BaseImage(), restored.BaseImage())
	assert.Equal(t, c.OverlayImage(), restored.OverlayImage())
	pos, _, scale := restored.Transform()
	assert.Equal(t, models.Vec3{X: 1, Y: 2, Z: 3}, pos)
	assert.Equal(t, 1.2, scale)

	// Restoring a base-only snapshot lands in BaseOnly.
	baseOnly := New(nil)
	require.NoError(t, baseOnly.SetBaseImage("data:image/png;base64,base"))
	data, err = baseOnly.Snapshot()
	require.NoError(t, err)
	restored = New(nil)
	require.NoError(t, restored.Restore(data))
	assert.Equal(t, StateBaseOnly, restored.State())
}

func TestRestore_RejectsGarbage(t *testing.T) {
	c := New(nil)
	assert.Error(t, c.Restore([]byte("not json")))
}
