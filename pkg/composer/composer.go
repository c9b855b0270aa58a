// Package composer holds the client-side editable scene state: a base
// image, an overlay image, and the overlay's 3D transform. It drives
// the share flow through an explicit state machine so UI code cannot
// submit a half-built scene.
//
// The composer is meant for a single-goroutine UI event loop and is
// not internally locked.
package composer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/overlaylabs/arshare/pkg/models"
)

// State is the composer lifecycle position.
type State string

const (
	StateEmpty      State = "EMPTY"
	StateBaseOnly   State = "BASE_ONLY"
	StateComposed   State = "COMPOSED"
	StateSubmitting State = "SUBMITTING"
	StateShared     State = "SHARED"
)

// Default overlay transform: the overlay floats just above the base
// plane, rotated flat against it, slightly smaller than full size.
var (
	DefaultPosition = models.Vec3{X: 0, Y: 0.5, Z: 0.1}
	DefaultRotation = models.Vec3{X: math.Pi / 2, Y: 0, Z: 0}
)

// DefaultScale is the overlay scale applied on first placement.
const DefaultScale = 0.8

// ErrInvalidTransition means the requested operation is not legal in
// the composer's current state.
var ErrInvalidTransition = errors.New("invalid composer transition")

// SceneSharer submits a composed scene; satisfied by client.Client.
type SceneSharer interface {
	CreateScene(ctx context.Context, req *models.ShareRequest) (*models.ShareResponse, error)
}

// Composer is the in-memory editable scene.
type Composer struct {
	api SceneSharer

	state        State
	baseImage    string // data URI or already-hosted URL
	overlayImage string
	position     models.Vec3
	rotation     models.Vec3
	scale        float64

	// Defaults apply only the first time an overlay is placed;
	// clearing and re-adding the overlay keeps the user's edits.
	overlayPlaced bool

	shareURL string
	sceneID  string
	qrCode   string
	lastErr  error
}

// New creates an empty composer that shares scenes through api.
func New(api SceneSharer) *Composer {
	return &Composer{
		api:      api,
		state:    StateEmpty,
		position: DefaultPosition,
		rotation: DefaultRotation,
		scale:    DefaultScale,
	}
}

// State returns the current lifecycle state.
func (c *Composer) State() State { return c.state }

// BaseImage returns the pending base image reference.
func (c *Composer) BaseImage() string { return c.baseImage }

// OverlayImage returns the pending overlay image reference.
func (c *Composer) OverlayImage() string { return c.overlayImage }

// Transform returns the overlay position, rotation and scale.
func (c *Composer) Transform() (models.Vec3, models.Vec3, float64) {
	return c.position, c.rotation, c.scale
}

// ShareURL returns the share link once the scene is Shared.
func (c *Composer) ShareURL() string { return c.shareURL }

// SceneID returns the server-assigned id once the scene is Shared.
func (c *Composer) SceneID() string { return c.sceneID }

// QRCode returns the scannable-code URL once the scene is Shared.
func (c *Composer) QRCode() string { return c.qrCode }

// Err returns the error from the most recent failed share, if any.
func (c *Composer) Err() error { return c.lastErr }

// SetBaseImage sets or replaces the base image. Legal while editing;
// not while a share is in flight or after sharing.
func (c *Composer) SetBaseImage(ref string) error {
	switch c.state {
	case StateEmpty:
		if ref == "" {
			return fmt.Errorf("%w: empty base image", ErrInvalidTransition)
		}
		c.baseImage = ref
		c.state = StateBaseOnly
		return nil
	case StateBaseOnly, StateComposed:
		if ref == "" {
			return fmt.Errorf("%w: empty base image", ErrInvalidTransition)
		}
		c.baseImage = ref
		return nil
	default:
		return fmt.Errorf("%w: cannot set base image in state %s", ErrInvalidTransition, c.state)
	}
}

// SetOverlayImage sets or replaces the overlay image. On the first
// placement the default transform is applied.
func (c *Composer) SetOverlayImage(ref string) error {
	switch c.state {
	case StateBaseOnly:
		if ref == "" {
			return fmt.Errorf("%w: empty overlay image", ErrInvalidTransition)
		}
		c.overlayImage = ref
		if !c.overlayPlaced {
			c.position = DefaultPosition
			c.rotation = DefaultRotation
			c.scale = DefaultScale
			c.overlayPlaced = true
		}
		c.state = StateComposed
		return nil
	case StateComposed:
		if ref == "" {
			return fmt.Errorf("%w: empty overlay image", ErrInvalidTransition)
		}
		c.overlayImage = ref
		return nil
	default:
		return fmt.Errorf("%w: cannot set overlay image in state %s", ErrInvalidTransition, c.state)
	}
}

// ClearOverlay removes the overlay image, keeping the transform so the
// user can swap overlays without re-positioning. Only a full Reset
// clears the transform.
func (c *Composer) ClearOverlay() error {
	if c.state != StateComposed {
		return fmt.Errorf("%w: cannot clear overlay in state %s", ErrInvalidTransition, c.state)
	}
	c.overlayImage = ""
	c.state = StateBaseOnly
	return nil
}

// SetPosition moves the overlay. Legal only while the scene is fully
// composed.
func (c *Composer) SetPosition(p models.Vec3) error {
	if err := c.editableTransform(); err != nil {
		return err
	}
	c.position = p
	return nil
}

// SetRotation rotates the overlay (radians).
func (c *Composer) SetRotation(r models.Vec3) error {
	if err := c.editableTransform(); err != nil {
		return err
	}
	c.rotation = r
	return nil
}

// SetScale scales the overlay. The editing UI constrains the usable
// range; the composer only rejects non-positive values.
func (c *Composer) SetScale(s float64) error {
	if err := c.editableTransform(); err != nil {
		return err
	}
	if s <= 0 {
		return fmt.Errorf("scale must be positive, got %v", s)
	}
	c.scale = s
	return nil
}

func (c *Composer) editableTransform() error {
	if c.state != StateComposed {
		return fmt.Errorf("%w: transform editable only when composed, state is %s", ErrInvalidTransition, c.state)
	}
	return nil
}

// Share submits the composed scene. On success the composer moves to
// Shared and exposes the share URL, id and QR code. On failure it
// returns to Composed with every field intact so the user can retry
// without re-entering anything.
func (c *Composer) Share(ctx context.Context) error {
	if c.state != StateComposed {
		return fmt.Errorf("%w: cannot share in state %s", ErrInvalidTransition, c.state)
	}

	c.state = StateSubmitting
	c.lastErr = nil

	scale := c.scale
	resp, err := c.api.CreateScene(ctx, &models.ShareRequest{
		BaseImage:    c.baseImage,
		OverlayImage: c.overlayImage,
		Position:     &c.position,
		Rotation:     &c.rotation,
		Scale:        &scale,
	})
	if err != nil {
		c.state = StateComposed
		c.lastErr = err
		return err
	}

	c.state = StateShared
	c.sceneID = resp.UniqueID
	c.shareURL = resp.ShareURL
	c.qrCode = resp.QRCode
	return nil
}

// Reset returns the composer to Empty from any state, restoring the
// default transform and discarding any share result.
func (c *Composer) Reset() {
	c.state = StateEmpty
	c.baseImage = ""
	c.overlayImage = ""
	c.position = DefaultPosition
	c.rotation = DefaultRotation
	c.scale = DefaultScale
	c.overlayPlaced = false
	c.shareURL = ""
	c.sceneID = ""
	c.qrCode = ""
	c.lastErr = nil
}

// snapshot is the serialized composer form for local persistence.
type snapshot struct {
	BaseImage    string      `json:"baseImage,omitempty"`
	OverlayImage string      `json:"overlayImage,omitempty"`
	Position     models.Vec3 `json:"position"`
	Rotation     models.Vec3 `json:"rotation"`
	Scale        float64     `json:"scale"`
	SavedAt      time.Time   `json:"savedAt"`
}

// Snapshot serializes the editable fields for local persistence.
// Persistence is an explicit boundary call, not a side effect of every
// setter.
func (c *Composer) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{
		BaseImage:    c.baseImage,
		OverlayImage: c.overlayImage,
		Position:     c.position,
		Rotation:     c.rotation,
		Scale:        c.scale,
		SavedAt:      time.Now().UTC(),
	})
}

// Restore loads a snapshot, deriving the state from which images are
// present. Not legal while a share is in flight.
func (c *Composer) Restore(data []byte) error {
	if c.state == StateSubmitting {
		return fmt.Errorf("%w: cannot restore while submitting", ErrInvalidTransition)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode composer snapshot: %w", err)
	}

	c.Reset()
	c.baseImage = snap.BaseImage
	c.overlayImage = snap.OverlayImage
	if snap.Scale > 0 {
		c.position = snap.Position
		c.rotation = snap.Rotation
		c.scale = snap.Scale
	}

	switch {
	case c.baseImage == "":
		c.state = StateEmpty
		c.overlayImage = ""
	case c.overlayImage == "":
		c.state = StateBaseOnly
	default:
		c.state = StateComposed
		c.overlayPlaced = true
	}
	return nil
}
