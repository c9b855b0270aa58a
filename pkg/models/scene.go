package models

import "time"

// Vec3 is a 3D vector. Rotation components are radians.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SceneRecord is the persisted representation of a shared AR scene.
// Records are write-once: created by the share endpoint, read any number
// of times by viewers, never updated or deleted.
type SceneRecord struct {
	ID              string    `json:"id"`
	BaseImageURL    string    `json:"baseImageUrl"`
	OverlayImageURL string    `json:"overlayImageUrl"`
	Position        Vec3      `json:"position"`
	Rotation        Vec3      `json:"rotation"`
	Scale           float64   `json:"scale"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ShareRequest is the payload for creating a shared scene. Images are
// data URIs or already-hosted URLs. Position, rotation and scale are
// optional; the server applies zero vectors and scale 1 when omitted.
type ShareRequest struct {
	BaseImage    string   `json:"baseImage"`
	OverlayImage string   `json:"overlayImage"`
	Position     *Vec3    `json:"position,omitempty"`
	Rotation     *Vec3    `json:"rotation,omitempty"`
	Scale        *float64 `json:"scale,omitempty"`
}

// ShareResponse is returned by POST /api/share on success.
type ShareResponse struct {
	Success         bool   `json:"success"`
	ShareURL        string `json:"shareUrl"`
	UniqueID        string `json:"uniqueId"`
	BaseImageURL    string `json:"baseImageUrl"`
	OverlayImageURL string `json:"overlayImageUrl"`
	QRCode          string `json:"qrCode,omitempty"`
}

// ARData is the renderable scene handed to viewers. Image URLs carry a
// fresh cache-busting query parameter on every response.
type ARData struct {
	BaseImage    string  `json:"baseImage"`
	OverlayImage string  `json:"overlayImage"`
	Position     Vec3    `json:"position"`
	Rotation     Vec3    `json:"rotation"`
	Scale        float64 `json:"scale"`
}

// ExperienceResponse is returned by GET /api/ar-experience/{id}.
type ExperienceResponse struct {
	Success bool    `json:"success"`
	ARData  *ARData `json:"arData,omitempty"`
	Message string  `json:"message,omitempty"`
}

// ErrorResponse is the structured failure body used by every API error
// path. Raw internal errors never escape untranslated.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
