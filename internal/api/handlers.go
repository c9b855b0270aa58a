package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/overlaylabs/arshare/internal/assets"
	"github.com/overlaylabs/arshare/internal/scene"
	"github.com/overlaylabs/arshare/pkg/models"
	"github.com/overlaylabs/arshare/pkg/share"
)

// SceneStore is the persistence surface the handlers depend on.
type SceneStore interface {
	Create(ctx context.Context, rec *models.SceneRecord) (string, error)
	GetByID(ctx context.Context, id string) (*models.SceneRecord, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store    SceneStore
	uploader assets.Uploader
	origin   string
}

// NewHandler creates a new HTTP handler. origin is the public origin
// used to build share URLs; when empty, the request host is used.
func NewHandler(store SceneStore, uploader assets.Uploader, origin string) *Handler {
	return &Handler{
		store:    store,
		uploader: uploader,
		origin:   origin,
	}
}

// ShareScene handles POST /api/share. Both images are uploaded to the
// asset store concurrently; the scene record is only written when both
// uploads succeed.
func (h *Handler) ShareScene(w http.ResponseWriter, r *http.Request) {
	var req models.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.BaseImage == "" || req.OverlayImage == "" {
		writeError(w, http.StatusBadRequest, "Missing required images", nil)
		return
	}

	if !finiteTransform(&req) {
		writeError(w, http.StatusBadRequest, "Transform values must be finite numbers", nil)
		return
	}

	var baseImageURL, overlayImageURL string
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		url, err := h.uploader.Store(ctx, req.BaseImage)
		baseImageURL = url
		return err
	})
	g.Go(func() error {
		url, err := h.uploader.Store(ctx, req.OverlayImage)
		overlayImageURL = url
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("image upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create AR experience", err)
		return
	}

	rec := &models.SceneRecord{
		BaseImageURL:    baseImageURL,
		OverlayImageURL: overlayImageURL,
		Scale:           1,
	}
	if req.Position != nil {
		rec.Position = *req.Position
	}
	if req.Rotation != nil {
		rec.Rotation = *req.Rotation
	}
	if req.Scale != nil {
		rec.Scale = *req.Scale
	}

	id, err := h.store.Create(r.Context(), rec)
	if err != nil {
		slog.Error("scene create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create AR experience", err)
		return
	}

	shareURL := share.URL(h.shareOrigin(r), id)
	writeJSON(w, http.StatusOK, models.ShareResponse{
		Success:         true,
		ShareURL:        shareURL,
		UniqueID:        id,
		BaseImageURL:    baseImageURL,
		OverlayImageURL: overlayImageURL,
		QRCode:          share.QRCodeURL(shareURL),
	})
}

// GetExperience handles GET /api/ar-experience/{id}. Image URLs in the
// response carry a fresh cache-busting parameter; the stored record is
// never mutated.
func (h *Handler) GetExperience(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.store.GetByID(r.Context(), id)
	if errors.Is(err, scene.ErrNotFound) {
		writeError(w, http.StatusNotFound, "AR experience not found", nil)
		return
	}
	if err != nil {
		slog.Error("scene fetch failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch AR experience", err)
		return
	}

	now := time.Now()
	writeJSON(w, http.StatusOK, models.ExperienceResponse{
		Success: true,
		ARData: &models.ARData{
			BaseImage:    share.CacheBust(rec.BaseImageURL, now),
			OverlayImage: share.CacheBust(rec.OverlayImageURL, now),
			Position:     rec.Position,
			Rotation:     rec.Rotation,
			Scale:        rec.Scale,
		},
	})
}

// Health handles GET /health and GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) shareOrigin(r *http.Request) string {
	if h.origin != "" {
		return h.origin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// finiteTransform rejects NaN and infinite transform values at the
// boundary; encoding/json cannot represent them on the way back out.
func finiteTransform(req *models.ShareRequest) bool {
	vals := []float64{}
	if req.Position != nil {
		vals = append(vals, req.Position.X, req.Position.Y, req.Position.Z)
	}
	if req.Rotation != nil {
		vals = append(vals, req.Rotation.X, req.Rotation.Y, req.Rotation.Z)
	}
	if req.Scale != nil {
		vals = append(vals, *req.Scale)
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := models.ErrorResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}
