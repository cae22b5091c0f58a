// Package packages_http exposes the package tracker over a chi router.
package packages_http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/PackageTracker/internal/carriers"
	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/BearBump/PackageTracker/internal/services/packages"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
)

const maxBackupBytes = 16 << 20

type PackageService interface {
	Detect(raw string) carriers.Result
	AddPackage(ctx context.Context, in models.PackageCreateInput) (models.Package, error)
	List(ctx context.Context, c models.Collection) ([]models.Package, error)
	Counts(ctx context.Context) (active, archived int, err error)
	Update(ctx context.Context, c models.Collection, id string, patch models.PackagePatch) (bool, error)
	Delete(ctx context.Context, c models.Collection, id string) (bool, error)
	Archive(ctx context.Context, id string) (bool, error)
	Restore(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context, c models.Collection) error
	Export(ctx context.Context) (packages.Snapshot, error)
	Import(ctx context.Context, snap packages.Snapshot) error
}

type Options struct {
	SwaggerPath string
	Limiter     RateLimiter
	Now         func() time.Time
}

type handler struct {
	svc PackageService
	now func() time.Time
}

func NewRouter(svc PackageService, opts Options) chi.Router {
	h := &handler{svc: svc, now: opts.Now}
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if opts.SwaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, opts.SwaggerPath)
		})
		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(opts.SwaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	r.Route("/v1", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(RateLimit(opts.Limiter))
		}
		r.Get("/carriers", h.listCarriers)
		r.Get("/detect", h.detect)
		r.Get("/stats", h.stats)

		r.Get("/packages", h.listPackages)
		r.Post("/packages", h.addPackage)
		r.Delete("/packages", h.clearPackages)
		r.Patch("/packages/{id}", h.updatePackage)
		r.Delete("/packages/{id}", h.deletePackage)
		r.Post("/packages/{id}/archive", h.archivePackage)
		r.Post("/packages/{id}/restore", h.restorePackage)

		r.Get("/backup", h.backup)
		r.Post("/restore", h.restore)
	})
	return r
}

type carrierView struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Patterns    []string `json:"patterns"`
	TrackingURL string   `json:"trackingUrl"`
}

func (h *handler) listCarriers(w http.ResponseWriter, r *http.Request) {
	rules := carriers.Rules()
	out := make([]carrierView, 0, len(rules))
	for _, rule := range rules {
		v := carrierView{Key: rule.Key, Name: rule.Name, TrackingURL: rule.TrackingURL}
		for _, p := range rule.Patterns {
			v.Patterns = append(v.Patterns, p.String())
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"carriers": out})
}

type detectResponse struct {
	Number string `json:"number"`
	carriers.Result
	Status string `json:"status"`
}

func (h *handler) detect(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("number")
	if carriers.Normalize(raw) == "" {
		writeError(w, http.StatusBadRequest, "number is required")
		return
	}
	res := h.svc.Detect(raw)
	writeJSON(w, http.StatusOK, detectResponse{
		Number: carriers.Normalize(raw),
		Result: res,
		Status: carriers.StatusMessage(res),
	})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	active, archived, err := h.svc.Counts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"active": active, "archived": archived})
}

func (h *handler) listPackages(w http.ResponseWriter, r *http.Request) {
	c, ok := collectionParam(w, r)
	if !ok {
		return
	}
	list, err := h.svc.List(r.Context(), c)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []models.Package{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"view": c, "packages": list})
}

type addRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Name           string `json:"name"`
}

func (h *handler) addPackage(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := h.svc.AddPackage(r.Context(), models.PackageCreateInput{
		TrackingNumber: req.TrackingNumber,
		Name:           req.Name,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type patchRequest struct {
	Name              *string `json:"name"`
	Status            *string `json:"status"`
	Location          *string `json:"location"`
	EstimatedDelivery *string `json:"estimatedDelivery"`
}

func (h *handler) updatePackage(w http.ResponseWriter, r *http.Request) {
	c, ok := collectionParam(w, r)
	if !ok {
		return
	}
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	patch := models.PackagePatch{
		Name:              req.Name,
		Status:            req.Status,
		Location:          req.Location,
		EstimatedDelivery: req.EstimatedDelivery,
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	found, err := h.svc.Update(r.Context(), c, chi.URLParam(r, "id"), patch)
	h.writeFound(w, r, found, err)
}

func (h *handler) deletePackage(w http.ResponseWriter, r *http.Request) {
	c, ok := collectionParam(w, r)
	if !ok {
		return
	}
	found, err := h.svc.Delete(r.Context(), c, chi.URLParam(r, "id"))
	h.writeFound(w, r, found, err)
}

func (h *handler) clearPackages(w http.ResponseWriter, r *http.Request) {
	c, ok := collectionParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Clear(r.Context(), c); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) archivePackage(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Archive(r.Context(), chi.URLParam(r, "id"))
	h.writeFound(w, r, found, err)
}

func (h *handler) restorePackage(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Restore(r.Context(), chi.URLParam(r, "id"))
	h.writeFound(w, r, found, err)
}

func (h *handler) backup(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Export(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", packages.BackupFileName(h.now())))
	if err := snap.Encode(w); err != nil {
		slog.Error("write backup", "error", err.Error())
	}
}

func (h *handler) restore(w http.ResponseWriter, r *http.Request) {
	snap, err := packages.ParseSnapshot(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("backup exceeds %d bytes", tooLarge.Limit))
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.svc.Import(r.Context(), snap); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"packages": snap.ActiveCount(),
		"archived": snap.ArchivedCount(),
	})
}

func (h *handler) writeFound(w http.ResponseWriter, r *http.Request, found bool, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !found {
		slog.Debug("package not found, nothing to do", "id", chi.URLParam(r, "id"))
	}
	w.WriteHeader(http.StatusNoContent)
}

func collectionParam(w http.ResponseWriter, r *http.Request) (models.Collection, bool) {
	c, ok := models.ParseCollection(r.URL.Query().Get("view"))
	if !ok {
		writeError(w, http.StatusBadRequest, "view must be active or archived")
	}
	return c, ok
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrDuplicateTrackingNumber):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
