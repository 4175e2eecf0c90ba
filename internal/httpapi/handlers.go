// Copyright 2025 James Ross
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/flyingrobots/emu-plugin-host/internal/discovery"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Manager is the subset of pluginmanager.Manager the HTTP surface drives.
// Defined here, not imported, so this package never depends on
// internal/pluginmanager directly — only on the operations it calls.
type Manager interface {
	Load(path string) error
	Unload(path string) error
	List() []string
	LastError() string
}

// Handler implements the management API's routes.
type Handler struct {
	mgr    Manager
	logger *zap.Logger
}

// NewHandler builds a Handler over mgr.
func NewHandler(mgr Manager, logger *zap.Logger) *Handler {
	return &Handler{mgr: mgr, logger: logger}
}

// Routes wires the management API's endpoints onto a gorilla/mux router.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/v1/plugins", h.list).Methods(http.MethodGet)
	r.HandleFunc("/v1/plugins", h.load).Methods(http.MethodPost)
	r.HandleFunc("/v1/plugins/{path:.+}", h.unload).Methods(http.MethodDelete)
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loadedPlugin struct {
	Path     string             `json:"path"`
	Manifest discovery.Manifest `json:"manifest"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	paths := h.mgr.List()
	plugins := make([]loadedPlugin, len(paths))
	for i, p := range paths {
		manifest, err := discovery.ReadManifest(p)
		if err != nil {
			h.logger.Warn("plugin manifest read failed", zap.String("path", p), zap.Error(err))
		}
		plugins[i] = loadedPlugin{Path: p, Manifest: manifest}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded":     plugins,
		"last_error": h.mgr.LastError(),
	})
}

type loadRequest struct {
	Path string `json:"path"`
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := h.mgr.Load(req.Path); err != nil {
		h.logger.Warn("plugin load failed", zap.String("path", req.Path), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": req.Path})
}

func (h *Handler) unload(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	if err := h.mgr.Unload(path); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
