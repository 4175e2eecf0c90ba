// Copyright 2025 James Ross
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeManager struct {
	loaded    []string
	lastErr   string
	loadErr   error
	unloadErr error
}

func (f *fakeManager) Load(path string) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = append(f.loaded, path)
	return nil
}

func (f *fakeManager) Unload(path string) error {
	if f.unloadErr != nil {
		return f.unloadErr
	}
	return nil
}

func (f *fakeManager) List() []string   { return f.loaded }
func (f *fakeManager) LastError() string { return f.lastErr }

func setupTestHandler(t *testing.T) (*Handler, *fakeManager) {
	mgr := &fakeManager{}
	return NewHandler(mgr, zaptest.NewLogger(t)), mgr
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(&fakeManager{}, zaptest.NewLogger(t))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListReturnsLoadedPluginsAndLastError(t *testing.T) {
	mgr := &fakeManager{loaded: []string{"/plugins/plugin_a.so"}, lastErr: "boom"}
	h := NewHandler(mgr, zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/plugins", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "boom", body["last_error"])
	loaded, ok := body["loaded"].([]any)
	require.True(t, ok)
	require.Len(t, loaded, 1)
	entry := loaded[0].(map[string]any)
	assert.Equal(t, "/plugins/plugin_a.so", entry["path"])
}

func TestLoadRejectsMissingPath(t *testing.T) {
	h, _ := setupTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/plugins", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadSucceeds(t *testing.T) {
	h, mgr := setupTestHandler(t)
	body, _ := json.Marshal(loadRequest{Path: "/plugins/plugin_a.so"})
	req := httptest.NewRequest(http.MethodPost, "/v1/plugins", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"/plugins/plugin_a.so"}, mgr.loaded)
}

func TestLoadFailurePropagatesManagerError(t *testing.T) {
	mgr := &fakeManager{loadErr: errors.New("abi mismatch")}
	h := NewHandler(mgr, zaptest.NewLogger(t))
	body, _ := json.Marshal(loadRequest{Path: "/plugins/bad.so"})
	req := httptest.NewRequest(http.MethodPost, "/v1/plugins", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUnloadSucceeds(t *testing.T) {
	h, _ := setupTestHandler(t)
	req := httptest.NewRequest(http.MethodDelete, "/v1/plugins/plugin_a.so", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUnloadMissingPluginReturnsNotFound(t *testing.T) {
	mgr := &fakeManager{unloadErr: errors.New("not loaded")}
	h := NewHandler(mgr, zaptest.NewLogger(t))
	req := httptest.NewRequest(http.MethodDelete, "/v1/plugins/missing.so", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
