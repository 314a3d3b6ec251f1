package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ravend/internal/governor"
	"ravend/internal/manager"
	"ravend/internal/registry"
	"ravend/internal/selector"
	"ravend/pkg/types"
)

// stubService is a hand-rolled Service with programmable behavior per test.
type stubService struct {
	models    []types.ModelDescriptor
	selectErr error
	recordErr error
	prefsErr  error
	prefs     types.Preferences
	ready     bool
	cleanups  int
	recorded  []string
}

func (s *stubService) ListModels() []types.ModelDescriptor { return s.models }

func (s *stubService) GetModel(id string) (types.ModelDescriptor, error) {
	for _, m := range s.models {
		if m.ID == id {
			return m, nil
		}
	}
	return types.ModelDescriptor{}, registry.ErrNotFound(id)
}

func (s *stubService) SelectModel(ctx context.Context, req types.TaskRequest) (*manager.ModelHandle, error) {
	if s.selectErr != nil {
		return nil, s.selectErr
	}
	return &manager.ModelHandle{Descriptor: s.models[0], Score: 0.82}, nil
}

func (s *stubService) RecordExecutionMetrics(modelID string, metrics types.ExecutionMetrics) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, modelID)
	return nil
}

func (s *stubService) Status() types.StatusResponse {
	return types.StatusResponse{ModelCount: len(s.models), Preferences: s.prefs}
}

func (s *stubService) Preferences() types.Preferences { return s.prefs }

func (s *stubService) UpdatePreferences(p types.Preferences) error {
	if s.prefsErr != nil {
		return s.prefsErr
	}
	s.prefs = p
	return nil
}

func (s *stubService) CleanupResources() { s.cleanups++ }

func (s *stubService) Ready() bool { return s.ready }

func newStub() *stubService {
	return &stubService{
		models: []types.ModelDescriptor{
			{ID: "tiny", SizeBytes: 2e9, DeclaredType: types.ModelTypeGenerative},
			{ID: "mid", SizeBytes: 4e9, DeclaredType: types.ModelTypeGenerative},
		},
		prefs: types.DefaultPreferences(),
		ready: true,
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
}

func TestReadyzGates(t *testing.T) {
	s := newStub()
	s.ready = false
	h := NewMux(s)
	if w := doJSON(t, h, http.MethodGet, "/readyz", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before discovery = %d, want 503", w.Code)
	}
	s.ready = true
	if w := doJSON(t, h, http.MethodGet, "/readyz", nil); w.Code != http.StatusOK {
		t.Fatalf("readyz after discovery = %d, want 200", w.Code)
	}
}

func TestListModels(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodGet, "/models", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Models) != 2 || resp.Models[0].ID != "tiny" {
		t.Fatalf("unexpected models: %+v", resp.Models)
	}
}

func TestGetModel(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodGet, "/models/mid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var m types.ModelDescriptor
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ID != "mid" {
		t.Fatalf("unexpected descriptor: %+v", m)
	}
}

func TestGetModelNotFound(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodGet, "/models/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if e.Code != http.StatusNotFound || e.Error == "" {
		t.Fatalf("unexpected error payload: %+v", e)
	}
}

func TestSelectReturnsScoredModel(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodPost, "/select", types.TaskRequest{DeclaredType: types.ModelTypeGenerative})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp types.SelectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Model.ID != "tiny" || resp.Score != 0.82 {
		t.Fatalf("unexpected selection: %+v", resp)
	}
}

func TestSelectNoCompatibleModel(t *testing.T) {
	s := newStub()
	s.selectErr = selector.ErrNoCompatibleModel(types.TaskRequest{}, []types.AcceleratorKind{types.AcceleratorCUDA})
	h := NewMux(s)
	w := doJSON(t, h, http.MethodPost, "/select", types.TaskRequest{})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestSelectResourceExhausted(t *testing.T) {
	s := newStub()
	s.selectErr = governor.ErrResourceExhausted(5e9, 4e9)
	h := NewMux(s)
	w := doJSON(t, h, http.MethodPost, "/select", types.TaskRequest{})
	if w.Code != http.StatusInsufficientStorage {
		t.Fatalf("status = %d, want 507", w.Code)
	}
}

func TestSelectRequiresJSONContentType(t *testing.T) {
	h := NewMux(newStub())
	req := httptest.NewRequest(http.MethodPost, "/select", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
}

func TestSelectRejectsUnknownFields(t *testing.T) {
	h := NewMux(newStub())
	req := httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(`{"bogus_field": true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRecordExecution(t *testing.T) {
	s := newStub()
	h := NewMux(s)
	rep := types.ExecutionReport{ModelID: "tiny"}
	rep.Success = true
	rep.LatencySeconds = 1.2
	rep.MemoryEfficiency = 0.8
	w := doJSON(t, h, http.MethodPost, "/executions", rep)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if len(s.recorded) != 1 || s.recorded[0] != "tiny" {
		t.Fatalf("metrics not recorded: %+v", s.recorded)
	}
}

func TestRecordExecutionRequiresModelID(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodPost, "/executions", types.ExecutionReport{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRecordExecutionValidatesRanges(t *testing.T) {
	h := NewMux(newStub())
	rep := types.ExecutionReport{ModelID: "tiny"}
	rep.MemoryEfficiency = 1.5
	w := doJSON(t, h, http.MethodPost, "/executions", rep)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRecordExecutionUnknownModel(t *testing.T) {
	s := newStub()
	s.recordErr = registry.ErrNotFound("ghost")
	h := NewMux(s)
	rep := types.ExecutionReport{ModelID: "ghost"}
	w := doJSON(t, h, http.MethodPost, "/executions", rep)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetPreferences(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodGet, "/preferences", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var p types.Preferences
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.PerformanceMode != types.ModeBalanced {
		t.Fatalf("unexpected preferences: %+v", p)
	}
}

func TestPutPreferences(t *testing.T) {
	s := newStub()
	h := NewMux(s)
	p := types.DefaultPreferences()
	p.PerformanceMode = types.ModeSpeed
	w := doJSON(t, h, http.MethodPut, "/preferences", p)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if s.prefs.PerformanceMode != types.ModeSpeed {
		t.Fatalf("preferences not applied: %+v", s.prefs)
	}
}

func TestPutPreferencesInvalidLeavesPriorActive(t *testing.T) {
	s := newStub()
	s.prefsErr = manager.ErrInvalidPreference("max_memory_fraction", "must be in (0, 1]")
	h := NewMux(s)
	p := types.DefaultPreferences()
	p.MaxMemoryFraction = 1.5
	w := doJSON(t, h, http.MethodPut, "/preferences", p)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if s.prefs.MaxMemoryFraction != 0.7 {
		t.Fatalf("prior preferences must stay active, got %+v", s.prefs)
	}
}

func TestStatus(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodGet, "/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.ModelCount != 2 {
		t.Fatalf("model count = %d", st.ModelCount)
	}
}

func TestCleanup(t *testing.T) {
	s := newStub()
	h := NewMux(s)
	w := doJSON(t, h, http.MethodPost, "/cleanup", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if s.cleanups != 1 {
		t.Fatalf("cleanup calls = %d", s.cleanups)
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	h := NewMux(newStub())
	w := doJSON(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics endpoint = %d", w.Code)
	}
}
