package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models/reports"
	"github.com/fra-atlas/asset_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// fixedSource makes the live variation factor exactly 1.
type fixedSource struct{}

func (fixedSource) Float64() float64 { return 0.5 }
func (fixedSource) Intn(n int) int   { return 0 }

func newTestApplication(t *testing.T, districtsDir string) (*application, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := newApplication(applicationConfig{
		Selector:     workflow.SelectorConfig{Policy: workflow.PolicyLatestWins},
		Rand:         fixedSource{},
		DistrictsDir: districtsDir,
		Now:          func() time.Time { return time.Date(2024, 11, 15, 14, 30, 5, 0, time.UTC) },
	})
	t.Cleanup(a.close)
	return a, newRouter(a, config.GetLogger())
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestLocationListings(t *testing.T) {
	dir := t.TempDir()
	geo := `{"type":"FeatureCollection","features":[
		{"properties":{"dtname":"Ranchi"}},
		{"properties":{"dtname":"East Singhbhum"}},
		{"properties":{"dtname":"Ranchi"}}]}`
	if err := os.WriteFile(filepath.Join(dir, "Jharkhand.json"), []byte(geo), 0o644); err != nil {
		t.Fatal(err)
	}
	_, r := newTestApplication(t, dir)

	states := decode[struct {
		States []stateResponse `json:"states"`
	}](t, doJSON(t, r, http.MethodGet, "/api/asset-mapping/states", nil))
	if len(states.States) != 5 {
		t.Fatalf("states = %+v", states.States)
	}

	tests := []struct {
		path string
		key  string
		want []string
	}{
		{"/api/asset-mapping/districts?state=Jharkhand", "districts", []string{"East Singhbhum", "Ranchi"}},
		{"/api/asset-mapping/districts?state=Tripura", "districts", []string{}},
		{"/api/asset-mapping/districts?state=../etc", "districts", []string{}},
		{"/api/asset-mapping/villages?district=Ranchi", "villages", []string{"Ranchi Village 1", "Ranchi Village 2", "Ranchi Village 3", "Ranchi Village 4", "Ranchi Village 5"}},
		{"/api/asset-mapping/villages", "villages", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, tt.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			got := decode[map[string]any](t, w)[tt.key].([]any)
			if len(got) != len(tt.want) {
				t.Fatalf("%s = %v, want %v", tt.key, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("%s = %v, want %v", tt.key, got, tt.want)
				}
			}
		})
	}
}

func TestSelectionFlowsToConsumers(t *testing.T) {
	a, r := newTestApplication(t, "")

	w := doJSON(t, r, http.MethodPost, "/api/asset-mapping/selection", selectionRequest{
		State: "Jharkhand", District: "East Singhbhum", Village: "Jamshedpur",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	a.selector.Wait()

	current := decode[struct {
		Loading bool `json:"loading"`
		Data    *struct {
			Forest struct {
				Area string `json:"area"`
			} `json:"forest"`
		} `json:"data"`
	}](t, doJSON(t, r, http.MethodGet, "/api/asset-mapping/current", nil))
	if current.Loading || current.Data == nil || current.Data.Forest.Area != "1,250 ha" {
		t.Fatalf("current = %+v", current)
	}

	stats := decode[struct {
		Stats reports.StatsPanel `json:"stats"`
	}](t, doJSON(t, r, http.MethodGet, "/api/asset-mapping/stats", nil))
	if stats.Stats.TotalArea != "2,900 ha" || stats.Stats.ForestCover != "43%" || stats.Stats.LastUpdate != "2:30:05 PM" {
		t.Fatalf("stats = %+v", stats.Stats)
	}

	detections := decode[struct {
		Analyzing         bool                      `json:"analyzing"`
		Results           []reports.DetectionResult `json:"results"`
		AverageConfidence int                       `json:"averageConfidence"`
	}](t, doJSON(t, r, http.MethodGet, "/api/asset-mapping/detections", nil))
	if detections.Analyzing || len(detections.Results) != 6 {
		t.Fatalf("detections = %+v", detections)
	}
	if detections.AverageConfidence != 86 {
		t.Fatalf("average confidence = %d, want 86", detections.AverageConfidence)
	}

	report := decode[reports.ClassificationReport](t, doJSON(t, r, http.MethodGet, "/api/asset-mapping/classification", nil))
	if report.Location == nil || report.Location.Village != "Jamshedpur" || len(report.Details) != 6 {
		t.Fatalf("classification = %+v", report)
	}

	w = doJSON(t, r, http.MethodGet, "/api/asset-mapping/report/download", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), "asset-mapping-report-Jamshedpur-2024-11-15.json") {
		t.Fatalf("download status = %d header = %q", w.Code, w.Header().Get("Content-Disposition"))
	}
}

func TestSelectionErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(a *application)
		body  any
		want  int
	}{
		{name: "missing state", body: selectionRequest{Village: "Jamshedpur"}, want: http.StatusBadRequest},
		{name: "state only then village", body: selectionRequest{State: "Jharkhand", Village: "Jamshedpur"}, want: http.StatusBadRequest},
		{name: "closed selector", setup: func(a *application) { a.selector.Close() }, body: selectionRequest{State: "Jharkhand", District: "Ranchi", Village: "Ranchi"}, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, r := newTestApplication(t, "")
			if tt.setup != nil {
				tt.setup(a)
			}
			if w := doJSON(t, r, http.MethodPost, "/api/asset-mapping/selection", tt.body); w.Code != tt.want {
				t.Fatalf("status = %d, want %d body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAssetsEndpoint(t *testing.T) {
	a, r := newTestApplication(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"full pick", http.MethodGet, "/api/asset-mapping/assets?state=Jharkhand&district=East%20Singhbhum&village=Jamshedpur", http.StatusOK},
		{"missing village", http.MethodGet, "/api/asset-mapping/assets?state=Jharkhand&district=East%20Singhbhum", http.StatusBadRequest},
		{"cache without redis", http.MethodGet, "/api/asset-mapping/assets/cached?state=Jharkhand&district=East%20Singhbhum&village=Jamshedpur", http.StatusNotFound},
		{"evict without redis", http.MethodDelete, "/api/asset-mapping/assets/cached?state=Jharkhand&district=East%20Singhbhum&village=Jamshedpur", http.StatusNoContent},
		{"evict needs a village", http.MethodDelete, "/api/asset-mapping/assets/cached?state=Jharkhand", http.StatusBadRequest},
		{"cached keys without redis", http.MethodGet, "/api/asset-mapping/assets/cached/keys", http.StatusOK},
		{"schedules without redis", http.MethodGet, "/api/asset-mapping/classification/schedules", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doJSON(t, r, tt.method, tt.path, nil); w.Code != tt.want {
				t.Fatalf("status = %d, want %d body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	if a.bus.LastSeq() != 1 {
		t.Fatalf("published %d events, want 1", a.bus.LastSeq())
	}
	if got := a.stats.Panel().TotalArea; got != "2,900 ha" {
		t.Fatalf("stats total = %s", got)
	}
}

func TestClassificationExportAndSchedule(t *testing.T) {
	_, r := newTestApplication(t, "")

	tests := []struct {
		format      string
		want        int
		contentType string
	}{
		{"csv", http.StatusOK, "text/csv"},
		{"XLSX", http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"json", http.StatusOK, "application/json"},
		{"docx", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/asset-mapping/classification/export", exportRequest{Format: tt.format})
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d body = %s", w.Code, tt.want, w.Body.String())
			}
			if tt.contentType != "" && !strings.HasPrefix(w.Header().Get("Content-Type"), tt.contentType) {
				t.Fatalf("content type = %s", w.Header().Get("Content-Type"))
			}
			if tt.want == http.StatusOK && w.Header().Get("X-Export-Uri") != "" {
				t.Fatal("export uploaded without a bucket")
			}
		})
	}

	w := doJSON(t, r, http.MethodPost, "/api/asset-mapping/classification/schedule", scheduleRequest{Frequency: "weekly"})
	if w.Code != http.StatusOK {
		t.Fatalf("schedule status = %d", w.Code)
	}
	if got := decode[map[string]string](t, w)["message"]; got != "Analysis scheduled for Weekly updates" {
		t.Fatalf("message = %q", got)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/asset-mapping/classification/schedule", scheduleRequest{Frequency: "hourly"}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid frequency status = %d", w.Code)
	}
}

func TestStartPublisherEnsuresTopic(t *testing.T) {
	tests := []struct {
		name     string
		topicErr error
	}{
		{"topic ready", nil},
		{"topic creation fails", errors.New("permission denied")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApplication(t, "")
			var (
				mu      sync.Mutex
				ensured int
				sent    []config.AssetUpdateMessage
			)
			ensure := func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				ensured++
				return tt.topicErr
			}
			publish := func(_ context.Context, msg config.AssetUpdateMessage) (string, error) {
				mu.Lock()
				defer mu.Unlock()
				sent = append(sent, msg)
				return "id", nil
			}

			a.startPublisher(context.Background(), ensure, publish)
			a.bus.Publish(context.Background(), a.selector.Current().Location, nil)
			a.publisher.Close()

			mu.Lock()
			defer mu.Unlock()
			if ensured != 1 || len(sent) != 1 {
				t.Fatalf("ensured %d times, sent %d messages", ensured, len(sent))
			}
		})
	}
}

func TestLoadCuratedVillagesLogging(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel logrus.Level
	}{
		{"loaded", nil, logrus.InfoLevel},
		{"database error", errors.New("connection refused"), logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := logtest.NewNullLogger()
			loadCuratedVillages(context.Background(), logger, func(context.Context) (int, []string, error) {
				if tt.err != nil {
					return 0, nil, tt.err
				}
				return 3, nil, nil
			})

			entries := hook.AllEntries()
			if len(entries) != 1 || entries[0].Level != tt.wantLevel {
				t.Fatalf("entries = %+v", entries)
			}
			if tt.err == nil && entries[0].Data["merged"] != 3 {
				t.Fatalf("merged = %v", entries[0].Data["merged"])
			}
		})
	}
}

// streamRecorder lets the test read a response while the handler is still writing it.
type streamRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (s *streamRecorder) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ResponseRecorder.Write(b)
}

func (s *streamRecorder) WriteString(str string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ResponseRecorder.WriteString(str)
}

func (s *streamRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ResponseRecorder.Body.String()
}

func TestEventsStream(t *testing.T) {
	a, r := newTestApplication(t, "")
	before := a.bus.Subscribers()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/asset-mapping/events", nil).WithContext(ctx)
	w := &streamRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(w, req)
	}()

	waitFor(t, func() bool { return a.bus.Subscribers() == before+1 })
	doJSON(t, r, http.MethodGet, "/api/asset-mapping/assets?state=Jharkhand&district=East%20Singhbhum&village=Jamshedpur", nil)
	waitFor(t, func() bool { return strings.Contains(w.body(), `"village":"Jamshedpur"`) })

	cancel()
	<-done
	if !strings.Contains(w.body(), "event:assetDataUpdated") {
		t.Fatalf("body = %s", w.body())
	}
	if a.bus.Subscribers() != before {
		t.Fatal("stream did not unsubscribe")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
