package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/adapters/clock"
	httpadapter "github.com/artpar/familyhub/adapters/http"
	"github.com/artpar/familyhub/adapters/idgen"
	"github.com/artpar/familyhub/adapters/memory"
	"github.com/artpar/familyhub/adapters/metrics"
	"github.com/artpar/familyhub/app"
	"github.com/artpar/familyhub/core/openapi"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/core/validation"
	"github.com/artpar/familyhub/domain/activity"
	"github.com/artpar/familyhub/ports"
)

var testStart = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type server struct {
	router  chi.Router
	metrics *metrics.Collector
	records *memory.RecordStore
	rewards *memory.RewardStore
}

func newServer(t *testing.T, pingErr error) server {
	t.Helper()
	ctx := context.Background()

	reg := schema.MustLoadRegistry()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	clk := clock.NewTicking(testStart, time.Second)
	rewards := memory.NewRewardStore()
	recordStore := memory.NewRecordStore()

	records := app.NewRecordService(app.RecordDeps{
		Validator: validation.New(reg),
		Store:     recordStore,
		IDs:       idgen.NewSequential("rec-"),
		Clock:     clk,
		Metrics:   m,
		Logger:    zerolog.Nop(),
	})
	settings := func() app.RewardSettings {
		return app.RewardSettings{MemoryCoins: 10, Partners: []string{"partner_a"}}
	}
	app.NewMemoryHooks(rewards, idgen.NewSequential("rw-"), m, settings, zerolog.Nop()).Register(records)

	store := memory.NewActivityStore()
	store.AddChild(ctx, activity.Child{ID: "kid1", CoupleID: "c1", Name: "Mira"})
	store.AddTemplate(ctx, activity.Template{ID: "tpl1", Title: "Nature walk", Category: "outdoor"})
	store.Schedule(ctx, activity.Scheduled{ID: "sa1", ChildID: "kid1", TemplateID: "tpl1", ScheduledFor: testStart.Add(time.Hour)})
	store.Schedule(ctx, activity.Scheduled{ID: "sa0", ChildID: "kid1", TemplateID: "tpl1", ScheduledFor: testStart})

	activities := app.NewActivityService(validation.New(reg), store, idgen.NewSequential("entry-"), clk, m, zerolog.Nop())

	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		Records:    records,
		Activities: activities,
		Health:     httpadapter.NewHealthHandler(fakePinger{err: pingErr}, clock.NewFake(testStart), zerolog.Nop()),
		Version:    "1.2.3",
		Metrics:    m,
		OpenAPI: openapi.NewService(openapi.ServiceConfig{
			Registry: reg,
			Version:  "1.2.3",
			Logger:   zerolog.Nop(),
		}),
	}, zerolog.Nop())

	return server{router: router, metrics: m, records: recordStore, rewards: rewards}
}

func (s server) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

const memoryBody = `{"coupleId":"c1","type":"text","title":"Picnic","content":"A happy wonderful day"}`

func TestRecordLifecycle(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/memories", memoryBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("created = %v", created)
	}
	if created["sentiment"] != "positive" {
		t.Errorf("sentiment = %v", created["sentiment"])
	}

	rec = s.do(t, http.MethodGet, "/api/memories/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/memories?coupleId=c1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if list := decode[[]map[string]any](t, rec); len(list) != 1 {
		t.Errorf("list len = %d", len(list))
	}

	rec = s.do(t, http.MethodPatch, "/api/memories/"+id, `{"title":"Park picnic"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if updated := decode[map[string]any](t, rec); updated["title"] != "Park picnic" {
		t.Errorf("title = %v", updated["title"])
	}

	rec = s.do(t, http.MethodPut, "/api/memories/"+id, `{"isPrivate":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodDelete, "/api/memories/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if msg := decode[httpadapter.MessageResponse](t, rec); msg.Message != "Memory deleted successfully" {
		t.Errorf("message = %q", msg.Message)
	}

	rec = s.do(t, http.MethodGet, "/api/memories/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
	body := decode[httpadapter.ErrorResponse](t, rec)
	if body.Error.Code != httpadapter.CodeNotFound || body.Error.Message != "Memory not found" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestMemoryCreate_AwardsCoins(t *testing.T) {
	s := newServer(t, nil)

	if rec := s.do(t, http.MethodPost, "/api/memories", memoryBody); rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	txs, err := s.rewards.ListByCouple(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 {
		t.Errorf("transactions = %d, want 1", len(txs))
	}
}

func TestErrorResponses(t *testing.T) {
	s := newServer(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
		wantPrefix string
	}{
		{
			name:       "missing required fields",
			method:     http.MethodPost,
			path:       "/api/recipes",
			body:       `{"instructions":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   httpadapter.CodeValidationFailed,
			wantPrefix: "Validation failed: name: Name is required",
		},
		{
			name:       "query without scope",
			method:     http.MethodGet,
			path:       "/api/memories",
			wantStatus: http.StatusBadRequest,
			wantCode:   httpadapter.CodeValidationFailed,
			wantPrefix: "Query validation failed: coupleId: Couple ID is required",
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			path:       "/api/memories",
			body:       `{"coupleId":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   httpadapter.CodeInvalidRequest,
			wantPrefix: "Invalid JSON body",
		},
		{
			name:       "update missing record",
			method:     http.MethodPatch,
			path:       "/api/tasks/nope",
			body:       `{"title":"x"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   httpadapter.CodeNotFound,
			wantPrefix: "Task not found",
		},
		{
			name:       "delete missing record",
			method:     http.MethodDelete,
			path:       "/api/grocery-lists/nope",
			wantStatus: http.StatusNotFound,
			wantCode:   httpadapter.CodeNotFound,
			wantPrefix: "Grocery list not found",
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/unknown",
			wantStatus: http.StatusNotFound,
			wantCode:   httpadapter.CodeNotFound,
			wantPrefix: "Route not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decode[httpadapter.ErrorResponse](t, rec)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if !strings.HasPrefix(body.Error.Message, tt.wantPrefix) {
				t.Errorf("message = %q, want prefix %q", body.Error.Message, tt.wantPrefix)
			}
		})
	}
}

func TestValidationDetails(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/recipes", `{"instructions":"x"}`)
	body := decode[httpadapter.ErrorResponse](t, rec)

	paths := map[string]bool{}
	for _, d := range body.Error.Details {
		paths[d.Path] = true
	}
	for _, want := range []string{"name", "ingredients"} {
		if !paths[want] {
			t.Errorf("details missing %q: %+v", want, body.Error.Details)
		}
	}
}

func TestActivities(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/parenting-activities?coupleId=c1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", rec.Code, rec.Body.String())
	}
	list := decode[[]activity.Scheduled](t, rec)
	if len(list) != 2 || list[0].ID != "sa0" || list[0].Template.Title != "Nature walk" {
		t.Fatalf("list = %+v", list)
	}

	rec = s.do(t, http.MethodPatch, "/api/parenting-activities/sa1", `{"status":"COMPLETED"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", rec.Code, rec.Body.String())
	}
	updated := decode[activity.Scheduled](t, rec)
	if updated.Status != activity.StatusCompleted || updated.CompletedAt == nil {
		t.Errorf("updated = %+v", updated)
	}

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"missing activity", "/api/parenting-activities/nope", `{"status":"SKIPPED"}`, http.StatusNotFound},
		{"invalid status", "/api/parenting-activities/sa0", `{"status":"DONE"}`, http.StatusBadRequest},
		{"bad json", "/api/parenting-activities/sa0", `status`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPatch, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	rec = s.do(t, http.MethodPatch, "/api/parenting-activities/nope", `{"status":"SKIPPED"}`)
	if body := decode[httpadapter.ErrorResponse](t, rec); body.Error.Message != "Activity not found" {
		t.Errorf("message = %q", body.Error.Message)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		want       httpadapter.HealthResponse
	}{
		{"up", nil, http.StatusOK, httpadapter.HealthResponse{Status: "ok", Database: "up"}},
		{"down", errors.New("disk gone"), http.StatusInternalServerError, httpadapter.HealthResponse{Status: "error", Database: "down"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, tt.pingErr)
			rec := s.do(t, http.MethodGet, "/api/health", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d", rec.Code)
			}
			got := decode[httpadapter.HealthResponse](t, rec)
			if got.Status != tt.want.Status || got.Database != tt.want.Database {
				t.Errorf("health = %+v", got)
			}
			if got.Timestamp != "2025-05-10T09:00:00Z" {
				t.Errorf("timestamp = %q", got.Timestamp)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodGet, "/version", "")
	got := decode[httpadapter.VersionResponse](t, rec)
	if got.Version != "1.2.3" || got.Service != "familyhub" {
		t.Errorf("version = %+v", got)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	s := newServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	req.Host = "hub.example"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := decode[openapi.Spec](t, rec)
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "https://hub.example" {
		t.Errorf("servers = %+v", doc.Servers)
	}
	if _, ok := doc.Paths["/api/memories"]; !ok {
		t.Error("missing /api/memories")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	s := newServer(t, nil)

	s.do(t, http.MethodGet, "/api/recipes/missing", "")
	s.do(t, http.MethodGet, "/api/recipes/other", "")
	s.do(t, http.MethodGet, "/api/health", "")

	got := testutil.ToFloat64(s.metrics.RequestsTotal.WithLabelValues("GET", "/api/recipes/{id}", "404"))
	if got != 2 {
		t.Errorf("recipe 404s = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(s.metrics.RequestsTotal); n != 1 {
		t.Errorf("series = %d, want 1 (health is not observed)", n)
	}

	rec := s.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestCorruptColumn(t *testing.T) {
	s := newServer(t, nil)
	s.records.Insert(context.Background(), "recipes", ports.Row{
		"id": "bad", "name": "Broken", "ingredients": "{not json",
	})

	for _, path := range []string{"/api/recipes/bad", "/api/recipes"} {
		rec := s.do(t, http.MethodGet, path, "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("GET %s status = %d, body = %s", path, rec.Code, rec.Body.String())
		}
		body := decode[httpadapter.ErrorResponse](t, rec)
		if body.Error.Code != httpadapter.CodeInternal || body.Error.Message != "Internal server error" {
			t.Errorf("GET %s error = %+v", path, body.Error)
		}
		if strings.Contains(rec.Body.String(), "not json") {
			t.Errorf("GET %s leaked stored text: %s", path, rec.Body.String())
		}
	}
}
