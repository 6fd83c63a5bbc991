// Package e2e exercises a running FamilyHub server over real HTTP.
package e2e

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/artpar/familyhub/adapters/sqlite"
	"github.com/artpar/familyhub/bootstrap"
	"github.com/artpar/familyhub/domain/activity"
)

type testServer struct {
	app    *bootstrap.App
	base   string
	client *http.Client
}

func startApp(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("FAMILYHUB_DATABASE_DSN", filepath.Join(t.TempDir(), "e2e.db"))
	t.Setenv("FAMILYHUB_REWARDS_MEMORY_COINS", "10")

	app, err := bootstrap.New(bootstrap.Options{Version: "e2e", LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		if err := app.HTTPServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("serve: %v", err)
		}
	}()
	t.Cleanup(func() { app.Shutdown() })

	return &testServer{
		app:    app,
		base:   "http://" + listener.Addr().String(),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *testServer) call(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.base+path, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestE2E_MemoryJournal(t *testing.T) {
	s := startApp(t)

	entries := []map[string]any{
		{"coupleId": "c1", "type": "text", "title": "Beach", "content": "What a wonderful happy day", "tags": []string{"trip", "summer"}},
		{"coupleId": "c1", "type": "text", "title": "Flat tyre", "content": "Frustrated and sad", "tags": []string{"car"}},
		{"coupleId": "c2", "type": "photo", "title": "Other couple", "content": "Amazing"},
	}
	for _, e := range entries {
		var created map[string]any
		if status := s.call(t, http.MethodPost, "/api/memories", e, &created); status != http.StatusCreated {
			t.Fatalf("create status = %d, body = %v", status, created)
		}
	}

	var positive []map[string]any
	s.call(t, http.MethodGet, "/api/memories?coupleId=c1&sentiment=positive", nil, &positive)
	if len(positive) != 1 || positive[0]["title"] != "Beach" {
		t.Errorf("positive = %v", positive)
	}

	var tagged []map[string]any
	s.call(t, http.MethodGet, "/api/memories?coupleId=c1&tags=car,boat", nil, &tagged)
	if len(tagged) != 1 || tagged[0]["title"] != "Flat tyre" {
		t.Errorf("tagged = %v", tagged)
	}

	var all []map[string]any
	s.call(t, http.MethodGet, "/api/memories?coupleId=c1&sentiment=all&type=all", nil, &all)
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}

	txs, err := s.app.Rewards.(*sqlite.RewardStore).ListByCouple(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Errorf("c1 rewards = %d, want 2", len(txs))
	}
}

func TestE2E_GroceryList(t *testing.T) {
	s := startApp(t)

	list := map[string]any{
		"coupleId":    "c1",
		"name":        "Weekly shop",
		"totalBudget": 80,
		"assignedTo":  "partner_a",
		"items": []map[string]any{
			{"name": "Rice", "quantity": 2, "unit": "kg", "price": 6.5},
			{"name": "Milk", "quantity": 1},
		},
	}
	var created map[string]any
	if status := s.call(t, http.MethodPost, "/api/grocery-lists", list, &created); status != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", status, created)
	}
	if created["status"] != "pending" {
		t.Errorf("status = %v", created["status"])
	}
	items, ok := created["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items = %#v", created["items"])
	}
	if first := items[0].(map[string]any); first["purchased"] != false {
		t.Errorf("purchased default = %v", first["purchased"])
	}

	id := created["id"].(string)
	var updated map[string]any
	if status := s.call(t, http.MethodPatch, "/api/grocery-lists/"+id, map[string]any{"status": "completed"}, &updated); status != http.StatusOK {
		t.Fatalf("update status = %d, body = %v", status, updated)
	}

	var pending []map[string]any
	s.call(t, http.MethodGet, "/api/grocery-lists?coupleId=c1&status=pending", nil, &pending)
	if len(pending) != 0 {
		t.Errorf("pending = %v", pending)
	}

	var bad map[string]any
	status := s.call(t, http.MethodPost, "/api/grocery-lists", map[string]any{"coupleId": "c1", "items": []any{}}, &bad)
	if status != http.StatusBadRequest {
		t.Errorf("invalid create status = %d", status)
	}
}

func TestE2E_ActivityCompletion(t *testing.T) {
	s := startApp(t)
	ctx := context.Background()
	store := sqlite.NewActivityStore(s.app.DB)

	now := time.Now().UTC()
	store.AddChild(ctx, activity.Child{ID: "kid1", CoupleID: "c1", Name: "Mira", CreatedAt: now})
	store.AddTemplate(ctx, activity.Template{ID: "tpl1", Title: "Helping hands", Category: "HANUMAN_HELPER", CreatedAt: now})
	store.Schedule(ctx, activity.Scheduled{ID: "sa1", ChildID: "kid1", TemplateID: "tpl1", ScheduledFor: now, CreatedAt: now})

	var list []activity.Scheduled
	if status := s.call(t, http.MethodGet, "/api/parenting-activities?coupleId=c1", nil, &list); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(list) != 1 || list[0].Template.Title != "Helping hands" {
		t.Fatalf("list = %+v", list)
	}

	var done activity.Scheduled
	if status := s.call(t, http.MethodPatch, "/api/parenting-activities/sa1", map[string]any{"status": "COMPLETED"}, &done); status != http.StatusOK {
		t.Fatalf("patch status = %d", status)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	entries, err := store.StorybookEntries(ctx, "kid1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ActivityType != "HANUMAN_HELPER" {
		t.Errorf("storybook = %+v", entries)
	}
}

func TestE2E_Health(t *testing.T) {
	s := startApp(t)

	var health map[string]string
	if status := s.call(t, http.MethodGet, "/api/health", nil, &health); status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}
	if health["status"] != "ok" || health["database"] != "up" {
		t.Errorf("health = %v", health)
	}
}
