package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/familyhub/adapters/memory"
	"github.com/artpar/familyhub/core/query"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/domain/activity"
	"github.com/artpar/familyhub/domain/reward"
	"github.com/artpar/familyhub/ports"
)

// RecordStore tests

func TestRecordStore_CRUD(t *testing.T) {
	store := memory.NewRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "tasks", ports.Row{"id": "t1", "title": "Call plumber", "status": "PENDING"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, "tasks", ports.Row{"id": "t1"}); err == nil {
		t.Error("duplicate insert should fail")
	}
	if err := store.Insert(ctx, "tasks", ports.Row{"title": "no id"}); err == nil {
		t.Error("insert without id should fail")
	}

	got, err := store.Get(ctx, "tasks", "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got["title"] = "mutated"
	again, _ := store.Get(ctx, "tasks", "t1")
	if again["title"] != "Call plumber" {
		t.Error("Get should return a copy")
	}

	if err := store.Update(ctx, "tasks", "t1", ports.Row{"status": "COMPLETED"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	again, _ = store.Get(ctx, "tasks", "t1")
	if again["status"] != "COMPLETED" || again["title"] != "Call plumber" {
		t.Errorf("after update = %v", again)
	}

	if err := store.Delete(ctx, "tasks", "t1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "tasks", "t1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
	if err := store.Delete(ctx, "tasks", "t1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("second Delete = %v", err)
	}
	if err := store.Update(ctx, "tasks", "t1", ports.Row{"status": "x"}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Update missing = %v", err)
	}
}

func TestRecordStore_FindMany(t *testing.T) {
	store := memory.NewRecordStore()
	ctx := context.Background()

	rows := []ports.Row{
		{"id": "r1", "name": "Dal", "prep_time": 20.0, "is_favorite": false, "created_at": "2025-01-01T00:00:00.000Z"},
		{"id": "r2", "name": "Soup", "prep_time": 10.0, "is_favorite": true, "created_at": "2025-01-02T00:00:00.000Z"},
		{"id": "r3", "name": "Stew", "prep_time": nil, "is_favorite": true, "created_at": "2025-01-03T00:00:00.000Z"},
	}
	for _, r := range rows {
		if err := store.Insert(ctx, "recipes", r); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	order := []schema.OrderBy{{Column: "is_favorite", Desc: true}, {Column: "created_at", Desc: true}}
	all, _ := store.FindMany(ctx, "recipes", query.Filter{}, order)
	if ids := idsOf(all); ids != "r3,r2,r1" {
		t.Errorf("order = %s, want r3,r2,r1", ids)
	}

	quick, _ := store.FindMany(ctx, "recipes", query.Filter{Clauses: []query.Clause{
		{Column: "prep_time", Op: query.OpLte, Value: 15.0},
	}}, nil)
	if ids := idsOf(quick); ids != "r2" {
		t.Errorf("prep_time <= 15 = %s, want r2 (NULL never matches)", ids)
	}

	favs, _ := store.FindMany(ctx, "recipes", query.Filter{Clauses: []query.Clause{
		{Column: "is_favorite", Op: query.OpEquals, Value: true},
	}}, nil)
	if len(favs) != 2 {
		t.Errorf("favorites = %d, want 2", len(favs))
	}

	since, _ := store.FindMany(ctx, "recipes", query.Filter{Clauses: []query.Clause{
		{Column: "created_at", Op: query.OpGte, Value: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}}, nil)
	if len(since) != 2 {
		t.Errorf("created since = %d, want 2", len(since))
	}

	none, _ := store.FindMany(ctx, "missing_table", query.Filter{}, nil)
	if none == nil || len(none) != 0 {
		t.Errorf("missing table = %#v", none)
	}
}

func idsOf(rows []ports.Row) string {
	s := ""
	for i, r := range rows {
		if i > 0 {
			s += ","
		}
		s += r["id"].(string)
	}
	return s
}

// ActivityStore tests

func TestActivityStore(t *testing.T) {
	store := memory.NewActivityStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	store.AddChild(ctx, activity.Child{ID: "kid1", CoupleID: "c1"})
	store.AddTemplate(ctx, activity.Template{ID: "tpl1", Title: "Story time", Category: "literacy"})

	if err := store.Schedule(ctx, activity.Scheduled{ID: "x", ChildID: "ghost", TemplateID: "tpl1"}); err == nil {
		t.Error("schedule for unknown child should fail")
	}
	store.Schedule(ctx, activity.Scheduled{ID: "b", ChildID: "kid1", TemplateID: "tpl1", ScheduledFor: now.Add(time.Hour)})
	store.Schedule(ctx, activity.Scheduled{ID: "a", ChildID: "kid1", TemplateID: "tpl1", ScheduledFor: now})

	list, _ := store.ListForCouple(ctx, "c1")
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Template.Title != "Story time" || list[0].Status != activity.StatusPending {
		t.Errorf("list[0] = %+v", list[0])
	}

	empty, _ := store.ListForCouple(ctx, "c2")
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty = %#v", empty)
	}

	a, _ := store.Get(ctx, "a")
	if err := store.Apply(ctx, activity.PlanTransition(a, activity.StatusCompleted, now, "e1")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, _ := store.Get(ctx, "a")
	if got.Status != activity.StatusCompleted || got.CompletedAt == nil {
		t.Errorf("after complete = %+v", got)
	}
	entries, _ := store.StorybookEntries(ctx, "kid1")
	if len(entries) != 1 || entries[0].ActivityType != "literacy" {
		t.Errorf("entries = %+v", entries)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get missing = %v", err)
	}
	if err := store.Apply(ctx, activity.Transition{ActivityID: "missing"}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Apply missing = %v", err)
	}
}

// RewardStore tests

func TestRewardStore(t *testing.T) {
	store := memory.NewRewardStore()
	ctx := context.Background()

	store.Record(ctx, reward.New("1", "c1", 10, "a", time.Now()))
	store.Record(ctx, reward.New("2", "c2", 10, "b", time.Now()))

	list, _ := store.ListByCouple(ctx, "c1")
	if len(list) != 1 || list[0].ID != "1" {
		t.Errorf("list = %+v", list)
	}

	store.Err = errors.New("boom")
	if err := store.Record(ctx, reward.New("3", "c1", 10, "c", time.Now())); err == nil {
		t.Error("expected injected error")
	}
}
