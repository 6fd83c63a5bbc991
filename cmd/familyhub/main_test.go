package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/artpar/familyhub/adapters/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSchemaList(t *testing.T) {
	out, err := run(t, "schema", "list")
	if err != nil {
		t.Fatalf("schema list: %v", err)
	}
	for _, want := range []string{"grocery_list", "/api/grocery-lists", "/api/parenting-activities", "create,update,query"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSchemaShow(t *testing.T) {
	out, err := run(t, "schema", "show", "memory")
	if err != nil {
		t.Fatalf("schema show: %v", err)
	}
	for _, want := range []string{"memories", "coupleId", "couple_id", "required", "stored:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "schema", "show", "nope"); err == nil {
		t.Error("unknown entity should fail")
	}
}

func TestSchemaCheck(t *testing.T) {
	out, err := run(t, "schema", "check")
	if err != nil {
		t.Fatalf("schema check: %v", err)
	}
	for _, want := range []string{"API document renders", "Column codecs (ai_reasoning, completion_data, ingredients, items, meals, nutrition, partners, tags)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSchemaShow_Operation(t *testing.T) {
	out, err := run(t, "schema", "show", "recipe", "query")
	if err != nil {
		t.Fatalf("schema show: %v", err)
	}
	if strings.Contains(out, "create:") || !strings.Contains(out, "query:") {
		t.Errorf("output = %s", out)
	}

	if _, err := run(t, "schema", "show", "activity", "create"); err == nil {
		t.Error("activity has no create shape")
	}
}

func TestSchemaCheck_Document(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "list.json")
	os.WriteFile(valid, []byte(`{"coupleId":"c1","name":"Weekly","items":[{"name":"Milk","quantity":1}],"totalBudget":500,"assignedTo":"a"}`), 0644)

	out, err := run(t, "schema", "check", "grocery_list", "create", valid)
	if err != nil {
		t.Fatalf("valid document: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"purchased": false`) {
		t.Errorf("normalized output = %s", out)
	}

	invalid := filepath.Join(dir, "bad.json")
	os.WriteFile(invalid, []byte(`{"coupleId":"c1","name":"Weekly","items":[{"name":"Milk","quantity":1}],"totalBudget":-5,"assignedTo":"a"}`), 0644)

	out, err = run(t, "schema", "check", "grocery_list", "create", invalid)
	if err == nil || !strings.Contains(out, "totalBudget: Budget must be positive") {
		t.Errorf("invalid document: %v\n%s", err, out)
	}

	if _, err := run(t, "schema", "check", "grocery_list"); err == nil {
		t.Error("one argument should be rejected")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("FAMILYHUB_DATABASE_DSN", filepath.Join(t.TempDir(), "cfg.db"))

	out, err := run(t, "config", "validate", "--check-database")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Validating environment") || !strings.Contains(out, "Database writable") {
		t.Errorf("output = %s", out)
	}

	t.Setenv("FAMILYHUB_LOG_LEVEL", "loud")
	if _, err := run(t, "config", "validate"); err == nil {
		t.Error("invalid level should fail")
	}
}

func TestSeedAndMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "seed.db")
	t.Setenv("FAMILYHUB_DATABASE_DSN", dsn)

	if _, err := run(t, "seed", "--couple", "c7", "--days", "4"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	db, err := sqlite.Open(dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	list, err := sqlite.NewActivityStore(db).ListForCouple(context.Background(), "c7")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 4 || list[0].Template.Title != "Helping hands" {
		t.Errorf("activities = %+v", list)
	}

	out, err := run(t, "migrate")
	if err != nil || !strings.Contains(out, "Database up to date") {
		t.Errorf("migrate = %q, %v", out, err)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.HasPrefix(out, "familyhub dev (none, built unknown, go") {
		t.Errorf("version = %q, %v", out, err)
	}
	if !strings.Contains(out, "database schema: 001_initial") || !strings.Contains(out, "entities:        6") {
		t.Errorf("version = %q", out)
	}
}

func TestVersion_JSON(t *testing.T) {
	t.Cleanup(func() { versionJSON = false })

	out, err := run(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json: %v", err)
	}
	var info buildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if info.Version != "dev" || info.Schema != "001_initial" || len(info.Entities) != 6 || info.Entities[0] != "activity" {
		t.Errorf("info = %+v", info)
	}
}
