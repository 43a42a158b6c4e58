package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/csvimport"
)

const export = "Athlete,#,K,Digs\nCaroline Toberman,12,9,4\nMadison Maxwell,3,2,x\n"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSuggestCommand(t *testing.T) {
	csvPath := writeFile(t, t.TempDir(), "export.csv", export)

	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs([]string{"suggest", csvPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("suggest: %v", err)
	}

	var resp struct {
		Encoding    string `json:"encoding"`
		Suggestions []struct {
			Column string           `json:"column"`
			Key    *catalog.StatKey `json:"key"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if resp.Encoding != "utf-8" || len(resp.Suggestions) != 4 {
		t.Fatalf("resp = %+v", resp)
	}
	want := map[string]catalog.StatKey{"Athlete": catalog.PlayerName, "K": catalog.Kills, "Digs": catalog.Digs}
	for _, s := range resp.Suggestions {
		key, ok := want[s.Column]
		if !ok {
			continue
		}
		if s.Key == nil || *s.Key != key {
			t.Fatalf("suggestion for %q = %v, want %q", s.Column, s.Key, key)
		}
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "export.csv", export)
	configPath := writeFile(t, dir, "config.yaml", fmt.Sprintf(`app:
  name: VolleyTech
  port: 8080
database:
  driver: sqlite
  filename: %s
`, filepath.ToSlash(filepath.Join(dir, "db", "statimport.db"))))

	run := func(args ...string) *csvimport.Result {
		t.Helper()
		var out bytes.Buffer
		root := newRootCmd(&out)
		root.SetArgs(append([]string{"--config", configPath, "run", csvPath}, args...))
		if err := root.Execute(); err != nil {
			t.Fatalf("run %v: %v", args, err)
		}
		var result csvimport.Result
		if err := json.Unmarshal(out.Bytes(), &result); err != nil {
			t.Fatalf("decode: %v\n%s", err, out.String())
		}
		return &result
	}

	first := run("--source", "balltime", "--team", "team_001", "--accept", "--coerce")
	if len(first.Accepted) != 3 || first.Profile.Map["K"] != catalog.Kills {
		t.Fatalf("accepted = %v, map = %v", first.Accepted, first.Profile.Map)
	}
	if len(first.Rows) != 2 || first.Unmatched != 2 {
		t.Fatalf("rows = %d, unmatched = %d", len(first.Rows), first.Unmatched)
	}
	if len(first.Rows[1].FieldErrors) != 1 {
		t.Fatalf("row 3 field errors = %+v", first.Rows[1].FieldErrors)
	}

	second := run("--source", "balltime", "--team", "team_001")
	if second.Profile.MappingProfileID != first.Profile.MappingProfileID || len(second.Accepted) != 0 {
		t.Fatalf("second run profile = %+v, accepted = %v", second.Profile, second.Accepted)
	}

	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs([]string{"--config", configPath, "run", csvPath, "--source", "maxpreps", "--team", "team_001"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
