package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

const mathsJSON = `{
  "code": "0580",
  "name": "Mathematics",
  "has_tiers": true,
  "papers": [
    {"paper_number": "1", "name": "Paper 1 (Core)", "tier": "Core", "is_ums": false, "max_raw_mark": 80, "weight_percentage": 50},
    {"paper_number": "2", "name": "Paper 2 (Extended)", "tier": "Extended", "is_ums": false, "max_raw_mark": 100, "max_ums_mark": null, "weight_percentage": 50}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadSubjects(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0580.json", mathsJSON)
	writeFile(t, dir, "notes.txt", "ignored")

	subjects, err := LoadSubjects(dir)
	if err != nil {
		t.Fatalf("LoadSubjects: %v", err)
	}
	if len(subjects) != 1 {
		t.Fatalf("expected 1 subject, got %d", len(subjects))
	}
	s := subjects[0]
	if s.Code != "0580" || !s.HasTiers || len(s.Papers) != 2 {
		t.Fatalf("unexpected subject: %+v", s)
	}
	if s.Papers[0].Tier != model.TierCore || s.Papers[1].MaxUmsMark != nil {
		t.Fatalf("unexpected papers: %+v", s.Papers)
	}
}

func TestLoadSubjectsRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad code":   strings.Replace(mathsJSON, `"0580"`, `"58"`, 1),
		"zero mark":  strings.Replace(mathsJSON, `"max_raw_mark": 80`, `"max_raw_mark": 0`, 1),
		"bad tier":   strings.Replace(mathsJSON, `"tier": "Core"`, `"tier": "Foundation"`, 1),
		"untiered":   strings.Replace(mathsJSON, `"has_tiers": true`, `"has_tiers": false`, 1),
		"not object": `[]`,
	}
	for name, content := range cases {
		dir := t.TempDir()
		writeFile(t, dir, "0580.json", content)
		if _, err := LoadSubjects(dir); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadSubjectsRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", mathsJSON)
	writeFile(t, dir, "b.json", mathsJSON)
	_, err := LoadSubjects(dir)
	if err == nil || !strings.Contains(err.Error(), "already defined in a.json") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLoadSubjectsEmptyDir(t *testing.T) {
	if _, err := LoadSubjects(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}
