package tier

import (
	"testing"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

func option(code string, maxMark int, grades ...int) model.RawOption {
	marks := make([]model.Mark, len(grades))
	for i, g := range grades {
		if g < 0 {
			marks[i] = model.Mark{Gap: true}
			continue
		}
		marks[i] = model.Mark{Value: g}
	}
	return model.RawOption{Code: code, MaxMark: maxMark, Grades: marks}
}

func testConfig() Config {
	return Config{
		Tiered:          map[string]Prefixes{"9999": {Core: []string{"A"}, Extended: []string{"B"}}},
		Preferred:       map[string]string{},
		DefaultPrefix:   "A",
		PreferredSuffix: "Y",
	}
}

func TestResolveTieredPrefersSuffixY(t *testing.T) {
	opts := []model.RawOption{
		option("AY", 160, -1, -1, -1, 90, 75, 60, 45, 30),
		option("BY", 200, 170, 150, 130, 110, 90, 70, -1, -1),
		option("AZ", 150, -1, -1, -1, 85, 70, 55, 40, 25),
	}
	target := Target{SyllabusCode: "9999", Season: model.SeasonFM, Year: 2024}
	got := Resolve(opts, target, nil, testConfig())
	if len(got) != 2 {
		t.Fatalf("expected 2 thresholds, got %d", len(got))
	}
	if got[0].Tier != model.TierCore || got[0].OptionCode != "AY" {
		t.Fatalf("expected Core AY, got %s %s", got[0].Tier, got[0].OptionCode)
	}
	if got[1].Tier != model.TierExtended || got[1].OptionCode != "BY" {
		t.Fatalf("expected Extended BY, got %s %s", got[1].Tier, got[1].OptionCode)
	}
	if len(got[0].Grades) != 5 || got[0].Grades[0].Grade != model.GradeC {
		t.Fatalf("expected core grades C..G, got %+v", got[0].Grades)
	}
	if len(got[1].Grades) != 6 || got[1].Grades[5].Grade != model.GradeE {
		t.Fatalf("expected extended grades A*..E, got %+v", got[1].Grades)
	}
}

func TestResolveTieredFallsBackToFirstAndSkipsMissingTier(t *testing.T) {
	opts := []model.RawOption{
		option("AX", 160, -1, -1, -1, 90, 75, 60, 45, 30),
		option("AZ", 150, -1, -1, -1, 85, 70, 55, 40, 25),
	}
	got := Resolve(opts, Target{SyllabusCode: "9999"}, nil, testConfig())
	if len(got) != 1 {
		t.Fatalf("expected only a core threshold, got %d", len(got))
	}
	if got[0].OptionCode != "AX" {
		t.Fatalf("expected first candidate AX, got %s", got[0].OptionCode)
	}
}

func TestResolveTieredPrefersProseMaxMarks(t *testing.T) {
	core, ext := 160, 200
	external := &model.MaxMarks{Default: 200, Core: &core, Extended: &ext}
	opts := []model.RawOption{
		option("AY", 200, -1, -1, -1, 90, 75, 60, 45, 30),
		option("BY", 200, 170, 150, 130, 110, 90, 70, 50, 30),
	}
	got := Resolve(opts, Target{SyllabusCode: "9999"}, external, testConfig())
	if got[0].MaxMark != 160 || got[1].MaxMark != 200 {
		t.Fatalf("expected max marks 160/200, got %d/%d", got[0].MaxMark, got[1].MaxMark)
	}
}

func TestResolveUntieredPreferredPrefix(t *testing.T) {
	cfg := Default()
	opts := []model.RawOption{
		option("AX", 100, 80, 70, 60, 50, 40, 30, 20, 10),
		option("BX", 100, 81, 71, 61, 51, 41, 31, 21, 11),
		option("BY", 100, 82, 72, 62, 52, 42, 32, 22, 12),
	}
	got := Resolve(opts, Target{SyllabusCode: "0500"}, nil, cfg)
	if len(got) != 1 || got[0].OptionCode != "BY" || got[0].Tier != model.TierNone {
		t.Fatalf("expected untiered BY, got %+v", got)
	}

	got = Resolve(opts, Target{SyllabusCode: "0455"}, nil, cfg)
	if got[0].OptionCode != "AX" {
		t.Fatalf("expected default prefix A to select AX, got %s", got[0].OptionCode)
	}
}

func TestResolveUntieredFallsBack(t *testing.T) {
	opts := []model.RawOption{
		option("CX", 100, 80, 70, 60, 50, 40, 30),
		option("DY", 100, 81, 71, 61, 51, 41, 31),
	}
	got := Resolve(opts, Target{SyllabusCode: "0606"}, &model.MaxMarks{Default: 120}, Default())
	if got[0].OptionCode != "DY" {
		t.Fatalf("expected Y option from the remainder, got %s", got[0].OptionCode)
	}
	if got[0].MaxMark != 120 {
		t.Fatalf("expected prose max mark 120, got %d", got[0].MaxMark)
	}
	if Resolve(nil, Target{SyllabusCode: "0606"}, nil, Default()) != nil {
		t.Fatalf("expected no thresholds for no options")
	}
}

func TestMergeDoesNotMutateBase(t *testing.T) {
	base := Default()
	merged := base.Merge(map[string]Prefixes{"0654": {Core: []string{"F"}, Extended: []string{"B"}}}, map[string]string{"0500": "A"})
	if !merged.IsTiered("0654") {
		t.Fatalf("expected merged config to include 0654")
	}
	if base.IsTiered("0654") {
		t.Fatalf("expected base config to be unchanged")
	}
	if merged.Preferred["0500"] != "A" || base.Preferred["0500"] != "B" {
		t.Fatalf("unexpected preferred prefixes: merged=%q base=%q", merged.Preferred["0500"], base.Preferred["0500"])
	}
}
