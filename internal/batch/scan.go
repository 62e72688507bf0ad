// Package batch parses a tree of raw threshold documents concurrently.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Kind is the file format of a source document.
type Kind string

// Kinds.
const (
	KindText Kind = "txt"
	KindPDF  Kind = "pdf"
)

// Source is one raw document found under the raw root.
type Source struct {
	Path         string
	SyllabusCode string
	Season       model.Season
	Year         int
	Kind         Kind
}

var (
	yearDirRE  = regexp.MustCompile(`^\d{4}$`)
	codeFileRE = regexp.MustCompile(`^(\d{4})\.(txt|pdf)$`)
)

// seasonDirs maps a season to its directory under the raw root. FM documents live at the root.
var seasonDirs = []struct {
	season model.Season
	dir    string
}{
	{model.SeasonFM, ""},
	{model.SeasonMJ, "mj"},
	{model.SeasonON, "on"},
}

// Scan lists documents under root as root/{year}, root/mj/{year} and root/on/{year}.
// When a syllabus has both a .txt and a .pdf file, the already extracted text wins.
// A missing root is an error; missing season directories are not.
func Scan(root string) ([]Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("raw directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("raw directory: %s is not a directory", root)
	}

	var out []Source
	for _, sd := range seasonDirs {
		dir := filepath.Join(root, sd.dir)
		years, err := yearDirs(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for _, year := range years {
			sources, err := scanYear(filepath.Join(dir, strconv.Itoa(year)), sd.season, year)
			if err != nil {
				return nil, err
			}
			out = append(out, sources...)
		}
	}
	return out, nil
}

func yearDirs(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var years []int
	for _, e := range entries {
		if !e.IsDir() || !yearDirRE.MatchString(e.Name()) {
			continue
		}
		year, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

func scanYear(dir string, season model.Season, year int) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	byCode := map[string]Source{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := codeFileRE.FindStringSubmatch(strings.ToLower(e.Name()))
		if m == nil {
			continue
		}
		src := Source{
			Path:         filepath.Join(dir, e.Name()),
			SyllabusCode: m[1],
			Season:       season,
			Year:         year,
			Kind:         Kind(m[2]),
		}
		if prev, ok := byCode[src.SyllabusCode]; ok && prev.Kind == KindText {
			continue
		}
		byCode[src.SyllabusCode] = src
	}
	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]Source, 0, len(codes))
	for _, code := range codes {
		out = append(out, byCode[code])
	}
	return out, nil
}

// SourcePath returns where Scan expects the document of a syllabus, season and year.
func SourcePath(root string, season model.Season, year int, code string, kind Kind) string {
	dir := root
	for _, sd := range seasonDirs {
		if sd.season == season {
			dir = filepath.Join(root, sd.dir)
			break
		}
	}
	return filepath.Join(dir, strconv.Itoa(year), code+"."+string(kind))
}
