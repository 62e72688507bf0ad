package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var componentRowPattern = regexp.MustCompile(`^Component\s+(\d{2,3})\s+(\d+)`)

// ComponentMax is one row of the component table.
type ComponentMax struct {
	Code    string
	MaxMark int
}

// ExtractComponents reads the per-component max marks listed before the overall section.
func ExtractComponents(text string) []ComponentMax {
	before, _, _ := OverallSection(text)
	var out []ComponentMax
	for _, line := range strings.Split(before, "\n") {
		m := componentRowPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		out = append(out, ComponentMax{Code: m[1], MaxMark: v})
	}
	return out
}

// PaperNumber maps a component code to its paper: "12" and "012" are paper 1 variants.
func PaperNumber(componentCode string) string {
	trimmed := strings.TrimLeft(componentCode, "0")
	if trimmed != "" {
		return trimmed[:1]
	}
	if componentCode == "" {
		return ""
	}
	return componentCode[:1]
}
