package estimate

import (
	"math"
	"sort"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// ConvertRawToUms interpolates a raw mark on a conversion table. Marks outside the table are
// clamped to its ends. An empty table returns the raw mark unchanged.
func ConvertRawToUms(raw int, table []model.UmsConversionPoint) int {
	if len(table) == 0 {
		return raw
	}
	sorted := make([]model.UmsConversionPoint, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RawMark < sorted[j].RawMark })

	first, last := sorted[0], sorted[len(sorted)-1]
	if raw <= first.RawMark {
		return first.UmsMark
	}
	if raw >= last.RawMark {
		return last.UmsMark
	}
	for i := 0; i < len(sorted)-1; i++ {
		lo, hi := sorted[i], sorted[i+1]
		if raw < lo.RawMark || raw > hi.RawMark {
			continue
		}
		if hi.RawMark == lo.RawMark {
			return lo.UmsMark
		}
		fraction := float64(raw-lo.RawMark) / float64(hi.RawMark-lo.RawMark)
		return int(math.Round(float64(lo.UmsMark) + fraction*float64(hi.UmsMark-lo.UmsMark)))
	}
	return raw
}
