package pagination

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/rshade/footprint/internal/engine"
)

// ErrInvalidSortField is returned for fields DaySorter does not know.
var ErrInvalidSortField = errors.New("invalid sort field")

// DaySorter orders history rows.
type DaySorter struct {
	less map[string]func(a, b engine.DayRow) bool
}

// NewDaySorter returns a sorter over the date, total and per-category columns.
func NewDaySorter() *DaySorter {
	return &DaySorter{
		less: map[string]func(a, b engine.DayRow) bool{
			"date":        func(a, b engine.DayRow) bool { return a.Date < b.Date },
			"total":       func(a, b engine.DayRow) bool { return a.Total < b.Total },
			"transport":   func(a, b engine.DayRow) bool { return a.Transport < b.Transport },
			"electricity": func(a, b engine.DayRow) bool { return a.Electricity < b.Electricity },
			"food":        func(a, b engine.DayRow) bool { return a.Food < b.Food },
		},
	}
}

// ValidFields lists the sortable fields.
func (s *DaySorter) ValidFields() []string {
	fields := make([]string, 0, len(s.less))
	for f := range s.less {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Sort returns a sorted copy of rows. Ties keep their date order.
func (s *DaySorter) Sort(rows []engine.DayRow, field, order string) ([]engine.DayRow, error) {
	less, ok := s.less[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrInvalidSortField, field, strings.Join(s.ValidFields(), ", "))
	}
	out := slices.Clone(rows)
	sort.SliceStable(out, func(i, j int) bool {
		if order == SortOrderDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}
