package players

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
)

// Column is a sortable player attribute.
type Column string

const (
	ColumnUsername  Column = "username"
	ColumnFullName  Column = "fullName"
	ColumnAnxiety   Column = "anxietyPercentage"
	ColumnTotalTime Column = "totalTime"
	ColumnTimestamp Column = "timestamp"
)

// Columns lists every sortable column in display order.
var Columns = []Column{ColumnUsername, ColumnFullName, ColumnAnxiety, ColumnTotalTime, ColumnTimestamp}

// ParseColumn matches s case-insensitively against Columns.
func ParseColumn(s string) (Column, error) {
	for _, c := range Columns {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown column %q", s)
}

// Order is the sort direction.
type Order int

const (
	Desc Order = iota
	Asc
)

func (o Order) String() string {
	if o == Asc {
		return "asc"
	}
	return "desc"
}

// SortState is the dashboard's current ordering.
type SortState struct {
	Column Column
	Order  Order
}

// DefaultSort is newest first.
func DefaultSort() SortState {
	return SortState{Column: ColumnTimestamp, Order: Desc}
}

// Toggle returns the state after picking col: the same column flips the
// order, a different column starts descending.
func (s SortState) Toggle(col Column) SortState {
	if s.Column == col {
		if s.Order == Asc {
			return SortState{Column: col, Order: Desc}
		}
		return SortState{Column: col, Order: Asc}
	}
	return SortState{Column: col, Order: Desc}
}

// Sort returns a stably sorted copy of list.
func (s SortState) Sort(list []*models.Player) []*models.Player {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b *models.Player) int {
		c := compare(s.Column, a, b)
		if s.Order == Desc {
			return -c
		}
		return c
	})
	return out
}

func compare(col Column, a, b *models.Player) int {
	switch col {
	case ColumnUsername:
		return strings.Compare(a.Username, b.Username)
	case ColumnFullName:
		return strings.Compare(a.FullName, b.FullName)
	case ColumnAnxiety:
		return cmp.Compare(a.AnxietyPercentage, b.AnxietyPercentage)
	case ColumnTotalTime:
		return cmp.Compare(a.TotalTime, b.TotalTime)
	default:
		return a.Timestamp.Compare(b.Timestamp.Time)
	}
}
