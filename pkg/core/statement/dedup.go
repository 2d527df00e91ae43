package statement

import (
	"sort"

	"fin_ratio/pkg/models"
)

// Deduplicate keeps one row per (account name, statement name): the one with
// the smallest display order. On equal order the first row seen wins, so the
// result depends on upstream ordering when upstream repeats an order value.
//
// Survivors are returned in the order their key was first seen.
func Deduplicate(rows []models.StatementRow) []models.StatementRow {
	best := make(map[models.DedupKey]int, len(rows))
	var out []models.StatementRow

	for _, row := range rows {
		key := row.Key()
		idx, ok := best[key]
		if !ok {
			best[key] = len(out)
			out = append(out, row)
			continue
		}
		if row.Ord < out[idx].Ord {
			out[idx] = row
		}
	}
	return out
}

// FilterYear returns the rows belonging to one business year.
func FilterYear(rows []models.StatementRow, bsnsYear string) []models.StatementRow {
	var out []models.StatementRow
	for _, row := range rows {
		if row.BsnsYear == bsnsYear {
			out = append(out, row)
		}
	}
	return out
}

// SortCanonical orders rows by business year (newest first), statement
// division, then display order.
func SortCanonical(rows []models.StatementRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.BsnsYear != b.BsnsYear {
			return a.BsnsYear > b.BsnsYear
		}
		if a.SjDiv != b.SjDiv {
			return a.SjDiv < b.SjDiv
		}
		return a.Ord < b.Ord
	})
}
