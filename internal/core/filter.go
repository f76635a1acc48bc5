package core

import "strings"

// FilterKind narrows the transaction list to one movement direction.
type FilterKind string

const (
	FilterAll     FilterKind = "all"
	FilterIncome  FilterKind = "income"
	FilterExpense FilterKind = "expense"
)

func (k FilterKind) IsValid() bool {
	return k == FilterAll || k == FilterIncome || k == FilterExpense
}

// DateRange is an inclusive [From, To] calendar interval. A zero-valued
// bound leaves that side open.
type DateRange struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// FilterState is the filter specification applied to the transaction list.
// Each field at its neutral value (nil range, empty set, empty string,
// FilterAll) skips its predicate.
type FilterState struct {
	Range      *DateRange `json:"range,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Search     string     `json:"search,omitempty"`
	Kind       FilterKind `json:"kind"`
}

// DefaultFilter returns the neutral filter state.
func DefaultFilter() FilterState {
	return FilterState{Kind: FilterAll}
}

// ApplyFilter returns the transactions matching every active predicate,
// preserving input order. Date comparison is lexicographic on the canonical
// yyyy-MM-dd form, which matches chronological order.
func ApplyFilter(txs []Transaction, f FilterState) []Transaction {
	categories := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		categories[c] = true
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Kind != "" && f.Kind != FilterAll && string(tx.Kind) != string(f.Kind) {
			continue
		}
		if f.Range != nil {
			d := tx.Date.String()
			if !f.Range.From.IsZero() && d < f.Range.From.String() {
				continue
			}
			if !f.Range.To.IsZero() && d > f.Range.To.String() {
				continue
			}
		}
		if len(categories) > 0 && !categories[tx.Category] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Description), search) &&
			!strings.Contains(strings.ToLower(tx.Category), search) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
