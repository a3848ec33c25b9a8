// Package table holds the product table's filter predicate and row
// presentation helpers.
package table

import (
	"strings"
	"time"

	"github.com/99minutos/product-dashboard/internal/dashboard/store"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// Criteria is the filter the operator typed into the table toolbar.
type Criteria struct {
	Search string
	Status string
}

func DefaultCriteria() Criteria {
	return Criteria{Status: StatusAll}
}

// Clear resets both filters.
func (c *Criteria) Clear() {
	*c = DefaultCriteria()
}

// Active reports whether any filter narrows the table.
func (c Criteria) Active() bool {
	return strings.TrimSpace(c.Search) != "" || (c.Status != "" && c.Status != StatusAll)
}

var statuses = map[string]bool{
	"pending":   true,
	"confirmed": true,
	"delivered": true,
	"cancelled": true,
}

// ParseCriteria builds Criteria from query parameters. Unknown statuses fall
// back to StatusAll.
func ParseCriteria(search, status string) Criteria {
	c := Criteria{Search: search, Status: StatusAll}
	status = strings.ToLower(strings.TrimSpace(status))
	if statuses[status] {
		c.Status = status
	}
	return c
}

// Matches applies the status filter first, then the search term against
// the row's name, SKU, category and status.
func (c Criteria) Matches(p store.Product) bool {
	if c.Status != "" && c.Status != StatusAll && p.Status != c.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(c.Search))
	if term == "" {
		return true
	}
	fields := make([]string, 0, 4)
	for _, f := range []string{p.Name, p.SKU, p.Category, p.Status} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return strings.Contains(strings.ToLower(strings.Join(fields, " ")), term)
}

// Filter keeps the order of items.
func (c Criteria) Filter(items []store.Product) []store.Product {
	out := make([]store.Product, 0, len(items))
	for _, p := range items {
		if c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Initials is the avatar text for a row: the first letter of up to two words.
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "?"
	}
	var b strings.Builder
	for i, w := range words {
		if i == 2 {
			break
		}
		r := []rune(w)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// FormatDate renders an ISO timestamp as a date in loc, or "-".
func FormatDate(iso string, loc *time.Location) string {
	if iso == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("01/02/2006")
}
