// Package analytics computes the dashboard's aggregate views from the
// products slice.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/99minutos/product-dashboard/internal/dashboard/store"
)

type Bucket struct {
	Key   string
	Label string
	Count int
}

// Share is the bucket's fraction of max, for bar widths.
func (b Bucket) Share(max int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(float64(b.Count) / float64(max) * 100))
}

// ByStatus counts items per status in first-seen order. The label replaces
// the first "_" with a space.
func ByStatus(items []store.Product) []Bucket {
	return count(items, func(p store.Product) string { return p.Status }, func(k string) string {
		return strings.Replace(k, "_", " ", 1)
	})
}

// ByCategory counts items per category in first-seen order.
func ByCategory(items []store.Product) []Bucket {
	return count(items, func(p store.Product) string { return p.Category }, nil)
}

// ByMonth buckets items by the YYYY-MM of createdAt in loc, ascending.
// Items without a parseable createdAt are left out.
func ByMonth(items []store.Product, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.Local
	}
	buckets := count(items, func(p store.Product) string {
		if p.CreatedAt == "" {
			return ""
		}
		t, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
		if err != nil {
			return ""
		}
		t = t.In(loc)
		return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
	}, nil)

	out := buckets[:0]
	for _, b := range buckets {
		if b.Key != "" {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Max is the largest count, or 0.
func Max(buckets []Bucket) int {
	m := 0
	for _, b := range buckets {
		if b.Count > m {
			m = b.Count
		}
	}
	return m
}

func count(items []store.Product, key func(store.Product) string, label func(string) string) []Bucket {
	index := map[string]int{}
	var out []Bucket
	for _, p := range items {
		k := key(p)
		i, ok := index[k]
		if !ok {
			l := k
			if label != nil {
				l = label(k)
			}
			index[k] = len(out)
			out = append(out, Bucket{Key: k, Label: l})
			i = len(out) - 1
		}
		out[i].Count++
	}
	return out
}

// Summary is the headline card row of the analytics page.
type Summary struct {
	Total     int
	Pending   int
	Cancelled int
	Delivered int
}

func Summarize(items []store.Product) Summary {
	s := Summary{Total: len(items)}
	for _, p := range items {
		switch p.Status {
		case "pending":
			s.Pending++
		case "cancelled":
			s.Cancelled++
		case "delivered":
			s.Delivered++
		}
	}
	return s
}

// PendingShare is the pending percentage rounded to a whole number.
func (s Summary) PendingShare() string {
	if s.Total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int(math.Round(float64(s.Pending)/float64(s.Total)*100)))
}

// NeedsAttention reports whether any product is cancelled.
func (s Summary) NeedsAttention() bool {
	return s.Cancelled > 0
}
