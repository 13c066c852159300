package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Filter narrows a Query. Zero values place no constraint.
type Filter struct {
	User string
	// Date matches records whose timestamp falls on the same calendar day,
	// evaluated in the log's location.
	Date time.Time
}

// Query returns the records matching f, most recent first. Records with the
// same timestamp keep their insertion order.
func (l *Log) Query(ctx context.Context, f Filter) []Record {
	records := l.load(ctx)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.User != "" && r.Username != f.User {
			continue
		}
		if !f.Date.IsZero() && !sameDay(r.Timestamp.In(l.loc), f.Date) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ParseDay reads a calendar day such as "2024-05-01" and returns midnight of
// that day in loc. Empty input yields the zero time.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}

	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
