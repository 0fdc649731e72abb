// Package window resolves a user-supplied "since" expression into the single
// instant every downstream filter uses as its boundary.
package window

import (
	"fmt"
	"time"

	"github.com/chesscom/workreport/internal/domain"
)

// Accepted absolute layouts. Dates without a zone are taken in the local one.
var layouts = []string{"2006-01-02", "2006/01/02", time.RFC3339}

// Resolve parses expr relative to now. The keywords "today" and "yesterday"
// resolve to local midnight of the respective day.
func Resolve(expr string, now time.Time) (time.Time, error) {
	switch expr {
	case "today":
		return midnight(now), nil
	case "yesterday":
		return midnight(now).AddDate(0, 0, -1), nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, expr, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidSince, expr)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
