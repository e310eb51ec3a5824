package projector

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// ErrInvalidPattern is wrapped into the filter error when the query does not
// compile. Such a query matches no rows.
var ErrInvalidPattern = errors.New("invalid filter pattern")

// rowMatcher is a compiled filter query. The zero value matches everything.
type rowMatcher struct {
	query string
	re    *regexp.Regexp
	err   error
}

// compileMatcher treats the query as a regular expression searched anywhere
// in the row address or user agent. Metacharacters are not escaped: "1.2"
// also matches "102".
func compileMatcher(query string) rowMatcher {
	if query == "" {
		return rowMatcher{}
	}
	re, err := regexp.Compile(query)
	if err != nil {
		return rowMatcher{query: query, err: fmt.Errorf("%w %q: %v", ErrInvalidPattern, query, err)}
	}
	return rowMatcher{query: query, re: re}
}

func (m rowMatcher) match(r *PeerRow) bool {
	if m.query == "" {
		return true
	}
	if m.re == nil {
		return false
	}
	return m.re.MatchString(r.Address) || m.re.MatchString(r.UserAgent)
}

// filterRows keeps matching rows in their original order.
func filterRows(rows []PeerRow, m rowMatcher) []PeerRow {
	if m.query == "" {
		return rows
	}
	kept := rows[:0:0]
	for i := range rows {
		if m.match(&rows[i]) {
			kept = append(kept, rows[i])
		}
	}
	return kept
}

// orderRows sorts ascending by ConnectedSince with a stable sort and then
// reverses, so the newest connections come first and equal timestamps appear
// in reverse snapshot order. DisplayIndex is reassigned densely.
func orderRows(rows []PeerRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ConnectedSince < rows[j].ConnectedSince
	})
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	for i := range rows {
		rows[i].DisplayIndex = i
	}
}
