// Package paging implements the offset cursor shared by extractors that
// rebuild their full result list on every call.
package paging

import (
	"strconv"
	"strings"
)

// ParseOffset decodes an offset cursor. Anything that is not a
// non-negative decimal integer means "start from the beginning".
func ParseOffset(cursor string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cursor))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Window is how many items a scan must collect to know whether a page
// starting at offset has a successor
func Window(offset, limit int) int {
	return offset + limit + 1
}

// Slice returns the page [offset, offset+limit) of all and the cursor of
// the following page, or "" when no item follows
func Slice[T any](all []T, offset, limit int) ([]T, string) {
	if offset >= len(all) || limit <= 0 {
		return []T{}, ""
	}

	end := offset + limit
	next := ""
	if len(all) > end {
		next = strconv.Itoa(end)
	} else {
		end = len(all)
	}

	page := make([]T, end-offset)
	copy(page, all[offset:end])
	return page, next
}
