// Package similartext suggests close matches for a misspelled name, for use
// in "does not exist" error messages.
package similartext

import (
	"fmt"
	"strings"
)

// maxDistance is the largest Levenshtein distance at which a name is still
// considered similar enough to suggest.
const maxDistance = 3

func distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Find returns a message suffix suggesting the names closest to src, or ""
// when src is empty or nothing is close enough. The suffix is meant to be
// appended to an error message, e.g. "column [foo] does not exist" +
// Find(names, "foo").
func Find(names []string, src string) string {
	if len(src) == 0 {
		return ""
	}
	best := -1
	byDistance := make(map[int][]string)
	for _, name := range names {
		d := distance([]rune(name), []rune(src))
		if d > maxDistance {
			continue
		}
		if best == -1 || d < best {
			best = d
		}
		byDistance[d] = append(byDistance[d], name)
	}
	if best == -1 {
		return ""
	}
	return fmt.Sprintf(", maybe you mean %s?", strings.Join(byDistance[best], " or "))
}

// FindFromMap is Find over the keys of a map.
func FindFromMap[V any](names map[string]V, src string) string {
	list := make([]string, 0, len(names))
	for name := range names {
		list = append(list, name)
	}
	return Find(list, src)
}
