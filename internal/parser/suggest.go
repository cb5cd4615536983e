package parser

import (
	"strings"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
)

const (
	insertCost  = 10
	replaceCost = 11
	deleteCost  = 10
)

// levenshtein computes a byte-wise weighted edit distance turning a into b.
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j * insertCost
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i * deleteCost
		for j := 1; j <= len(b); j++ {
			replace := prev[j-1]
			if a[i-1] != b[j-1] {
				replace += replaceCost
			}
			cur[j] = min(prev[j]+deleteCost, cur[j-1]+insertCost, replace)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// suggestField returns the known field closest to name, if any is close
// enough. The allowed distance grows with the length of name.
func suggestField(name string) (securitytxt.Field, bool) {
	lower := strings.ToLower(name)
	limit := (float64(len(lower))/4+1)*10 + .1

	var best securitytxt.Field
	found := false
	for _, f := range securitytxt.Fields() {
		candidate := strings.ToLower(string(f))
		if candidate == lower {
			continue
		}
		if d := float64(levenshtein(candidate, lower)); d < limit {
			limit = d
			best = f
			found = true
		}
	}
	return best, found
}
