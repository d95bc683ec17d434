package utils

import (
	"fmt"
	"strings"
)

// DirectKey is the canonical key of an unordered user pair: DirectKey(a, b)
// == DirectKey(b, a). The lower id is length-prefixed so ids containing ':'
// cannot collide. Direct chats are unique per key.
func DirectKey(a, b string) string {
	lo, hi := strings.TrimSpace(a), strings.TrimSpace(b)
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%d:%s:%s", len(lo), lo, hi)
}
