package framecache

import (
	"fmt"
)

// OverflowPolicy is the behavior of the cache when it is full.
type OverflowPolicy int

// overflow policies.
const (
	// OverflowEvictOldest discards the oldest chunk to make room for the new one.
	OverflowEvictOldest OverflowPolicy = iota

	// OverflowDropNewest discards the new chunk.
	OverflowDropNewest

	// OverflowBlock pauses capture until a consumer frees a slot.
	OverflowBlock
)

// String implements fmt.Stringer.
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowEvictOldest:
		return "evictOldest"
	case OverflowDropNewest:
		return "dropNewest"
	case OverflowBlock:
		return "block"
	}
	return fmt.Sprintf("unknown (%d)", int(p))
}

// ParseOverflowPolicy parses an overflow policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "evictOldest", "":
		return OverflowEvictOldest, nil
	case "dropNewest":
		return OverflowDropNewest, nil
	case "block":
		return OverflowBlock, nil
	}
	return 0, fmt.Errorf("invalid overflow policy: '%s'", s)
}
