package constants

// Redis cache key prefixes. Keys are built as PREFIX + identifier so
// invalidation patterns stay predictable.
const (
	CACHE_TIER_AVAILABILITY = "tier:availability:"
	CACHE_EVENT_DETAIL      = "event:detail:"
	CACHE_EVENT_LIST        = "event:list"
)

// Invalidation patterns
const (
	PATTERN_INVALIDATE_EVENT_ALL    = "event:*"
	PATTERN_INVALIDATE_EVENT_DETAIL = "event:detail:"
)
