// FILE: pkg/events/engine_events.go
// PURPOSE: Ops events emitted by the routing engine

package events

import "time"

const (
	TypeIndexRebuilt      = "INDEX_REBUILT"
	TypeIndexRebuildError = "INDEX_REBUILD_FAILED"
	TypeCacheFlushed      = "CACHE_FLUSHED"
	TypeKeywordsReloaded  = "KEYWORDS_RELOADED"
	TypeEngineReset       = "ENGINE_RESET"
)

// NewIndexRebuilt reports a successful index rebuild.
func NewIndexRebuilt(snapshotID string, totalItems int, duration time.Duration) Event {
	return BaseEvent{
		Type: TypeIndexRebuilt,
		Data: map[string]interface{}{
			"snapshot_id": snapshotID,
			"total_items": totalItems,
			"duration_ms": duration.Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
}

// NewIndexRebuildFailed reports an aborted rebuild. The previous snapshot
// keeps serving.
func NewIndexRebuildFailed(reason string) Event {
	return BaseEvent{
		Type: TypeIndexRebuildError,
		Data: map[string]interface{}{
			"reason": reason,
		},
		OccurredAt: time.Now(),
	}
}

// NewCacheFlushed reports which cache layer was purged.
func NewCacheFlushed(scope string) Event {
	return BaseEvent{
		Type: TypeCacheFlushed,
		Data: map[string]interface{}{
			"scope": scope,
		},
		OccurredAt: time.Now(),
	}
}

// NewKeywordsReloaded reports a dictionary swap.
func NewKeywordsReloaded(directMatches int) Event {
	return BaseEvent{
		Type: TypeKeywordsReloaded,
		Data: map[string]interface{}{
			"direct_matches": directMatches,
		},
		OccurredAt: time.Now(),
	}
}

// NewEngineReset reports a full counters-and-caches reset.
func NewEngineReset(by string) Event {
	return BaseEvent{
		Type: TypeEngineReset,
		Data: map[string]interface{}{
			"requested_by": by,
		},
		OccurredAt: time.Now(),
	}
}
