// Package pipeline implements the five workers of §4.5-4.9: ingest,
// approve, solidate, calculate, and the update/flush scheduler. All five
// share the three mappers and one counters allocator wired up by
// cmd/tangle-rdb.
package pipeline

// SolidateEntry is one node pushed onto the solidate channel, carrying the
// height to propagate to the trunk partition (nil when the pushing worker
// has no height to offer, e.g. a branch-only transition).
type SolidateEntry struct {
	ID     uint64
	Height *int32
}

// Event tags written to txload and mirrored as Prometheus counters.
const (
	EventNewTransaction = "NTX"
	EventMilestone      = "MST"
	EventConfirmation   = "CNF"
	EventUnsolid        = "UNS"
	EventSolidation      = "SOL"
)

// EventSink records one event occurrence, durably (txload) and as
// telemetry (Prometheus). Implemented by *pipeline.Recorder.
type EventSink interface {
	Emit(tag string, count int)
}
