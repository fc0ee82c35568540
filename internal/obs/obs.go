// Package obs implements the observability boundary: a typed event sink
// for the counters spec.md §7's diagnostics mentions, installed via a
// context-scoped override rather than a goroutine-local (spec.md §9
// Design Notes "Thread-local global state", translated to Go idiom).
package obs

import "context"

// FastPathKind mirrors internal/planner.FastPathOrder without importing
// it, so obs has no dependency on the planner package (spec.md §4.11).
type FastPathKind uint8

const (
	FastPathPrimaryKey FastPathKind = iota
	FastPathSecondaryPrefix
	FastPathPrimaryScan
	FastPathIndexRange
	FastPathComposite
)

// CorruptionKind classifies what kind of stored record failed to decode.
type CorruptionKind uint8

const (
	CorruptionStorageKey CorruptionKind = iota
	CorruptionIndexKey
	CorruptionEntityName
	CorruptionIndexName
)

// Sink receives counters the executor and planner emit during execution.
type Sink interface {
	ObserveScan(entityPath string, fastPath FastPathKind, keysScanned int)
	ObserveRowsMaterialized(entityPath string, n int)
	ObserveCorruption(storePath string, kind CorruptionKind)
}

// NopSink discards every observation; the zero-configuration default.
type NopSink struct{}

func (NopSink) ObserveScan(string, FastPathKind, int)    {}
func (NopSink) ObserveRowsMaterialized(string, int)      {}
func (NopSink) ObserveCorruption(string, CorruptionKind) {}

// CountingSink accumulates exact counters, used by tests asserting the
// literal keys-scanned numbers from spec.md §8's end-to-end scenarios.
type CountingSink struct {
	Scans              []ScanObservation
	RowsMaterialized   int
	CorruptionsObserved int
}

type ScanObservation struct {
	EntityPath  string
	FastPath    FastPathKind
	KeysScanned int
}

func (s *CountingSink) ObserveScan(entityPath string, fastPath FastPathKind, keysScanned int) {
	s.Scans = append(s.Scans, ScanObservation{EntityPath: entityPath, FastPath: fastPath, KeysScanned: keysScanned})
}

func (s *CountingSink) ObserveRowsMaterialized(_ string, n int) {
	s.RowsMaterialized += n
}

func (s *CountingSink) ObserveCorruption(_ string, _ CorruptionKind) {
	s.CorruptionsObserved++
}

func (s *CountingSink) TotalKeysScanned() int {
	total := 0
	for _, sc := range s.Scans {
		total += sc.KeysScanned
	}
	return total
}

type sinkCtxKey struct{}

// WithSink installs sink into ctx, shadowing any sink an outer scope
// installed. Callers restore the outer scope implicitly by discarding
// the returned context at the end of the call (spec.md §5 "Scheduling
// model": no goroutine-local state, the caller's own defer/return is the
// restoration mechanism).
func WithSink(ctx context.Context, sink Sink) context.Context {
	return context.WithValue(ctx, sinkCtxKey{}, sink)
}

// SinkFromContext returns the installed sink, or NopSink{} if none was
// installed.
func SinkFromContext(ctx context.Context) Sink {
	if s, ok := ctx.Value(sinkCtxKey{}).(Sink); ok {
		return s
	}
	return NopSink{}
}
