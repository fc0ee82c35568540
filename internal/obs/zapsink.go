package obs

import "go.uber.org/zap"

// ZapSink logs each observation as a structured zap entry, the
// production default (spec.md §4.11). Grounded on forma's own
// `zap.S().Debugw(...)` sugared-logger call style, e.g.
// internal/entity_manager_crud.go's "Creating entity" log line.
type ZapSink struct{}

func (ZapSink) ObserveScan(entityPath string, fastPath FastPathKind, keysScanned int) {
	zap.S().Infow("scan", "entity_path", entityPath, "fast_path", fastPathName(fastPath), "keys_scanned", keysScanned)
}

func (ZapSink) ObserveRowsMaterialized(entityPath string, n int) {
	zap.S().Infow("rows_materialized", "entity_path", entityPath, "rows", n)
}

func (ZapSink) ObserveCorruption(storePath string, kind CorruptionKind) {
	zap.S().Warnw("corruption", "store_path", storePath, "kind", corruptionName(kind))
}

func fastPathName(k FastPathKind) string {
	switch k {
	case FastPathPrimaryKey:
		return "primary_key"
	case FastPathSecondaryPrefix:
		return "secondary_prefix"
	case FastPathPrimaryScan:
		return "primary_scan"
	case FastPathIndexRange:
		return "index_range"
	case FastPathComposite:
		return "composite"
	default:
		return "unknown"
	}
}

func corruptionName(k CorruptionKind) string {
	switch k {
	case CorruptionStorageKey:
		return "storage_key"
	case CorruptionIndexKey:
		return "index_key"
	case CorruptionEntityName:
		return "entity_name"
	case CorruptionIndexName:
		return "index_name"
	default:
		return "unknown"
	}
}
