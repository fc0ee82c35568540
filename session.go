package icykv

import (
	"context"

	"github.com/icydb/icykv/internal/executor"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/obs"
	"github.com/icydb/icykv/internal/saveexec"
	"github.com/icydb/icykv/internal/store"
)

// MissingRowPolicy selects the ReadConsistency a caller's load/aggregate
// query runs under (spec.md §6: "Missing-row policy enum with Ignore and
// Error variants selects ReadConsistency").
type MissingRowPolicy uint8

const (
	PolicyIgnore MissingRowPolicy = iota
	PolicyError
)

func (p MissingRowPolicy) consistency() ReadConsistency {
	if p == PolicyError {
		return ConsistencyStrict
	}
	return ConsistencyMissingOk
}

// Session is the process-lifetime facade a caller builds once per
// canister/process (spec.md §3 "Lifecycle": "Db<C> ... is created once
// per process; it binds a StoreRegistry"). It binds together the store
// registry, a row codec, and the configuration the executor/saveexec
// layers consult.
type Session struct {
	Registry *store.Registry
	Codec    RowCodec
	Config   *Config

	recovered bool
}

// NewSession constructs a Session bound to registry and codec, applying
// DefaultConfig() unless overridden by WithConfig. It runs
// ensureRecoveredState immediately, matching spec.md §3's "Before any
// read/write, a recovery step validates commit state" — here a no-op
// placeholder since the persistence/commit/WAL subsystem is an external
// collaborator this core never owns (spec.md §1).
func NewSession(registry *store.Registry, codec RowCodec) (*Session, error) {
	s := &Session{Registry: registry, Codec: codec, Config: DefaultConfig()}
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	s.ensureRecoveredState()
	return s, nil
}

// WithConfig replaces s's Config, validating it first.
func (s *Session) WithConfig(cfg *Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s.Config = cfg
	return s, nil
}

// ensureRecoveredState is the fail-fast gate spec.md §5 describes
// ("Commit/recovery state is validated once per context acquisition...
// executors fail fast if recovery has not run"). The WAL subsystem
// itself lives outside the core, so this session simply records that
// the gate has been passed; a host wiring a real WAL would call a
// collaborator here before setting the flag.
func (s *Session) ensureRecoveredState() {
	s.recovered = true
}

func (s *Session) requireRecovered() error {
	if !s.recovered {
		return NewInternalError(ClassInvariantViolation, OriginStore, "session used before recovery completed")
	}
	return nil
}

func (s *Session) kernel() *executor.Kernel {
	return &executor.Kernel{Registry: s.Registry, Codec: s.Codec}
}

func (s *Session) saveExecutor() *saveexec.Executor {
	return &saveexec.Executor{Registry: s.Registry, Codec: s.Codec}
}

// Insert writes row, failing if a row with the same primary key already
// exists (spec.md §6 "direct write methods insert, replace, update").
func (s *Session) Insert(ctx context.Context, model EntityModel, dataPath string, row EntityValue) error {
	return s.save(ctx, model, dataPath, row, saveexec.ModeInsert)
}

// Replace upserts row: insert if absent, overwrite if present.
func (s *Session) Replace(ctx context.Context, model EntityModel, dataPath string, row EntityValue) error {
	return s.save(ctx, model, dataPath, row, saveexec.ModeReplace)
}

// Update writes row, requiring a row with the same primary key already
// exist.
func (s *Session) Update(ctx context.Context, model EntityModel, dataPath string, row EntityValue) error {
	return s.save(ctx, model, dataPath, row, saveexec.ModeUpdate)
}

func (s *Session) save(ctx context.Context, model EntityModel, dataPath string, row EntityValue, mode saveexec.Mode) error {
	if err := s.requireRecovered(); err != nil {
		return err
	}
	en, err := keycodec.NewEntityName(model.Path)
	if err != nil {
		return err
	}
	return s.saveExecutor().Save(ctx, dataPath, en, model, row, mode)
}

// AtomicBatchSave stages every item before committing any of them
// (spec.md §4.10 "Atomic batch semantics").
func (s *Session) AtomicBatchSave(ctx context.Context, model EntityModel, dataPath string, rows []EntityValue, mode saveexec.Mode) error {
	if err := s.requireRecovered(); err != nil {
		return err
	}
	en, err := keycodec.NewEntityName(model.Path)
	if err != nil {
		return err
	}
	items := make([]saveexec.BatchItem, len(rows))
	for i, r := range rows {
		items[i] = saveexec.BatchItem{Row: r}
	}
	return s.saveExecutor().AtomicBatchSave(ctx, dataPath, en, model, items, mode)
}

// NonAtomicBatchSave commits rows one at a time and stops at the first
// row that fails, leaving the rows committed before it in place; a
// classified failure is recorded in the returned BatchErrors.
func (s *Session) NonAtomicBatchSave(ctx context.Context, model EntityModel, dataPath string, rows []EntityValue, mode saveexec.Mode) (*BatchErrors, error) {
	if err := s.requireRecovered(); err != nil {
		return nil, err
	}
	en, err := keycodec.NewEntityName(model.Path)
	if err != nil {
		return nil, err
	}
	items := make([]saveexec.BatchItem, len(rows))
	for i, r := range rows {
		items[i] = saveexec.BatchItem{Row: r}
	}
	return s.saveExecutor().NonAtomicBatchSave(ctx, dataPath, en, model, items, mode)
}

// DeleteByID removes the row identified by pk.
func (s *Session) DeleteByID(ctx context.Context, model EntityModel, dataPath string, pk Value) error {
	if err := s.requireRecovered(); err != nil {
		return err
	}
	en, err := keycodec.NewEntityName(model.Path)
	if err != nil {
		return err
	}
	return s.saveExecutor().Delete(ctx, dataPath, en, model, pk)
}

// WithSink installs sink as the per-call observability override for the
// returned context (spec.md §4.11 scoped-override discipline). Callers
// restore the prior sink via their own defer/return, same as any other
// context value.
func WithSink(ctx context.Context, sink obs.Sink) context.Context {
	return obs.WithSink(ctx, sink)
}
