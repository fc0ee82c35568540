package icykv

import (
	"context"

	"github.com/icydb/icykv/internal/executor"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/planner"
	"github.com/icydb/icykv/internal/predicate"
)

// Go methods cannot introduce new type parameters, so the fluent entry
// points spec.md §6 describes as Session.load<E>()/Session.delete<E>()
// are free functions parameterized over the row type instead of
// Session methods: icykv.Load[Order](session, model, "orders"), not
// session.Load[Order](...).

// FluentLoadQuery is the chainable read-path builder (spec.md §6
// `FluentLoadQuery<E>`), parameterized over the concrete row type E so
// terminals return typed rows instead of the raw EntityValue interface.
type FluentLoadQuery[E EntityValue] struct {
	session     *Session
	model       EntityModel
	dataPath    string
	pred        predicate.Predicate
	order       *planner.OrderSpec
	limit       *uint32
	offset      uint32
	cursorTok   string
	consistency ReadConsistency
}

// Load starts a query against model, stored at dataPath, under s's
// default (Strict) consistency (spec.md §6 `load<E>()`).
func Load[E EntityValue](s *Session, model EntityModel, dataPath string) *FluentLoadQuery[E] {
	return &FluentLoadQuery[E]{session: s, model: model, dataPath: dataPath, consistency: ConsistencyStrict}
}

// LoadWithConsistency is Load under policy's ReadConsistency instead of
// Strict (spec.md §6 `load_with_consistency<E>(policy)`).
func LoadWithConsistency[E EntityValue](s *Session, model EntityModel, dataPath string, policy MissingRowPolicy) *FluentLoadQuery[E] {
	q := Load[E](s, model, dataPath)
	q.consistency = policy.consistency()
	return q
}

func (q *FluentLoadQuery[E]) and(p predicate.Predicate) {
	if q.pred == nil {
		q.pred = p
		return
	}
	if and, ok := q.pred.(predicate.And); ok {
		q.pred = predicate.And{Children: append(append([]predicate.Predicate(nil), and.Children...), p)}
		return
	}
	q.pred = predicate.And{Children: []predicate.Predicate{q.pred, p}}
}

// ByID restricts the query to the row whose primary key equals pk.
func (q *FluentLoadQuery[E]) ByID(pk Value) *FluentLoadQuery[E] {
	q.and(predicate.Eq(q.model.PrimaryKey.Name, pk))
	return q
}

// ByIDs restricts the query to rows whose primary key is one of pks.
func (q *FluentLoadQuery[E]) ByIDs(pks []Value) *FluentLoadQuery[E] {
	q.and(predicate.Compare{Field: q.model.PrimaryKey.Name, Op: predicate.OpIn, Values: pks})
	return q
}

// Filter ANDs pred onto the query's existing predicate.
func (q *FluentLoadQuery[E]) Filter(pred predicate.Predicate) *FluentLoadQuery[E] {
	q.and(pred)
	return q
}

// OrderBy appends an ascending ORDER BY component.
func (q *FluentLoadQuery[E]) OrderBy(field string) *FluentLoadQuery[E] { return q.orderBy(field, false) }

// OrderByDesc appends a descending ORDER BY component.
func (q *FluentLoadQuery[E]) OrderByDesc(field string) *FluentLoadQuery[E] { return q.orderBy(field, true) }

func (q *FluentLoadQuery[E]) orderBy(field string, desc bool) *FluentLoadQuery[E] {
	if q.order == nil {
		q.order = &planner.OrderSpec{}
	}
	q.order.Fields = append(q.order.Fields, planner.OrderField{Field: field, Desc: desc})
	return q
}

// Limit caps the page size.
func (q *FluentLoadQuery[E]) Limit(n uint32) *FluentLoadQuery[E] {
	q.limit = &n
	return q
}

// Offset skips the first n matching rows before the limited page.
func (q *FluentLoadQuery[E]) Offset(n uint32) *FluentLoadQuery[E] {
	q.offset = n
	return q
}

// Cursor resumes the query from a wire-level continuation token
// (spec.md §6 `.cursor(token)`).
func (q *FluentLoadQuery[E]) Cursor(token string) *FluentLoadQuery[E] {
	q.cursorTok = token
	return q
}

// Page turns on explicit pagination, defaulting Limit to the session's
// configured default page size if the caller never called Limit
// (spec.md §6 `.page()`).
func (q *FluentLoadQuery[E]) Page() *FluentLoadQuery[E] {
	if q.limit == nil {
		n := uint32(q.session.Config.Query.DefaultPageSize)
		q.limit = &n
	}
	return q
}

func (q *FluentLoadQuery[E]) pageSpec() *planner.PageSpec {
	if q.limit == nil && q.offset == 0 && q.cursorTok == "" {
		return nil
	}
	limit := uint32(q.session.Config.Query.DefaultPageSize)
	if q.limit != nil {
		limit = *q.limit
	}
	return &planner.PageSpec{Limit: limit, Offset: q.offset}
}

func (q *FluentLoadQuery[E]) build(mode planner.PlanMode, page *planner.PageSpec, cursorTok string) (*planner.Result, keycodec.EntityName, error) {
	en, err := keycodec.NewEntityName(q.model.Path)
	if err != nil {
		return nil, keycodec.EntityName{}, err
	}
	intent := planner.Intent{
		Mode:        mode,
		Entity:      q.model,
		Predicate:   q.pred,
		Order:       q.order,
		Page:        page,
		Cursor:      cursorTok,
		Consistency: q.consistency,
	}
	res, err := planner.Build(intent)
	if err != nil {
		return nil, keycodec.EntityName{}, err
	}
	return res, en, nil
}

// LoadPage is the page-plus-cursor result Execute returns, mirroring
// internal/executor.Page but typed over E.
type LoadPage[E EntityValue] struct {
	Rows       []E
	HasMore    bool
	NextCursor string
}

// Execute runs the accumulated query and returns one page of rows
// (spec.md §6 `.execute`).
func (q *FluentLoadQuery[E]) Execute(ctx context.Context) (*LoadPage[E], error) {
	res, en, err := q.build(planner.ModeLoad, q.pageSpec(), q.cursorTok)
	if err != nil {
		return nil, err
	}
	page, err := q.session.kernel().ExecuteLoad(ctx, res, en, q.dataPath)
	if err != nil {
		return nil, err
	}
	return &LoadPage[E]{Rows: castRows[E](page.Rows), HasMore: page.HasMore, NextCursor: page.NextCursor}, nil
}

// Take runs the query unpaged and returns up to n rows, ignoring any
// Limit/Offset/Cursor the caller configured separately (spec.md §6
// `.take`).
func (q *FluentLoadQuery[E]) Take(ctx context.Context, n uint32) ([]E, error) {
	res, en, err := q.build(planner.ModeLoad, &planner.PageSpec{Limit: n}, "")
	if err != nil {
		return nil, err
	}
	page, err := q.session.kernel().ExecuteLoad(ctx, res, en, q.dataPath)
	if err != nil {
		return nil, err
	}
	return castRows[E](page.Rows), nil
}

// Count streams the query's access plan and counts matching rows; each
// streamed row is fully materialized so the predicate can be evaluated
// (spec.md §6 `.count`).
func (q *FluentLoadQuery[E]) Count(ctx context.Context) (int64, error) {
	result, err := q.aggregate(ctx, planner.AggregateSpec{Kind: planner.AggregateCount})
	if err != nil {
		return 0, err
	}
	return int64(result.Count), nil
}

// Exists short-circuits on the first matching row (spec.md §6 `.exists`).
func (q *FluentLoadQuery[E]) Exists(ctx context.Context) (bool, error) {
	result, err := q.aggregate(ctx, planner.AggregateSpec{Kind: planner.AggregateExists})
	if err != nil {
		return false, err
	}
	return result.Exists, nil
}

// Min returns the smallest primary-key value among matching rows
// (spec.md §6 `.min`).
func (q *FluentLoadQuery[E]) Min(ctx context.Context) (Value, bool, error) {
	return q.extremaValue(ctx, planner.AggregateMin)
}

// Max returns the largest primary-key value among matching rows
// (spec.md §6 `.max`).
func (q *FluentLoadQuery[E]) Max(ctx context.Context) (Value, bool, error) {
	return q.extremaValue(ctx, planner.AggregateMax)
}

// First returns the primary-key value of the first row the access
// plan's physical order visits (spec.md §6 `.first`).
func (q *FluentLoadQuery[E]) First(ctx context.Context) (Value, bool, error) {
	return q.extremaValue(ctx, planner.AggregateFirst)
}

// Last mirrors First under reverse physical traversal (spec.md §6
// `.last`).
func (q *FluentLoadQuery[E]) Last(ctx context.Context) (Value, bool, error) {
	return q.extremaValue(ctx, planner.AggregateLast)
}

func (q *FluentLoadQuery[E]) extremaValue(ctx context.Context, kind planner.AggregateKind) (Value, bool, error) {
	result, err := q.aggregate(ctx, planner.AggregateSpec{Kind: kind})
	if err != nil {
		return Value{}, false, err
	}
	return result.Value, result.Found, nil
}

func (q *FluentLoadQuery[E]) aggregate(ctx context.Context, spec planner.AggregateSpec) (executor.AggregateResult, error) {
	res, en, err := q.build(planner.ModeLoad, nil, "")
	if err != nil {
		return executor.AggregateResult{}, err
	}
	return q.session.kernel().ExecuteAggregate(ctx, res, spec, en, q.dataPath)
}

// MinBy returns the full row whose field holds the smallest value, ties
// broken by ascending primary key (spec.md §6 `.min_by`).
func (q *FluentLoadQuery[E]) MinBy(ctx context.Context, field string) (E, bool, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		var zero E
		return zero, false, err
	}
	ev, ok := executor.MinBy(rows, field)
	if !ok {
		var zero E
		return zero, false, nil
	}
	return ev.(E), true, nil
}

// MaxBy returns the full row whose field holds the largest value
// (spec.md §6 `.max_by`).
func (q *FluentLoadQuery[E]) MaxBy(ctx context.Context, field string) (E, bool, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		var zero E
		return zero, false, err
	}
	ev, ok := executor.MaxBy(rows, field)
	if !ok {
		var zero E
		return zero, false, nil
	}
	return ev.(E), true, nil
}

// NthBy returns the n-th row (0-indexed) under descending field order
// (spec.md §6 `.nth_by`).
func (q *FluentLoadQuery[E]) NthBy(ctx context.Context, field string, n int) (E, bool, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		var zero E
		return zero, false, err
	}
	ev, ok := executor.NthBy(rows, field, n)
	if !ok {
		var zero E
		return zero, false, nil
	}
	return ev.(E), true, nil
}

// SumBy widens field to a numeric fold across every matching row
// (spec.md §6 `.sum_by`).
func (q *FluentLoadQuery[E]) SumBy(ctx context.Context, field string) (Value, bool, error) {
	return q.numericFold(ctx, field, executor.FoldSum)
}

// AvgBy averages field across every matching row (spec.md §6 `.avg_by`).
func (q *FluentLoadQuery[E]) AvgBy(ctx context.Context, field string) (Value, bool, error) {
	return q.numericFold(ctx, field, executor.FoldAvg)
}

// MedianBy computes field's median across every matching row (spec.md
// §6 `.median_by`).
func (q *FluentLoadQuery[E]) MedianBy(ctx context.Context, field string) (Value, bool, error) {
	return q.numericFold(ctx, field, executor.FoldMedian)
}

func (q *FluentLoadQuery[E]) numericFold(ctx context.Context, field string, kind executor.NumericFoldKind) (Value, bool, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		return Value{}, false, err
	}
	v, ok := executor.NumericFold(rows, field, kind)
	return v, ok, nil
}

// CountDistinctBy counts the distinct values field takes across
// matching rows (spec.md §6 `.count_distinct_by`).
func (q *FluentLoadQuery[E]) CountDistinctBy(ctx context.Context, field string) (int, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		return 0, err
	}
	return executor.CountDistinctBy(rows, field), nil
}

// TopKBy returns the k rows with the largest field value (spec.md §6
// `.top_k_by`).
func (q *FluentLoadQuery[E]) TopKBy(ctx context.Context, field string, k int) ([]E, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		return nil, err
	}
	return castRows[E](executor.TopKBy(rows, field, k)), nil
}

// BottomKBy returns the k rows with the smallest field value (spec.md §6
// `.bottom_k_by`).
func (q *FluentLoadQuery[E]) BottomKBy(ctx context.Context, field string, k int) ([]E, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		return nil, err
	}
	return castRows[E](executor.BottomKBy(rows, field, k)), nil
}

// ValuesBy projects field from every matching row, in order (spec.md §6
// `.values_by`).
func (q *FluentLoadQuery[E]) ValuesBy(ctx context.Context, field string) ([]Value, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		return nil, err
	}
	return executor.ValuesBy(rows, field), nil
}

// DistinctValuesBy projects field from every matching row, deduplicated
// (spec.md §6 `.distinct_values_by`).
func (q *FluentLoadQuery[E]) DistinctValuesBy(ctx context.Context, field string) ([]Value, error) {
	rows, err := q.materializeEntityValues(ctx)
	if err != nil {
		return nil, err
	}
	return executor.DistinctValuesBy(rows, field), nil
}

// materializeEntityValues runs the query unpaged, ignoring any
// Limit/Offset/Cursor the caller configured, since the field-targeted
// extrema/fold/top-k terminals operate over the whole filtered result
// set (spec.md §4.9).
func (q *FluentLoadQuery[E]) materializeEntityValues(ctx context.Context) ([]EntityValue, error) {
	res, en, err := q.build(planner.ModeLoad, nil, "")
	if err != nil {
		return nil, err
	}
	page, err := q.session.kernel().ExecuteLoad(ctx, res, en, q.dataPath)
	if err != nil {
		return nil, err
	}
	return page.Rows, nil
}

func castRows[E EntityValue](rows []EntityValue) []E {
	out := make([]E, len(rows))
	for i, ev := range rows {
		out[i] = ev.(E)
	}
	return out
}

// FluentDeleteQuery is the chainable delete-path builder (spec.md §6
// bullet "delete<E>()..."), sharing the same predicate/order narrowing
// as FluentLoadQuery but terminating in a bounded-delete execute rather
// than a page of rows.
type FluentDeleteQuery[E EntityValue] struct {
	session     *Session
	model       EntityModel
	dataPath    string
	pred        predicate.Predicate
	order       *planner.OrderSpec
	deleteLimit *uint32
	consistency ReadConsistency
}

// Delete starts a delete query against model, stored at dataPath, under
// s's default (Strict) consistency (spec.md §6 `delete<E>()`).
func Delete[E EntityValue](s *Session, model EntityModel, dataPath string) *FluentDeleteQuery[E] {
	return &FluentDeleteQuery[E]{session: s, model: model, dataPath: dataPath, consistency: ConsistencyStrict}
}

// DeleteWithConsistency is Delete under policy's ReadConsistency
// (spec.md §6 `delete_with_consistency<E>(policy)`).
func DeleteWithConsistency[E EntityValue](s *Session, model EntityModel, dataPath string, policy MissingRowPolicy) *FluentDeleteQuery[E] {
	q := Delete[E](s, model, dataPath)
	q.consistency = policy.consistency()
	return q
}

func (q *FluentDeleteQuery[E]) and(p predicate.Predicate) {
	if q.pred == nil {
		q.pred = p
		return
	}
	if and, ok := q.pred.(predicate.And); ok {
		q.pred = predicate.And{Children: append(append([]predicate.Predicate(nil), and.Children...), p)}
		return
	}
	q.pred = predicate.And{Children: []predicate.Predicate{q.pred, p}}
}

// ByID restricts the delete to the row whose primary key equals pk.
func (q *FluentDeleteQuery[E]) ByID(pk Value) *FluentDeleteQuery[E] {
	q.and(predicate.Eq(q.model.PrimaryKey.Name, pk))
	return q
}

// ByIDs restricts the delete to rows whose primary key is one of pks.
func (q *FluentDeleteQuery[E]) ByIDs(pks []Value) *FluentDeleteQuery[E] {
	q.and(predicate.Compare{Field: q.model.PrimaryKey.Name, Op: predicate.OpIn, Values: pks})
	return q
}

// Filter ANDs pred onto the delete query's existing predicate.
func (q *FluentDeleteQuery[E]) Filter(pred predicate.Predicate) *FluentDeleteQuery[E] {
	q.and(pred)
	return q
}

// OrderBy fixes a deterministic visiting order for the delete_limit cap
// (spec.md §3: a bounded delete without an explicit order still needs a
// stable candidate order; the planner inserts the primary key).
func (q *FluentDeleteQuery[E]) OrderBy(field string) *FluentDeleteQuery[E] {
	if q.order == nil {
		q.order = &planner.OrderSpec{}
	}
	q.order.Fields = append(q.order.Fields, planner.OrderField{Field: field})
	return q
}

// OrderByDesc is OrderBy in descending direction.
func (q *FluentDeleteQuery[E]) OrderByDesc(field string) *FluentDeleteQuery[E] {
	if q.order == nil {
		q.order = &planner.OrderSpec{}
	}
	q.order.Fields = append(q.order.Fields, planner.OrderField{Field: field, Desc: true})
	return q
}

// Limit caps the number of rows the delete removes (spec.md §3
// `delete_limit`).
func (q *FluentDeleteQuery[E]) Limit(n uint32) *FluentDeleteQuery[E] {
	q.deleteLimit = &n
	return q
}

// Execute resolves the delete candidates and removes them, maintaining
// every declared index, returning the number of rows removed.
func (q *FluentDeleteQuery[E]) Execute(ctx context.Context) (int, error) {
	en, err := keycodec.NewEntityName(q.model.Path)
	if err != nil {
		return 0, err
	}
	intent := planner.Intent{
		Mode:        planner.ModeDelete,
		Entity:      q.model,
		Predicate:   q.pred,
		Order:       q.order,
		DeleteLimit: q.deleteLimit,
		Consistency: q.consistency,
	}
	res, err := planner.Build(intent)
	if err != nil {
		return 0, err
	}
	keys, err := q.session.kernel().ResolveDeleteKeys(ctx, res, en, q.dataPath)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	pks := make([]Value, len(keys))
	for i, k := range keys {
		pks[i] = k.Key.ToValue()
	}
	if err := q.session.saveExecutor().AtomicBatchDelete(ctx, q.dataPath, en, q.model, pks); err != nil {
		return 0, err
	}
	return len(pks), nil
}

// GroupedQuery builds a GROUP BY load plan (spec.md §6 `execute_grouped`,
// §4.9 "Grouped execution").
type GroupedQuery[E EntityValue] struct {
	session     *Session
	model       EntityModel
	dataPath    string
	pred        predicate.Predicate
	groupFields []string
	aggregates  []planner.GroupAggregateSpec
	maxGroups   int
	maxRows     int
	consistency ReadConsistency
}

// Grouped starts a grouped query keyed by groupFields, bounded by s's
// configured QueryConfig.MaxGroups/MaxGroupRows unless overridden.
func Grouped[E EntityValue](s *Session, model EntityModel, dataPath string, groupFields ...string) *GroupedQuery[E] {
	return &GroupedQuery[E]{
		session:     s,
		model:       model,
		dataPath:    dataPath,
		groupFields: groupFields,
		maxGroups:   s.Config.Query.MaxGroups,
		maxRows:     s.Config.Query.MaxGroupRows,
		consistency: ConsistencyStrict,
	}
}

// Filter ANDs pred onto the grouped query's existing predicate.
func (q *GroupedQuery[E]) Filter(pred predicate.Predicate) *GroupedQuery[E] {
	if q.pred == nil {
		q.pred = pred
	} else if and, ok := q.pred.(predicate.And); ok {
		q.pred = predicate.And{Children: append(append([]predicate.Predicate(nil), and.Children...), pred)}
	} else {
		q.pred = predicate.And{Children: []predicate.Predicate{q.pred, pred}}
	}
	return q
}

// Aggregate declares one per-group aggregate, emitted in declaration
// order alongside each GroupRow's group-key tuple.
func (q *GroupedQuery[E]) Aggregate(alias string, spec planner.AggregateSpec) *GroupedQuery[E] {
	q.aggregates = append(q.aggregates, planner.GroupAggregateSpec{Alias: alias, Spec: spec})
	return q
}

// MaxGroups overrides the bounded group cardinality.
func (q *GroupedQuery[E]) MaxGroups(n int) *GroupedQuery[E] {
	q.maxGroups = n
	return q
}

// MaxRows overrides the bounded per-group materialized row count.
func (q *GroupedQuery[E]) MaxRows(n int) *GroupedQuery[E] {
	q.maxRows = n
	return q
}

// Execute runs the grouped plan, returning one GroupRow per admitted
// group key in canonical group-key order.
func (q *GroupedQuery[E]) Execute(ctx context.Context) ([]executor.GroupRow, error) {
	en, err := keycodec.NewEntityName(q.model.Path)
	if err != nil {
		return nil, err
	}
	slots := make([]FieldSlot, len(q.groupFields))
	for i, name := range q.groupFields {
		slot, ok := q.model.FieldByName(name)
		if !ok {
			return nil, NewPlanError(ClassInvariantViolation, OriginQuery, "unknown group-by field").WithField(name).WithEntity(q.model.Path)
		}
		slots[i] = slot
	}
	group := &planner.GroupSpec{GroupFields: slots, Aggregates: q.aggregates, MaxGroups: q.maxGroups, MaxRows: q.maxRows}
	intent := planner.Intent{Mode: planner.ModeLoad, Entity: q.model, Predicate: q.pred, Consistency: q.consistency, Group: group}
	res, err := planner.Build(intent)
	if err != nil {
		return nil, err
	}
	return q.session.kernel().ExecuteGrouped(ctx, res, en, q.dataPath)
}
