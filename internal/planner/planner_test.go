package planner

import (
	"testing"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/accessplan"
	"github.com/icydb/icykv/internal/predicate"
)

func testModel() icykv.EntityModel {
	return icykv.EntityModel{
		Path: "widgets",
		Fields: []icykv.FieldSlot{
			{Name: "id", Index: 0, Kind: icykv.FieldKind{Tag: icykv.FieldKindInt}},
			{Name: "owner", Index: 1, Kind: icykv.FieldKind{Tag: icykv.FieldKindText}},
		},
		PrimaryKey: icykv.FieldSlot{Name: "id", Index: 0, Kind: icykv.FieldKind{Tag: icykv.FieldKindInt}},
		Indexes: []icykv.IndexModel{
			{Name: "widgets|owner", Fields: []string{"owner"}},
		},
	}
}

func TestBuildInsertsPKTieBreak(t *testing.T) {
	res, err := Build(Intent{
		Mode:   ModeLoad,
		Entity: testModel(),
		Order:  &OrderSpec{Fields: []OrderField{{Field: "owner"}}},
		Page:   &PageSpec{Limit: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := res.Plan.Order.Fields
	if fields[len(fields)-1].Field != "id" {
		t.Fatalf("expected PK tie-break appended, got %+v", fields)
	}
}

func TestBuildRejectsPageWithoutOrder(t *testing.T) {
	_, err := Build(Intent{
		Mode:   ModeLoad,
		Entity: testModel(),
		Page:   &PageSpec{Limit: 10},
	})
	if err == nil {
		t.Fatalf("expected error for page without order")
	}
}

func TestBuildRejectsDeletePlanWithPage(t *testing.T) {
	_, err := Build(Intent{
		Mode:   ModeDelete,
		Entity: testModel(),
		Page:   &PageSpec{Limit: 10},
		Order:  &OrderSpec{Fields: []OrderField{{Field: "id"}}},
	})
	if err == nil {
		t.Fatalf("expected error for delete plan with page")
	}
}

func TestInferAccessPlanByKey(t *testing.T) {
	pred := predicate.Eq("id", icykv.IntValue(5))
	plan := InferAccessPlan(testModel(), pred)
	leaf, ok := plan.IsSingleLeaf()
	if !ok || leaf.Kind != accessplan.ByKey {
		t.Fatalf("expected ByKey leaf, got %+v", plan)
	}
}

func TestInferAccessPlanIndexPrefix(t *testing.T) {
	pred := predicate.Eq("owner", icykv.TextValue("alice"))
	plan := InferAccessPlan(testModel(), pred)
	leaf, ok := plan.IsSingleLeaf()
	if !ok || leaf.Kind != accessplan.IndexPrefix || leaf.Index != "widgets|owner" {
		t.Fatalf("expected IndexPrefix leaf, got %+v", plan)
	}
}

func TestContinuationSignatureStableAcrossPageWindow(t *testing.T) {
	entity := testModel()
	pred := predicate.Eq("owner", icykv.TextValue("alice"))
	access := InferAccessPlan(entity, pred)
	order := &OrderSpec{Fields: []OrderField{{Field: "owner"}, {Field: "id"}}}
	sig1 := ContinuationSignature(entity.Path, ModeLoad, access, pred, order, false, nil)
	sig2 := ContinuationSignature(entity.Path, ModeLoad, access, pred, order, false, nil)
	if sig1 != sig2 {
		t.Fatalf("expected deterministic signature")
	}

	first, err := Build(Intent{Mode: ModeLoad, Entity: entity, Predicate: pred, Order: order, Page: &PageSpec{Limit: 10}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	later, err := Build(Intent{Mode: ModeLoad, Entity: entity, Predicate: pred, Order: order, Page: &PageSpec{Limit: 5, Offset: 20}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Plan.Signature != later.Plan.Signature {
		t.Fatalf("expected signature to be independent of the page window")
	}
}

func TestAggregateSpecRejectsFieldTargetOnCount(t *testing.T) {
	field := "owner"
	err := ValidateAggregateSpec(AggregateSpec{Kind: AggregateCount, TargetField: &field})
	if err == nil {
		t.Fatalf("expected rejection of field target on Count")
	}
}
