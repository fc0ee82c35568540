// Command bench seeds an in-memory icykv store with synthetic rows and
// runs a fluent load query over them, reporting elapsed times and the
// keys-scanned counter. It is the in-process analogue of the
// teacher's cmd/benchmark, scaled down from forma's million-row
// Postgres/EAV seeding run to an in-memory smoke benchmark appropriate
// for a library with no server process of its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/obs"
	"github.com/icydb/icykv/internal/predicate"
	"github.com/icydb/icykv/internal/schemacontract"
	"github.com/icydb/icykv/internal/store"
)

type options struct {
	items        int
	priceCeiling float64
	seed         int64
	seedProvided bool
}

func parseFlags() options {
	var opts options
	flag.IntVar(&opts.items, "items", 10000, "number of synthetic rows to seed")
	flag.Float64Var(&opts.priceCeiling, "price-ceiling", 500, "price threshold for the count query (generated prices fall in [0, 500))")
	seed := flag.Int64("seed", 0, "random seed (0 uses current time)")
	flag.Parse()
	opts.seed = *seed
	opts.seedProvided = *seed != 0
	return opts
}

type seededRand struct{ r *rand.Rand }

func (s seededRand) price() float64     { return s.r.Float64() * 500 }
func (s seededRand) unixSeconds() int64 { return time.Now().Unix() - s.r.Int63n(365*24*3600) }

func main() {
	log.SetFlags(0)
	opts := parseFlags()

	seed := opts.seed
	if !opts.seedProvided {
		seed = time.Now().UnixNano()
	}
	rnd := seededRand{r: rand.New(rand.NewSource(seed))}
	fmt.Printf("seed: %d\n", seed)

	model, err := schemacontract.BuildEntityModel([]byte(itemContract))
	if err != nil {
		log.Fatalf("failed to build bench_items entity model: %v", err)
	}

	registry := store.NewRegistry()
	if err := registry.RegisterStore(model.Path, store.NewMemStore(), store.NewMemIndexStore()); err != nil {
		log.Fatalf("failed to register store: %v", err)
	}

	codec := itemCodec{model: model}
	session, err := icykv.NewSession(registry, codec)
	if err != nil {
		log.Fatalf("failed to open session: %v", err)
	}

	ctx := context.Background()
	seedStart := time.Now()
	for i := 0; i < opts.items; i++ {
		row := newItem(model, uint64(i+1), rnd)
		if err := session.Insert(ctx, model, model.Path, row); err != nil {
			log.Fatalf("failed to insert row %d: %v", i, err)
		}
	}
	seedElapsed := time.Since(seedStart)
	fmt.Printf("seeded %d rows in %s (%.0f rows/sec)\n", opts.items, seedElapsed, float64(opts.items)/seedElapsed.Seconds())

	sink := &obs.CountingSink{}
	ctx = icykv.WithSink(ctx, sink)

	queryStart := time.Now()
	count, err := icykv.Load[*item](session, model, model.Path).
		Filter(predicate.Compare{Field: "price", Op: predicate.OpLt, Value: icykv.Value{Kind: icykv.KindFloat64, Float64: opts.priceCeiling}}).
		Count(ctx)
	if err != nil {
		log.Fatalf("count query failed: %v", err)
	}
	queryElapsed := time.Since(queryStart)

	fmt.Printf("rows with price < %.2f: %d (query took %s)\n", opts.priceCeiling, count, queryElapsed)
	fmt.Printf("keys scanned: %d\n", sink.TotalKeysScanned())

	top, err := icykv.Load[*item](session, model, model.Path).
		OrderByDesc("price").
		Take(ctx, 5)
	if err != nil {
		log.Fatalf("top-5 query failed: %v", err)
	}
	fmt.Println("top 5 by price:")
	for _, it := range top {
		fmt.Printf("  id=%d sku=%s price=%.2f\n", it.id, it.sku, it.price)
	}
}
