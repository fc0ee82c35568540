package stream

import (
	"bytes"
	"testing"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/accessplan"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/store"
)

// TestResolveFullScanAccountPrimaryKey guards against storagekey.go's
// FromBytes panicking on every Account-tagged key: a FullScan plan
// forces resolveKeyRange to decode every stored DataKey via
// keycodec.DataKeyFromBytes, the exact path an Account-keyed entity's
// first read exercised in production.
func TestResolveFullScanAccountPrimaryKey(t *testing.T) {
	entity, err := keycodec.NewEntityName("wallets")
	if err != nil {
		t.Fatalf("NewEntityName: %v", err)
	}

	registry := store.NewRegistry()
	data := store.NewMemStore()
	if err := registry.RegisterStore("wallets", data, store.NewMemIndexStore()); err != nil {
		t.Fatalf("RegisterStore: %v", err)
	}

	owners := [][]byte{{0x01}, {0x02, 0x03}}
	subaccounts := [][]byte{nil, bytes.Repeat([]byte{0x09}, 32)}
	for i, owner := range owners {
		sk, err := keycodec.FromValue(icykv.AccountValue(icykv.Account{Owner: owner, Subaccount: subaccounts[i]}))
		if err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		dk := keycodec.DataKey{Entity: entity, Key: sk}
		data.Insert(dk.ToBytes(), []byte("row"))
	}

	resolver := NewResolver(registry, entity, "wallets", false)
	plan := accessplan.FromPath(accessplan.Path{Kind: accessplan.FullScan})

	s, err := resolver.Resolve(plan, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	count := 0
	for {
		_, ok := s.Next()
		if !ok {
			break
		}
		count++
	}
	if count != len(owners) {
		t.Fatalf("expected %d keys, got %d", len(owners), count)
	}
}
