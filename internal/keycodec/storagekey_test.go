package keycodec

import (
	"bytes"
	"testing"

	"github.com/icydb/icykv"
)

func mustFromValue(t *testing.T, v icykv.Value) StorageKey {
	t.Helper()
	sk, err := FromValue(v)
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	return sk
}

func TestStorageKeyAccountRoundTripNoSubaccount(t *testing.T) {
	owner := bytes.Repeat([]byte{0x07}, 20)
	sk := mustFromValue(t, icykv.AccountValue(icykv.Account{Owner: owner}))

	encoded := sk.ToBytes()
	if len(encoded) != StoredSizeBytes {
		t.Fatalf("expected %d bytes, got %d", StoredSizeBytes, len(encoded))
	}

	decoded, err := FromBytes(encoded)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if decoded.Tag != TagAccount {
		t.Fatalf("expected TagAccount, got %v", decoded.Tag)
	}
	if !bytes.Equal(decoded.Account.Owner, owner) {
		t.Fatalf("owner mismatch: got %x want %x", decoded.Account.Owner, owner)
	}
	if decoded.Account.HasSubaccount {
		t.Fatalf("expected no subaccount")
	}
}

func TestStorageKeyAccountRoundTripWithSubaccount(t *testing.T) {
	owner := bytes.Repeat([]byte{0x09}, 29) // principalMaxBytes, the widest legal owner
	subaccount := bytes.Repeat([]byte{0xAB}, subaccountBytes)
	sk := mustFromValue(t, icykv.AccountValue(icykv.Account{Owner: owner, Subaccount: subaccount}))

	encoded := sk.ToBytes() // must not panic even at the widest owner length
	if len(encoded) != StoredSizeBytes {
		t.Fatalf("expected %d bytes, got %d", StoredSizeBytes, len(encoded))
	}

	decoded, err := FromBytes(encoded)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !decoded.Account.HasSubaccount {
		t.Fatalf("expected subaccount to be present")
	}
	if !bytes.Equal(decoded.Account.Owner, owner) {
		t.Fatalf("owner mismatch: got %x want %x", decoded.Account.Owner, owner)
	}
	if !bytes.Equal(decoded.Account.Subaccount[:], subaccount) {
		t.Fatalf("subaccount mismatch: got %x want %x", decoded.Account.Subaccount[:], subaccount)
	}
}

func TestStorageKeyAccountToValueRoundTrip(t *testing.T) {
	owner := []byte{1, 2, 3}
	subaccount := bytes.Repeat([]byte{0x5}, subaccountBytes)
	sk := mustFromValue(t, icykv.AccountValue(icykv.Account{Owner: owner, Subaccount: subaccount}))

	v := sk.ToValue()
	if v.Kind != icykv.KindAccount {
		t.Fatalf("expected KindAccount, got %v", v.Kind)
	}
	if !bytes.Equal(v.Account.Owner, owner) || !bytes.Equal(v.Account.Subaccount, subaccount) {
		t.Fatalf("ToValue round trip mismatch: %+v", v.Account)
	}
}

func TestDataKeyAccountRoundTrip(t *testing.T) {
	entity, err := NewEntityName("accounts")
	if err != nil {
		t.Fatalf("NewEntityName: %v", err)
	}

	for _, withSub := range []bool{false, true} {
		owner := []byte{0x11, 0x22}
		var sub []byte
		if withSub {
			sub = bytes.Repeat([]byte{0x33}, subaccountBytes)
		}
		sk := mustFromValue(t, icykv.AccountValue(icykv.Account{Owner: owner, Subaccount: sub}))
		dk := DataKey{Entity: entity, Key: sk}

		decoded, err := DataKeyFromBytes(dk.ToBytes())
		if err != nil {
			t.Fatalf("DataKeyFromBytes (withSub=%v): %v", withSub, err)
		}
		if decoded.Key.Account.HasSubaccount != withSub {
			t.Fatalf("HasSubaccount mismatch (withSub=%v): got %v", withSub, decoded.Key.Account.HasSubaccount)
		}
		if !bytes.Equal(decoded.Key.Account.Owner, owner) {
			t.Fatalf("owner mismatch (withSub=%v): got %x want %x", withSub, decoded.Key.Account.Owner, owner)
		}
	}
}
