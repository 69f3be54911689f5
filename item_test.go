package bqcache

import (
	"testing"
	"time"
)

func TestItemFluentMutation(t *testing.T) {
	it, err := NewItem("k", 1)
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if it.IsHit() {
		t.Fatal("fresh item must not be a hit")
	}

	at := time.Now().Add(time.Hour)
	got := it.Set(2).ExpiresAt(at)
	if got != it {
		t.Fatal("mutators must return the receiver")
	}
	if it.Value() != 2 {
		t.Fatalf("value = %d, want 2", it.Value())
	}
	exp, ok := it.Expiration()
	if !ok || !exp.Equal(at) {
		t.Fatalf("expiration = %v/%v, want %v", exp, ok, at)
	}
}

func TestItemExpiresAtZeroClears(t *testing.T) {
	it, _ := NewItem("k", "v")
	it.ExpiresAfter(time.Minute)
	if _, ok := it.Expiration(); !ok {
		t.Fatal("expiration not set")
	}
	it.ExpiresAt(time.Time{})
	if _, ok := it.Expiration(); ok {
		t.Fatal("zero time should clear the expiration")
	}
}

func TestItemCloneIsIndependent(t *testing.T) {
	it, _ := NewItem("k", "v")
	it.ExpiresAfter(time.Minute)

	cp := it.clone()
	cp.Set("other").ExpiresAfter(2 * time.Minute)

	if it.Value() != "v" {
		t.Fatalf("original value changed: %q", it.Value())
	}
	origExp, _ := it.Expiration()
	cpExp, _ := cp.Expiration()
	if origExp.Equal(cpExp) {
		t.Fatal("clone shares expiration storage with original")
	}
}
