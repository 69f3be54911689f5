package store

import (
	"context"
	"testing"
	"time"
)

func TestLocalPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{})
	t.Cleanup(func() { _ = s.Close(ctx) })

	if ok, _ := s.Has(ctx, "k"); ok {
		t.Fatal("empty store reports key")
	}
	if ok, err := s.Put(ctx, "k", []byte("v"), time.Minute); err != nil || !ok {
		t.Fatalf("Put: ok=%v err=%v", ok, err)
	}
	b, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("Get: %q ok=%v err=%v", b, ok, err)
	}
}

func TestLocalExpiryIsLazy(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{})
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Put(ctx, "k", []byte("v"), 30*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)

	if ok, _ := s.Has(ctx, "k"); ok {
		t.Fatal("expired key still reported")
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("expired key still readable")
	}
}

func TestLocalForeverNeverExpires(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{})
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Forever(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if ok, _ := s.Has(ctx, "k"); !ok {
		t.Fatal("forever key vanished")
	}
}

func TestLocalForgetAndFlush(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{})
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, _ = s.Forever(ctx, "a", []byte("1"))
	_, _ = s.Forever(ctx, "b", []byte("2"))

	if ok, err := s.Forget(ctx, "a"); err != nil || !ok {
		t.Fatalf("Forget: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Has(ctx, "a"); ok {
		t.Fatal("a survived Forget")
	}

	if err := s.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Has(ctx, "b"); ok {
		t.Fatal("b survived Flush")
	}
}

func TestLocalSweepPrunesExpired(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{SweepInterval: 20 * time.Millisecond})
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, _ = s.Put(ctx, "old", []byte("v"), 10*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	s.mu.RLock()
	_, present := s.m["old"]
	s.mu.RUnlock()
	if present {
		t.Fatal("sweep did not prune expired entry")
	}
}

func TestLocalUnitDefaultsToSeconds(t *testing.T) {
	if u := NewLocal(LocalOptions{}).Unit(); u != Seconds {
		t.Fatalf("unit = %v, want seconds", u)
	}
	if u := NewLocal(LocalOptions{Unit: Minutes}).Unit(); u != Minutes {
		t.Fatalf("unit = %v, want minutes", u)
	}
}
