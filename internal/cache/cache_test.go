package cache

import (
	"context"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New(time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatal("empty cache returned a hit")
	}

	c.Set(ctx, "k", []byte("v"))

	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("got %q, %v", got, ok)
	}
}

func TestEntriesExpire(t *testing.T) {
	c := New(15 * time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expired entry still served")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New(time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))

	c.Delete("a")

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("deleted entry still present")
	}

	c.Clear()

	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatal("cleared cache still serves entries")
	}
}
