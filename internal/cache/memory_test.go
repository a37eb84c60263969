package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("test")

	if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("got %q, %v", got, err)
	}
	ok, err := c.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("err = %v, want not found tras delete", err)
	}
}

func TestMemory_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	a := NewMemory("a")
	b := NewMemory("b")
	if err := a.Set(ctx, "k", "va", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("los prefijos deben aislar: err = %v", err)
	}
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatal(err)
	}
	if got, err := c.Get(ctx, "k"); err != nil || got != "v" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestMemory_Stats(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("s")
	_ = c.Set(ctx, "k", "v", time.Minute)
	_, _ = c.Get(ctx, "k")    // hit
	_, _ = c.Get(ctx, "otro") // miss

	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Driver != "memory" || st.Keys != 1 || st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	c, err := New(Config{Driver: "memory", Prefix: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*memoryClient); !ok {
		t.Fatalf("driver = %T", c)
	}
}
