package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowsUpToMax(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Hour)

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "ip:1.2.3.4")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d debe pasar", i)
		}
		if res.CurrentHits != int64(i) {
			t.Fatalf("hits = %d, want %d", res.CurrentHits, i)
		}
		if res.Remaining != int64(3-i) {
			t.Fatalf("remaining = %d, want %d", res.Remaining, 3-i)
		}
	}

	res, err := l.Allow(ctx, "ip:1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("hit 4 debe rechazarse")
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining = %d", res.Remaining)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Hour {
		t.Fatalf("retryAfter = %v", res.RetryAfter)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(1, time.Hour)

	if res, _ := l.Allow(ctx, "a"); !res.Allowed {
		t.Fatal("a/1 debe pasar")
	}
	if res, _ := l.Allow(ctx, "a"); res.Allowed {
		t.Fatal("a/2 debe rechazarse")
	}
	if res, _ := l.Allow(ctx, "b"); !res.Allowed {
		t.Fatal("b no comparte ventana con a")
	}
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	ctx := context.Background()
	// Ventana de 1ms: el siguiente Allow cae en otra ventana.
	l := NewMemoryLimiter(1, time.Millisecond)

	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("primer hit debe pasar")
	}
	time.Sleep(3 * time.Millisecond)
	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("tras expirar la ventana el contador arranca de cero")
	}
}
