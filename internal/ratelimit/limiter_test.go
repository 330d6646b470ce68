package ratelimit

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	ok, err := l.Allow(context.Background(), "test", "1.2.3.4")
	if !ok || err != nil {
		t.Fatalf("nil limiter: ok=%v err=%v", ok, err)
	}
	if l.Distributed() {
		t.Fatalf("nil limiter reports distributed")
	}
}

func TestLocalLimiterBlocksPastMax(t *testing.T) {
	l := New(nil, "test", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(ctx, "test", "a"); !ok {
			t.Fatalf("hit %d blocked", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "test", "a"); ok {
		t.Fatalf("4th hit allowed")
	}
	if ok, _ := l.Allow(ctx, "test", "b"); !ok {
		t.Fatalf("other identifier blocked")
	}
}

func TestWindowResets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := newWindow(time.Second, func() time.Time { return now })

	if n := w.hit("a"); n != 1 {
		t.Fatalf("first hit = %d", n)
	}
	if n := w.hit("a"); n != 2 {
		t.Fatalf("second hit = %d", n)
	}

	now = now.Add(1500 * time.Millisecond)
	if n := w.hit("a"); n != 1 {
		t.Fatalf("hit after window = %d; want 1", n)
	}
	if n := w.hit("b"); n != 1 {
		t.Fatalf("hit for b = %d", n)
	}
}

func TestWindowPrunesStaleEntries(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := newWindow(time.Second, func() time.Time { return now })
	for i := 0; i < 10; i++ {
		w.hit(strconv.Itoa(i))
	}

	now = now.Add(3 * time.Second)
	w.hit("fresh")
	if len(w.entries) != 1 {
		t.Fatalf("entries = %d; want 1", len(w.entries))
	}
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisLimiterIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	client, err := Connect(addr, os.Getenv("REDIS_PASSWORD"), db)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	l := New(client, "test-"+uuid.NewString(), 2, 2*time.Second)
	if !l.Distributed() {
		t.Fatalf("limiter with client is not distributed")
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "test", "ident")
		if err != nil || !ok {
			t.Fatalf("hit %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, err := l.Allow(ctx, "test", "ident"); err != nil || ok {
		t.Fatalf("3rd hit: ok=%v err=%v; want blocked", ok, err)
	}
}

func TestConnectWithoutAddr(t *testing.T) {
	client, err := Connect("", "", 0)
	if client != nil || err != nil {
		t.Fatalf("Connect(\"\") = %v, %v; want nil, nil", client, err)
	}
}
