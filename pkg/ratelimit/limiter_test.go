package ratelimit

import (
	"context"
	"testing"
	"time"

	"wallcrawl/pkg/config"
)

func TestTokenBucketBurst(t *testing.T) {
	tb := NewTokenBucket(60, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected burst to be exhausted")
	}

	tb.Reset()
	if !tb.Allow() {
		t.Error("Expected tokens after reset")
	}
}

func TestTokenBucketWaitRefills(t *testing.T) {
	// 1200/min is one token every 50ms
	tb := NewTokenBucket(1200, 1)
	if !tb.Allow() {
		t.Fatal("Expected first token")
	}

	start := time.Now()
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Expected Wait to block for roughly 50ms, took %s", elapsed)
	}
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); err == nil {
		t.Error("Expected Wait to fail when the context expires before a token")
	}
}

func TestNewFromConfigAndDefaults(t *testing.T) {
	tb := New(&config.RateLimitConfig{RequestsPerMinute: 30, BurstSize: 2})
	if tb.Interval() != 2*time.Second {
		t.Errorf("Expected 2s interval, got %s", tb.Interval())
	}

	tb = NewTokenBucket(0, 0)
	if tb.Interval() != time.Second {
		t.Errorf("Expected default 1s interval, got %s", tb.Interval())
	}
	if tb.burst != 1 {
		t.Errorf("Expected default burst 1, got %d", tb.burst)
	}
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatal("Unlimited should always allow")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Expected canceled context error")
	}
}
