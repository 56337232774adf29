package internal

import (
	"testing"
	"time"
)

func TestIPLimiterAllow(t *testing.T) {
	limiter := &ipLimiter{
		store: make(map[string]*bucket),
		rps:   1,
		burst: 1,
	}

	if !limiter.allow("client") {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.allow("client") {
		t.Fatalf("expected second request to be rate limited")
	}

	time.Sleep(1100 * time.Millisecond)

	if !limiter.allow("client") {
		t.Fatalf("expected request after refill to be allowed")
	}
}

func TestIPLimiterIsolatesClients(t *testing.T) {
	limiter := &ipLimiter{
		store: make(map[string]*bucket),
		rps:   1,
		burst: 1,
	}

	if !limiter.allow("a") {
		t.Fatalf("expected first client to be allowed")
	}
	if !limiter.allow("b") {
		t.Fatalf("expected second client to be allowed")
	}
}
