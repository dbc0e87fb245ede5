package security

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// TokenBucket is an in-process rate limiter with one bucket per key.
// Buckets refill continuously at RefillRate tokens per second up to
// Capacity.
type TokenBucket struct {
	capacity   float64
	refillRate float64

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a limiter. Capacity or rate of zero disables it.
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		buckets:    make(map[string]*bucket),
	}
}

// Allow consumes one token from the key's bucket, reporting whether the
// request may proceed and how many tokens remain.
func (l *TokenBucket) Allow(key string) (bool, int) {
	if l.capacity <= 0 || l.refillRate <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.buckets[key] = b
	}

	delta := now.Sub(b.last).Seconds()
	if delta < 0 {
		delta = 0
	}
	b.tokens += delta * l.refillRate
	if b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.last = now

	if b.tokens < 1 {
		return false, int(b.tokens)
	}
	b.tokens--
	return true, int(b.tokens)
}

// UnaryRateLimit rejects requests over the caller's allowance with
// ResourceExhausted. keyFn picks the bucket; nil keys the bucket by the
// peer address.
func UnaryRateLimit(l *TokenBucket, keyFn func(ctx context.Context, fullMethod string) string) grpc.UnaryServerInterceptor {
	if keyFn == nil {
		keyFn = peerKey
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		key := keyFn(ctx, info.FullMethod)
		if key == "" {
			return handler(ctx, req)
		}
		if allowed, _ := l.Allow(key); !allowed {
			return nil, status.Error(codes.ResourceExhausted, "rate limited")
		}
		return handler(ctx, req)
	}
}

func peerKey(ctx context.Context, _ string) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}
