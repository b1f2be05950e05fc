// Package interceptors provides gRPC server interceptors backed by the
// generational cache.
package interceptors

import (
	"context"
	"slices"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"

	"github.com/Keksclan/gencache"
)

var keyEncoding = proto.MarshalOptions{Deterministic: true}

// ResponseCache holds memoized protobuf responses. It is safe for
// concurrent use and may be shared by any number of interceptors.
type ResponseCache struct {
	mu     sync.Mutex
	engine *gencache.Cache[string, proto.Message]
}

// NewResponseCache creates a ResponseCache holding at most capacity
// responses. opts configure the underlying engine; an eviction callback
// runs with the cache locked and must not call back into it.
func NewResponseCache(capacity int, opts ...gencache.Option) (*ResponseCache, error) {
	engine, err := gencache.New[string, proto.Message](capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{engine: engine}, nil
}

// Len returns the number of cached responses.
func (r *ResponseCache) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Len()
}

// Resize changes the capacity, evicting the oldest responses if needed.
func (r *ResponseCache) Resize(capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Resize(capacity)
}

// Purge drops every cached response.
func (r *ResponseCache) Purge() {
	r.mu.Lock()
	r.engine.Clear()
	r.mu.Unlock()
}

func (r *ResponseCache) get(key string) (proto.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Get(key)
}

func (r *ResponseCache) set(key string, msg proto.Message) {
	r.mu.Lock()
	r.engine.Set(key, msg)
	r.mu.Unlock()
}

// CacheUnary returns a unary server interceptor that memoizes successful
// responses in c, keyed by the full method name and the deterministic
// encoding of the request. Only the listed methods are cached; with no
// methods every unary RPC is. Only use it for idempotent methods.
//
// Entries expire according to c's default TTL. Callers always receive a
// clone, so handlers and clients may mutate messages freely.
func CacheUnary(c *ResponseCache, methods ...string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if len(methods) > 0 && !slices.Contains(methods, info.FullMethod) {
			return handler(ctx, req)
		}
		msg, ok := req.(proto.Message)
		if !ok {
			return handler(ctx, req)
		}
		key, err := cacheKey(info.FullMethod, msg)
		if err != nil {
			return handler(ctx, req)
		}

		if cached, hit := c.get(key); hit {
			return proto.Clone(cached), nil
		}

		resp, err := handler(ctx, req)
		if err != nil {
			return resp, err
		}
		if out, ok := resp.(proto.Message); ok {
			c.set(key, proto.Clone(out))
		}
		return resp, nil
	}
}

func cacheKey(fullMethod string, req proto.Message) (string, error) {
	b := make([]byte, 0, len(fullMethod)+1+proto.Size(req))
	b = append(b, fullMethod...)
	b = append(b, 0)
	b, err := keyEncoding.MarshalAppend(b, req)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
