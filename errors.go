package gencache

import "errors"

// ErrInvalidArgument is returned by [New] and [Cache.Resize] when a
// capacity, TTL or eviction callback is not acceptable. Returned errors wrap
// it with detail, so callers should compare with [errors.Is].
var ErrInvalidArgument = errors.New("gencache: invalid argument")
