package gencache

import (
	"math"
	"time"
)

// NoExpiration marks an entry (or a default TTL) that never expires. It is
// also what [Cache.ExpiresIn] reports for such entries.
const NoExpiration time.Duration = math.MaxInt64
