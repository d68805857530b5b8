package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

var (
	monoMu sync.Mutex
	mono   = ulid.Monotonic(rand.Reader, 0)
)

// NewMonotonic generates a ULID that is strictly greater than any previous
// one issued by this process, even within the same millisecond. Audit entry
// ids use this so that id order is exactly append order.
func NewMonotonic() string {
	monoMu.Lock()
	defer monoMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), mono).String()
}
