package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable by
// creation time, which makes them stable identity keys for announcements
// that are otherwise only ordered by their creation timestamp.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
