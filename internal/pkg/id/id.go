package id

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time, so ledger rows sharing a partition key come back in
// issue order.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewAccountID returns a random UUID in the same shape the hosted identity
// provider uses for its account ids.
func NewAccountID() string {
	return uuid.NewString()
}
