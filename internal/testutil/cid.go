// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CID returns a deterministic CIDv1 (raw codec) derived from seed.
func CID(tb testing.TB, seed string) string {
	tb.Helper()
	mh, err := multihash.Sum([]byte(seed), multihash.SHA2_256, -1)
	if err != nil {
		tb.Fatalf("multihash.Sum: %v", err)
	}
	return cid.NewCidV1(cid.Raw, mh).String()
}

// CIDv0 returns a deterministic CIDv0 derived from seed.
func CIDv0(tb testing.TB, seed string) string {
	tb.Helper()
	mh, err := multihash.Sum([]byte(seed), multihash.SHA2_256, -1)
	if err != nil {
		tb.Fatalf("multihash.Sum: %v", err)
	}
	return cid.NewCidV0(mh).String()
}
