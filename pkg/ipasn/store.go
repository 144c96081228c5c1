/*
Copyright 2026 The ip2asn Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipasn

import (
	"net/netip"
)

// Store is the immutable, sorted interval index built from a Database.
// It is shared-immutable: once built, no method mutates it, so any number
// of goroutines can call Lookup concurrently with each other and with the
// Store being kept alive by the Engine swapping in a replacement under it.
type Store struct {
	records []AsnRecord
}

// emptyStore is installed by Engine before the first successful Load.
var emptyStore = &Store{}

// newStore takes ownership of db's already-sorted record slice.
func newStore(db *Database) *Store {
	return &Store{records: db.Records}
}

// Lookup runs a three-way bisection: at each midpoint record R, ip is
// compared against [R.FirstIP, R.LastIP] rather than against a single
// key, so this executes a point-in-interval search rather than an
// equality search. If the input intervals are non-overlapping the result
// is the unique covering record; if two intervals happen to cover ip
// (malformed input) the result is whichever one the bisection lands on.
func (s *Store) Lookup(ip netip.Addr) (*AsnRecord, bool) {
	lo, hi := 0, len(s.records)

	for lo < hi {
		mid := int(uint(lo+hi) >> 1)

		r := &s.records[mid]

		switch {
		case ip.Less(r.FirstIP):
			hi = mid
		case r.LastIP.Less(ip):
			lo = mid + 1
		default:
			return r, true
		}
	}

	return nil, false
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// IsEmpty reports whether the store has no records.
func (s *Store) IsEmpty() bool {
	return len(s.records) == 0
}
