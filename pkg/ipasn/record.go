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

// AsnRecord is a single announced interval in the table.
//
// Country and Description point into a per-parse interning pool: every
// record sharing the same observed bytes for a field shares the same
// pointer, so equality can be checked with a pointer compare if a caller
// wants it, though nothing in this package relies on that.
type AsnRecord struct {
	FirstIP     netip.Addr
	LastIP      netip.Addr
	Number      uint32
	Country     *string
	Description *string
}

// Database is the parsed, sorted contents of one snapshot.  It is the
// hand-off type between Parse and newStore: Parse builds it, newStore
// consumes it and never mutates it again.
type Database struct {
	Records []AsnRecord
}

// Len returns the number of records.
func (d *Database) Len() int {
	return len(d.Records)
}

// IsEmpty reports whether the database has no records.
func (d *Database) IsEmpty() bool {
	return len(d.Records) == 0
}
