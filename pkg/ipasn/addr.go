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

// ParseAddr parses s into an netip.Addr, unmapping IPv4-in-IPv6 forms
// (e.g. "::ffff:1.2.3.4") so that they compare and sort identically to
// their plain IPv4 form.  netip.Addr already orders every IPv4 address
// below every IPv6 address, which is the cross-family total order the
// sorted table relies on.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, err
	}

	return addr.Unmap(), nil
}

// sameFamily reports whether a and b are both IPv4 or both IPv6.
func sameFamily(a, b netip.Addr) bool {
	return a.Is4() == b.Is4()
}
