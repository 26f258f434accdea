// Package ipfilter decides which origin addresses may reach the API at all.
package ipfilter

import (
	"fmt"
	"net/netip"
	"strings"
)

// Filter holds the admission allow list: exact addresses and CIDR ranges.
// Membership checks are pure and safe for concurrent use after construction.
type Filter struct {
	addrs    map[netip.Addr]struct{}
	prefixes []netip.Prefix
}

// New builds a Filter from a mix of exact addresses ("127.0.0.1", "::1")
// and CIDR ranges ("10.8.0.0/24"). An entry that parses as neither is an
// error; a misconfigured allow list must not start the server.
func New(ranges []string) (*Filter, error) {
	f := &Filter{
		addrs: make(map[netip.Addr]struct{}),
	}

	for _, entry := range ranges {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid network range %q: %w", entry, err)
			}
			f.prefixes = append(f.prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", entry, err)
		}
		f.addrs[addr.Unmap()] = struct{}{}
	}

	if len(f.addrs) == 0 && len(f.prefixes) == 0 {
		return nil, fmt.Errorf("allow list is empty")
	}

	return f, nil
}

// Allowed reports whether addr is admitted
func (f *Filter) Allowed(addr netip.Addr) bool {
	addr = addr.Unmap()

	if _, ok := f.addrs[addr]; ok {
		return true
	}
	for _, prefix := range f.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// AllowedString parses raw and checks admission. Unparseable input is
// denied rather than erred; the caller answers 403 either way.
func (f *Filter) AllowedString(raw string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return f.Allowed(addr)
}
