package access

import (
	"net/netip"
	"strings"
)

// IsIPInRange reports whether ip falls inside any of the configured ranges.
// A range is "start" or "start-end"; both IPv4 and IPv6 are supported, with
// comparison on the normalized address. Unparseable addresses or ranges fail
// closed: they never match.
func IsIPInRange(ip string, ranges []string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, r := range ranges {
		start, end, ok := parseRange(r)
		if !ok {
			continue
		}
		if start.Is4() != addr.Is4() {
			continue
		}
		if start.Compare(addr) <= 0 && addr.Compare(end) <= 0 {
			return true
		}
	}
	return false
}

// parseRange parses "start[-end]"; end defaults to start when absent.
func parseRange(r string) (start, end netip.Addr, ok bool) {
	first, second, hasEnd := strings.Cut(strings.TrimSpace(r), "-")

	start, err := netip.ParseAddr(strings.TrimSpace(first))
	if err != nil {
		return netip.Addr{}, netip.Addr{}, false
	}
	start = start.Unmap()

	end = start
	if hasEnd {
		end, err = netip.ParseAddr(strings.TrimSpace(second))
		if err != nil {
			return netip.Addr{}, netip.Addr{}, false
		}
		end = end.Unmap()
		if start.Is4() != end.Is4() || end.Compare(start) < 0 {
			return netip.Addr{}, netip.Addr{}, false
		}
	}
	return start, end, true
}
