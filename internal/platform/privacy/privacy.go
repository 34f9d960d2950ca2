// Package privacy reduces identifiers before they reach logs.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// AnonymizeIP truncates a client address to its /24 (IPv4) or /48 (IPv6)
// network. A trailing port, as in http.Request.RemoteAddr, is dropped.
// Empty input yields "unknown" and unparseable input yields "invalid".
func AnonymizeIP(addr string) string {
	if addr == "" || addr == "unknown" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	parsed := net.ParseIP(addr)
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// MaskWallet keeps the 0x prefix plus the first and last four hex digits of
// a wallet address, lowercased. Anything shorter than an address is fully masked.
func MaskWallet(wallet string) string {
	w := strings.ToLower(strings.TrimSpace(wallet))
	if len(w) < 12 || !strings.HasPrefix(w, "0x") {
		return "***"
	}
	return w[:6] + "…" + w[len(w)-4:]
}
