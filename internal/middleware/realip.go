// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// TrustProxies rewrites RemoteAddr from the forwarding headers, but only
// for requests whose direct peer is in trusted. Anyone else can put any
// address in those headers, so their requests keep the socket address.
// With no trusted proxies it does nothing.
func TrustProxies(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		realIP := chimw.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !inPrefixes(peerAddr(r.RemoteAddr), trusted) {
				next.ServeHTTP(w, r)
				return
			}
			if hop := clientHop(r.Header.Get("X-Forwarded-For"), trusted); hop != "" {
				r.Header.Set("X-Forwarded-For", hop)
			}
			realIP.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the client address of r. Forwarding headers are only
// reflected here once TrustProxies has accepted them.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// clientHop walks X-Forwarded-For from the right, skipping our own
// proxies, and returns the first address they did not add.
func clientHop(xff string, trusted []netip.Prefix) string {
	if xff == "" {
		return ""
	}
	hops := strings.Split(xff, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			return ""
		}
		if !inPrefixes(addr, trusted) || i == 0 {
			return addr.String()
		}
	}
	return ""
}

func peerAddr(remote string) netip.Addr {
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

func inPrefixes(addr netip.Addr, prefixes []netip.Prefix) bool {
	if !addr.IsValid() {
		return false
	}
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
