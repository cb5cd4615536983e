package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// Resolver looks up the addresses of a host.
type Resolver interface {
	LookupAddrs(ctx context.Context, host string) ([]netip.Addr, error)
}

// NetResolver resolves A and AAAA records with the Go resolver.
type NetResolver struct {
	Timeout    time.Duration
	NameServer []string // Optional custom nameservers
}

// LookupAddrs returns IPv4 addresses followed by IPv6 addresses.
func (r *NetResolver) LookupAddrs(ctx context.Context, host string) ([]netip.Addr, error) {
	resolver := &net.Resolver{
		PreferGo: true,
	}

	// If custom nameservers provided, use them
	if len(r.NameServer) > 0 {
		dialer := &net.Dialer{
			Timeout: r.Timeout,
		}
		resolver.Dial = func(ctx context.Context, network, address string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, r.NameServer[0])
		}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	v4, err4 := resolver.LookupNetIP(ctx, "ip4", host)
	v6, err6 := resolver.LookupNetIP(ctx, "ip6", host)
	if err4 != nil && err6 != nil {
		return nil, fmt.Errorf("lookup %s: %w", host, err4)
	}

	addrs := make([]netip.Addr, 0, len(v4)+len(v6))
	for _, a := range v4 {
		addrs = append(addrs, a.Unmap())
	}
	addrs = append(addrs, v6...)
	return addrs, nil
}

// pickAddr chooses the address to connect to. IPv4 wins; IPv6 is used only
// when the host has no IPv4 address.
func pickAddr(addrs []netip.Addr, allowIPv6 bool) (addr netip.Addr, onlyIPv6 bool) {
	var v4, v6 netip.Addr
	for _, a := range addrs {
		switch {
		case a.Is4() && !v4.IsValid():
			v4 = a
		case a.Is6() && !v6.IsValid():
			v6 = a
		}
	}
	if v4.IsValid() {
		return v4, false
	}
	if allowIPv6 {
		return v6, false
	}
	return v6, v6.IsValid()
}

// hostPort formats addr for use in a URL authority.
func hostPort(addr netip.Addr) string {
	if addr.Is6() {
		return "[" + addr.String() + "]"
	}
	return addr.String()
}

// pinner maps the hosts of one redirect chain to addresses resolved once, so
// every hop connects to a fixed IP while presenting the original host name.
type pinner struct {
	resolver  Resolver
	allowIPv6 bool
	addrs     map[string]netip.Addr
}

func newPinner(resolver Resolver, allowIPv6 bool, host string, addr netip.Addr) *pinner {
	return &pinner{
		resolver:  resolver,
		allowIPv6: allowIPv6,
		addrs:     map[string]netip.Addr{strings.ToLower(host): addr},
	}
}

// pin rewrites rawURL to address the IP of its host. serverName is the host
// name to send as Host header and TLS server name; it is empty when rawURL
// already names an IP.
func (p *pinner) pin(ctx context.Context, rawURL string) (target, serverName string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", &CannotOpenURLError{URL: rawURL, Err: err}
	}
	host := strings.ToLower(u.Hostname())
	if _, err := netip.ParseAddr(host); err == nil {
		return rawURL, "", nil
	}

	addr, ok := p.addrs[host]
	if !ok {
		addrs, err := p.resolver.LookupAddrs(ctx, host)
		if err != nil || len(addrs) == 0 {
			return "", "", &HostNotFoundError{URL: rawURL, Host: host, Err: err}
		}
		var onlyIPv6 bool
		if addr, onlyIPv6 = pickAddr(addrs, p.allowIPv6); onlyIPv6 {
			return "", "", &OnlyIPv6HostError{URL: rawURL, Host: host, IP: addr.String()}
		}
		p.addrs[host] = addr
	}

	pinned := url.URL{
		Scheme:   u.Scheme,
		Host:     hostPort(addr),
		Path:     u.Path,
		RawPath:  u.RawPath,
		RawQuery: u.RawQuery,
	}
	if port := u.Port(); port != "" {
		pinned.Host += ":" + port
	}
	return pinned.String(), host, nil
}
