// Package discovery resolves a matching-engine host/port via mDNS when the
// engine client is not given an explicit host (spec §4.6 Discovery). It
// adapts the teacher's zeroconf.Register side into the client-side Browse
// half of the same API.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"

	"github.com/kstaniek/tradec/internal/logging"
)

// ServiceType is the mDNS service type the matching engine advertises.
const ServiceType = "_matching-engine._tcp"

// Lookup browses for ServiceType and returns the host/port of the first
// instance seen before ctx is done. It returns an error if ctx expires
// without any instance appearing.
func Lookup(ctx context.Context) (host string, port int, err error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", 0, fmt.Errorf("discovery: new resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 4)
	if err := resolver.Browse(ctx, ServiceType, "local.", entries); err != nil {
		return "", 0, fmt.Errorf("discovery: browse: %w", err)
	}

	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return "", 0, fmt.Errorf("discovery: no instance of %s found", ServiceType)
			}
			if e == nil {
				continue
			}
			h, p, ok := firstAddr(e)
			if !ok {
				continue
			}
			logging.L().Info("discovery_found", "instance", e.Instance, "host", h, "port", p)
			return h, p, nil
		case <-ctx.Done():
			return "", 0, fmt.Errorf("discovery: %w", ctx.Err())
		}
	}
}

func firstAddr(e *zeroconf.ServiceEntry) (string, int, bool) {
	for _, ip := range e.AddrIPv4 {
		return ip.String(), e.Port, true
	}
	for _, ip := range e.AddrIPv6 {
		return ip.String(), e.Port, true
	}
	return "", 0, false
}

// HostPort joins host and port the way net.JoinHostPort does, exported here
// so callers building transport addresses don't need a separate import.
func HostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
