// Package transport implements the two one-shot upstream exchanges the
// daemon's workers perform: a plain UDP round trip and a DNS-over-HTTPS
// GET. Neither retries nor times out on its own; the canonical behavior is
// an unbounded wait, left to the caller's context.
package transport

import (
	"context"
	"fmt"
	"net"
)

// maxUDPReply is large enough for any DNS-over-UDP datagram (RFC 1035's
// 512-byte default plus headroom for EDNS(0)-sized replies some
// upstreams send regardless of whether the query advertised it).
const maxUDPReply = 65536

// Exchange sends query to serverIPv4:53 over UDP from an ephemeral socket
// and returns the single reply datagram exactly as received. There is no
// retry and no timeout beyond what ctx imposes; context.Background() reproduces
// the canonical unbounded wait.
func Exchange(ctx context.Context, query []byte, serverIPv4 string) ([]byte, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp4", net.JoinHostPort(serverIPv4, "53"))
	if err != nil {
		return nil, fmt.Errorf("udp exchange: dial %s: %w", serverIPv4, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(query); err != nil {
		return nil, fmt.Errorf("udp exchange: send: %w", err)
	}

	buf := make([]byte, maxUDPReply)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("udp exchange: recv: %w", err)
	}
	reply := make([]byte, n)
	copy(reply, buf[:n])
	return reply, nil
}
