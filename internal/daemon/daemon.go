// Package daemon runs the filtering resolver: a UDP listener on the
// loopback interface, backed by exactly two long-lived upstream workers
// (one plain UDP, one DoH), each owning its own request/response channel
// pair. The main loop is strictly serial: request N+1 isn't read from the
// socket until request N has been answered. That head-of-line blocking is
// a deliberate property of this design, not an oversight: each worker
// carries at most one outstanding request at a time.
package daemon

import (
	"context"
	"log"
	"net"

	"github.com/dnsfiltered/dnsfiltered/internal/config"
	"github.com/dnsfiltered/dnsfiltered/internal/diagnostics"
	"github.com/dnsfiltered/dnsfiltered/internal/policy"
	"github.com/dnsfiltered/dnsfiltered/internal/transport"
	"github.com/dnsfiltered/dnsfiltered/internal/wire"
)

const maxDatagramSize = 65536

// request is what the main loop hands to a worker: the raw query bytes.
// reply is what the worker hands back: the raw response bytes, or an
// error if the upstream call failed.
type request struct {
	query []byte
}

type reply struct {
	bytes []byte
	err   error
}

// Daemon owns the UDP listener and the two upstream workers.
type Daemon struct {
	cfg    config.Config
	logger *log.Logger

	conn *net.UDPConn

	udpReq  chan request
	udpResp chan reply
	dohReq  chan request
	dohResp chan reply

	done chan struct{}
}

// New creates a Daemon from cfg. The two workers are started by Run and run
// until the ctx passed to Run is canceled.
func New(cfg config.Config, logger *log.Logger) *Daemon {
	if logger == nil {
		logger = log.Default()
	}
	d := &Daemon{
		cfg:     cfg,
		logger:  logger,
		udpReq:  make(chan request),
		udpResp: make(chan reply),
		dohReq:  make(chan request),
		dohResp: make(chan reply),
		done:    make(chan struct{}),
	}
	return d
}

// Run binds the listening socket, starts the two workers, and serves
// requests until ctx is canceled or an unrecoverable bind error occurs.
func (d *Daemon) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", d.cfg.Listen)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return err
	}
	d.conn = conn
	defer conn.Close()

	udpUpstream := d.cfg.Upstreams[d.cfg.DefaultUDP]
	dohUpstream := d.cfg.Upstreams[d.cfg.DefaultDoH]

	go d.udpWorker(ctx, udpUpstream.UDPIP)
	go d.dohWorker(ctx, dohUpstream.DoHURL)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, clientAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				d.logger.Printf("read: %v", err)
				continue
			}
		}
		query := make([]byte, n)
		copy(query, buf[:n])
		d.handleDatagram(ctx, query, clientAddr)
	}
}

// udpWorker loops: receive a request, perform one blocking UDP exchange,
// send the reply. It shares no state with the DoH worker or the main loop
// except these two channels.
func (d *Daemon) udpWorker(ctx context.Context, serverIPv4 string) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.udpReq:
			bytes, err := transport.Exchange(ctx, req.query, serverIPv4)
			d.udpResp <- reply{bytes: bytes, err: err}
		}
	}
}

// dohWorker loops: receive a request, perform one blocking DoH GET, send
// the reply.
func (d *Daemon) dohWorker(ctx context.Context, baseURL string) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.dohReq:
			bytes, err := transport.Resolve(ctx, baseURL, req.query)
			d.dohResp <- reply{bytes: bytes, err: err}
		}
	}
}

// handleDatagram implements the per-datagram sequence: fan the query out
// to both workers, decode and classify locally while they run, then fan
// the two replies in and select the final answer.
func (d *Daemon) handleDatagram(ctx context.Context, query []byte, clientAddr *net.UDPAddr) {
	d.udpReq <- request{query: query}
	d.dohReq <- request{query: query}

	decoded, err := wire.DecodePacket(wire.Packet(query))
	if err != nil {
		d.logger.Printf("malformed query from %s: %v", clientAddr, err)
		<-d.udpResp
		<-d.dohResp
		return
	}
	d.logger.Printf("query from %s:\n%s", clientAddr, diagnostics.Render(decoded))

	status := d.cfg.Lists.Classify(decoded)
	blockBytes, blockErr := policy.SynthesizeBlock(decoded, d.cfg.Sinkhole)

	udpReply := <-d.udpResp
	dohReply := <-d.dohResp

	final, decision := d.selectResponse(status, blockBytes, blockErr, udpReply, dohReply)
	d.logger.Print(decision)
	if final == nil {
		return
	}

	if out, err := wire.DecodePacket(wire.Packet(final)); err == nil {
		d.logger.Printf("response to %s:\n%s", clientAddr, diagnostics.Render(out))
	}

	if _, err := d.conn.WriteToUDP(final, clientAddr); err != nil {
		d.logger.Printf("write to %s: %v", clientAddr, err)
	}
}

// selectResponse applies the deterministic priority rule: Block wins
// outright, Allow takes the plain UDP reply, and Neutral takes the DoH
// reply unless the authority signaled its own block.
func (d *Daemon) selectResponse(status policy.Status, blockBytes []byte, blockErr error, udpReply, dohReply reply) ([]byte, string) {
	switch status {
	case policy.Block:
		if blockErr != nil {
			return nil, "Blocking via block list: synthesis failed: " + blockErr.Error()
		}
		return blockBytes, "Blocking via block list"
	case policy.Allow:
		if udpReply.err != nil {
			return nil, "Allowing via allow list: upstream failed: " + udpReply.err.Error()
		}
		return udpReply.bytes, "Allowing via allow list"
	default:
		if dohReply.err == nil && policy.AuthorityBlocked(dohReply.bytes) {
			if blockErr != nil {
				return nil, "Blocking via CB: synthesis failed: " + blockErr.Error()
			}
			return blockBytes, "Blocking via CB"
		}
		if dohReply.err != nil {
			return nil, "List and authority are neutral: authority failed: " + dohReply.err.Error()
		}
		return dohReply.bytes, "List and authority are neutral"
	}
}
