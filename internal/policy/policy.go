// Package policy classifies decoded queries against static allow/block
// lists and recognizes when the DoH filtering authority itself signaled a
// block via its RPZ-style NXDomain/SOA convention.
package policy

import (
	"fmt"

	"github.com/dnsfiltered/dnsfiltered/internal/wire"
)

// Status is the outcome of classifying a query's first question.
type Status int

const (
	Neutral Status = iota
	Block
	Allow
)

func (s Status) String() string {
	switch s {
	case Block:
		return "Block"
	case Allow:
		return "Allow"
	default:
		return "Neutral"
	}
}

// cleanBrowsingAuthority is the RPZ zone-apex label the filtering
// authority's SOA RDATA carries when it has suppressed a name itself.
const cleanBrowsingAuthority = "cleanbrowsing.rpz.noc.org"

// SinkholeIPv4 is the fixed address returned in synthesized block answers
// when no configuration overrides it.
var SinkholeIPv4 = [4]byte{208, 185, 195, 92}

// SinkholeTTL is the TTL on synthesized block answers, in seconds, when no
// configuration overrides it.
const SinkholeTTL = 10

// Sinkhole is the address/TTL pair SynthesizeBlock stamps into a synthesized
// block answer. Configurable so a deployment's config file actually changes
// what the daemon returns, rather than the canonical defaults being the only
// reachable values.
type Sinkhole struct {
	IPv4 [4]byte
	TTL  uint32
}

// DefaultSinkhole returns the canonical compiled-in sinkhole parameters.
func DefaultSinkhole() Sinkhole {
	return Sinkhole{IPv4: SinkholeIPv4, TTL: SinkholeTTL}
}

// Lists holds the static block/allow domain sets consulted by Classify.
// Comparisons are exact string equality: no suffix matching, no case
// folding. "www.lego.com" is not blocked by a "lego.com" entry.
type Lists struct {
	Block []string
	Allow []string
}

// DefaultLists are the canonical lists used when no configuration
// overrides them.
func DefaultLists() Lists {
	return Lists{
		Block: []string{"lego.com"},
		Allow: []string{"reddit.com"},
	}
}

func contains(list []string, name string) bool {
	for _, d := range list {
		if d == name {
			return true
		}
	}
	return false
}

// Classify inspects the first question's label. A query with no questions,
// or whose first label is a compression pointer rather than a literal
// domain, is Neutral — these are edge cases, not errors.
func (l Lists) Classify(p *wire.DecomposedPacket) Status {
	if len(p.Questions) == 0 {
		return Neutral
	}
	label := p.Questions[0].Label
	if label.IsPointer() {
		return Neutral
	}
	name := label.Text()
	if contains(l.Block, name) {
		return Block
	}
	if contains(l.Allow, name) {
		return Allow
	}
	return Neutral
}

// AuthorityBlocked reports whether a raw DoH response signals that the
// filtering authority suppressed the name itself: response code NXDomain
// and at least one SOA authority record whose RDATA, decoded as a label
// from its own offset 0, is cleanbrowsing.rpz.noc.org.
func AuthorityBlocked(responseBytes []byte) bool {
	p, err := wire.DecodePacket(wire.Packet(responseBytes))
	if err != nil {
		return false
	}
	if p.ResponseCode != wire.NXDomain {
		return false
	}
	for _, auth := range p.Authorities {
		if auth.RType != wire.TypeSOA {
			continue
		}
		label, _, err := wire.DecodeLabelAt(auth.Data, 0)
		if err != nil {
			continue
		}
		if !label.IsPointer() && label.Text() == cleanBrowsingAuthority {
			return true
		}
	}
	return false
}

// SynthesizeBlock clones query, appends a sinkhole A/IN answer for its
// first question using the given sinkhole address/TTL, marks the packet as
// a successful response, and re-encodes it.
func SynthesizeBlock(query *wire.DecomposedPacket, sinkhole Sinkhole) ([]byte, error) {
	if len(query.Questions) == 0 {
		return nil, fmt.Errorf("synthesize block: query has no questions")
	}
	out := query.Clone()
	out.IsResponse = true
	out.ResponseCode = wire.NoError
	answer := wire.NewResource(
		out.Questions[0].Label,
		wire.TypeA,
		wire.ClassIN,
		sinkhole.TTL,
		sinkhole.IPv4[:],
	)
	out.Answers = append(out.Answers, answer)

	pkt, err := wire.EncodePacket(out)
	if err != nil {
		return nil, fmt.Errorf("synthesize block: %w", err)
	}
	return []byte(pkt), nil
}
