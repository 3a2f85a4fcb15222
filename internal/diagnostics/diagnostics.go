// Package diagnostics renders a decoded DNS message as human-readable
// text. Purely informational — nothing here feeds back into the wire
// format or the daemon's decisions.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/dnsfiltered/dnsfiltered/internal/wire"
)

// Render returns a multi-line description of p.
func Render(p *wire.DecomposedPacket) string {
	var b strings.Builder

	fmt.Fprintf(&b, "id=0x%04X\n", p.ID)

	kind := "Query"
	if p.IsResponse {
		kind = "Response"
	}
	var flags1 []string
	if p.IsAuthoritative {
		flags1 = append(flags1, "AA")
	}
	if p.IsTruncated {
		flags1 = append(flags1, "TC")
	}
	if p.RecursionDesired {
		flags1 = append(flags1, "RD")
	}
	fmt.Fprintf(&b, "%s opcode=%s%s\n", kind, p.Opcode, flagSuffix(flags1))

	var flags2 []string
	if p.RecursionAvailable {
		flags2 = append(flags2, "RA")
	}
	if p.AuthenticData {
		flags2 = append(flags2, "AD")
	}
	if p.CheckingDisabled {
		flags2 = append(flags2, "CD")
	}
	fmt.Fprintf(&b, "rcode=%s%s\n", p.ResponseCode, flagSuffix(flags2))

	renderSection(&b, "QUESTION", len(p.Questions), func(w *strings.Builder) {
		for _, q := range p.Questions {
			fmt.Fprintf(w, "  %s %s %s\n", labelText(q.Label), q.QClass, q.QType)
		}
	})
	renderResourceSection(&b, "ANSWER", p.Answers)
	renderResourceSection(&b, "AUTHORITY", p.Authorities)
	renderResourceSection(&b, "ADDITIONAL", p.AdditionalRecords)

	return b.String()
}

func flagSuffix(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	return " " + strings.Join(flags, " ")
}

func renderSection(b *strings.Builder, name string, count int, body func(*strings.Builder)) {
	fmt.Fprintf(b, "%s: %d\n", name, count)
	body(b)
}

func renderResourceSection(b *strings.Builder, name string, records []wire.Resource) {
	renderSection(b, name, len(records), func(w *strings.Builder) {
		for _, r := range records {
			fmt.Fprintf(w, "  %s %s %s ttl=%d %s\n",
				labelText(r.Label), r.RClass, r.RType, r.TTL, renderData(r))
		}
	})
}

func labelText(l wire.Label) string {
	if l.IsPointer() {
		return "<pointer>"
	}
	return l.Text()
}

// renderData renders a resource's RDATA according to its type: a dotted
// IPv4 quad for A records, the first label for SOA records, and a
// byte-count summary for everything else.
func renderData(r wire.Resource) string {
	switch r.RType {
	case wire.TypeA:
		if len(r.Data) == 4 {
			return fmt.Sprintf("%d.%d.%d.%d", r.Data[0], r.Data[1], r.Data[2], r.Data[3])
		}
	case wire.TypeSOA:
		label, _, err := wire.DecodeLabelAt(r.Data, 0)
		if err == nil && !label.IsPointer() {
			return label.Text()
		}
	}
	return fmt.Sprintf("(%d bytes)", len(r.Data))
}
