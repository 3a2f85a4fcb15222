package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dnsfiltered/dnsfiltered/internal/wire"
)

func TestRenderIncludesIDAndSections(t *testing.T) {
	p := &wire.DecomposedPacket{
		ID:               0x1234,
		RecursionDesired: true,
		Opcode:           wire.OpcodeQuery,
		ResponseCode:     wire.NoError,
		Questions: []wire.Question{
			{Label: wire.Domain("example.com"), QType: wire.TypeA, QClass: wire.ClassIN},
		},
	}
	out := Render(p)
	assert.Contains(t, out, "id=0x1234")
	assert.Contains(t, out, "Query")
	assert.Contains(t, out, "RD")
	assert.Contains(t, out, "QUESTION: 1")
	assert.Contains(t, out, "example.com")
}

func TestRenderARecordAsDottedQuad(t *testing.T) {
	p := &wire.DecomposedPacket{
		IsResponse: true,
		Answers: []wire.Resource{
			wire.NewResource(wire.Domain("example.com"), wire.TypeA, wire.ClassIN, 10, []byte{208, 185, 195, 92}),
		},
	}
	out := Render(p)
	assert.Contains(t, out, "208.185.195.92")
}

func TestRenderOtherRecordAsByteCount(t *testing.T) {
	p := &wire.DecomposedPacket{
		IsResponse: true,
		Answers: []wire.Resource{
			wire.NewResource(wire.Domain("example.com"), wire.TypeTXT, wire.ClassIN, 10, []byte("hello")),
		},
	}
	out := Render(p)
	assert.Contains(t, out, "(5 bytes)")
}
