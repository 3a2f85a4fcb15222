package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnsfiltered/dnsfiltered/internal/wire"
)

func queryFor(domain string) *wire.DecomposedPacket {
	return &wire.DecomposedPacket{
		ID: 0x1234,
		Questions: []wire.Question{
			{Label: wire.Domain(domain), QType: wire.TypeA, QClass: wire.ClassIN},
		},
	}
}

func TestClassificationDeterminism(t *testing.T) {
	lists := DefaultLists()

	assert.Equal(t, Block, lists.Classify(queryFor("lego.com")))
	assert.Equal(t, Allow, lists.Classify(queryFor("reddit.com")))
	assert.Equal(t, Neutral, lists.Classify(queryFor("example.com")))
	assert.Equal(t, Neutral, lists.Classify(&wire.DecomposedPacket{ID: 0x1234}))
}

func TestClassifyExactMatchOnly(t *testing.T) {
	lists := DefaultLists()
	assert.Equal(t, Neutral, lists.Classify(queryFor("www.lego.com")))
}

func TestClassifyPointerLabelIsNeutral(t *testing.T) {
	lists := DefaultLists()
	p := &wire.DecomposedPacket{
		Questions: []wire.Question{{Label: wire.Pointer(4), QType: wire.TypeA, QClass: wire.ClassIN}},
	}
	assert.Equal(t, Neutral, lists.Classify(p))
}

func buildSOAResponse(t *testing.T, rcode wire.ResponseCode, authorityLabel string) []byte {
	t.Helper()
	rdata, err := encodeLabelStandalone(authorityLabel)
	require.NoError(t, err)
	p := &wire.DecomposedPacket{
		ID:           0x1234,
		IsResponse:   true,
		ResponseCode: rcode,
		Authorities: []wire.Resource{
			wire.NewResource(wire.Domain("example.com"), wire.TypeSOA, wire.ClassIN, 60, rdata),
		},
	}
	pkt, err := wire.EncodePacket(p)
	require.NoError(t, err)
	return pkt
}

// encodeLabelStandalone builds the wire form of a single Domain label
// (length-prefixed parts + terminator) for use as synthetic RDATA.
func encodeLabelStandalone(name string) ([]byte, error) {
	q := &wire.DecomposedPacket{Questions: []wire.Question{{Label: wire.Domain(name), QType: wire.TypeA, QClass: wire.ClassIN}}}
	pkt, err := wire.EncodePacket(q)
	if err != nil {
		return nil, err
	}
	// strip the 12-byte header and trailing 4-byte type/class to leave just the label bytes.
	body := pkt[12:]
	return body[:len(body)-4], nil
}

func TestAuthorityBlockRecognizer(t *testing.T) {
	blocked := buildSOAResponse(t, wire.NXDomain, "cleanbrowsing.rpz.noc.org")
	assert.True(t, AuthorityBlocked(blocked))

	notBlocked := buildSOAResponse(t, wire.NoError, "cleanbrowsing.rpz.noc.org")
	assert.False(t, AuthorityBlocked(notBlocked))
}

func TestSynthesizeBlock(t *testing.T) {
	query := queryFor("lego.com")
	out, err := SynthesizeBlock(query, DefaultSinkhole())
	require.NoError(t, err)

	decoded, err := wire.DecodePacket(wire.Packet(out))
	require.NoError(t, err)

	assert.True(t, decoded.IsResponse)
	assert.Equal(t, wire.NoError, decoded.ResponseCode)
	require.Len(t, decoded.Answers, 1)
	ans := decoded.Answers[0]
	assert.Equal(t, wire.TypeA, ans.RType)
	assert.Equal(t, wire.ClassIN, ans.RClass)
	assert.Equal(t, uint32(SinkholeTTL), ans.TTL)
	assert.Equal(t, SinkholeIPv4[:], ans.Data)
	assert.Equal(t, "lego.com", ans.Label.Text())
}

func TestSynthesizeBlockUsesGivenSinkhole(t *testing.T) {
	custom := Sinkhole{IPv4: [4]byte{10, 0, 0, 1}, TTL: 30}
	out, err := SynthesizeBlock(queryFor("lego.com"), custom)
	require.NoError(t, err)

	decoded, err := wire.DecodePacket(wire.Packet(out))
	require.NoError(t, err)
	require.Len(t, decoded.Answers, 1)
	assert.Equal(t, custom.IPv4[:], decoded.Answers[0].Data)
	assert.Equal(t, custom.TTL, decoded.Answers[0].TTL)
}

func TestSynthesizeBlockRequiresQuestion(t *testing.T) {
	_, err := SynthesizeBlock(&wire.DecomposedPacket{ID: 1}, DefaultSinkhole())
	assert.Error(t, err)
}
