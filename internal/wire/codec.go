package wire

import (
	"errors"
	"fmt"

	"github.com/dnsfiltered/dnsfiltered/internal/byteops"
)

// Local failure modes. The daemon treats all of these as "drop the
// datagram, log, continue" (never a reply, never a panic).
var (
	ErrMessageTooShort   = errors.New("wire: message shorter than header")
	ErrBufferTooShort    = errors.New("wire: buffer too short for declared counts")
	ErrLabelPartTooLong  = errors.New("wire: label part empty or exceeds 63 bytes")
	ErrCompressionLoop   = errors.New("wire: compression pointer loop or excessive depth")
	ErrInvalidPointer    = errors.New("wire: compression pointer out of range")
)

// Security limits mirror the bounds a hand-rolled parser in this lineage
// has always enforced against hostile compression chains.
const (
	maxCompressionDepth = 20
	maxLabelLength       = 63
)

// EncodePacket serializes p into wire bytes. Header counts are derived
// from the four section lengths; Domain labels never emit pointers, so
// DecodePacket(EncodePacket(p)) reproduces p field-for-field.
func EncodePacket(p *DecomposedPacket) (Packet, error) {
	buf := make([]byte, headerSize, headerSize+64)

	if err := byteops.PutUint16(buf, 0, p.ID); err != nil {
		return nil, err
	}

	var b2, b3 byte
	b2 = byteops.SetFlag(b2, 7, p.IsResponse)
	opcode := p.Opcode.RawValue()
	for bit := uint(0); bit < 4; bit++ {
		b2 = byteops.SetFlag(b2, 3+bit, (opcode>>bit)&1 == 1)
	}
	b2 = byteops.SetFlag(b2, 2, p.IsAuthoritative)
	b2 = byteops.SetFlag(b2, 1, p.IsTruncated)
	b2 = byteops.SetFlag(b2, 0, p.RecursionDesired)

	b3 = byteops.SetFlag(b3, 7, p.RecursionAvailable)
	b3 = byteops.SetFlag(b3, 6, false) // reserved, always zero on emit
	b3 = byteops.SetFlag(b3, 5, p.AuthenticData)
	b3 = byteops.SetFlag(b3, 4, p.CheckingDisabled)
	rcode := p.ResponseCode.RawValue()
	for bit := uint(0); bit < 4; bit++ {
		b3 = byteops.SetFlag(b3, bit, (rcode>>bit)&1 == 1)
	}

	buf[2] = b2
	buf[3] = b3

	if err := byteops.PutUint16(buf, 4, uint16(len(p.Questions))); err != nil {
		return nil, err
	}
	if err := byteops.PutUint16(buf, 6, uint16(len(p.Answers))); err != nil {
		return nil, err
	}
	if err := byteops.PutUint16(buf, 8, uint16(len(p.Authorities))); err != nil {
		return nil, err
	}
	if err := byteops.PutUint16(buf, 10, uint16(len(p.AdditionalRecords))); err != nil {
		return nil, err
	}

	var err error
	for _, q := range p.Questions {
		buf, err = encodeQuestion(buf, q)
		if err != nil {
			return nil, err
		}
	}
	for _, sections := range [][]Resource{p.Answers, p.Authorities, p.AdditionalRecords} {
		for _, r := range sections {
			buf, err = encodeResource(buf, r)
			if err != nil {
				return nil, err
			}
		}
	}

	return Packet(buf), nil
}

func encodeLabel(buf []byte, l Label) ([]byte, error) {
	if l.IsPointer() {
		buf = append(buf, 0xC0|l.PointerOffset(), 0x00)
		return buf, nil
	}
	for _, part := range l.parts() {
		if len(part) == 0 || len(part) > maxLabelLength {
			return nil, fmt.Errorf("encode label part %q: %w", part, ErrLabelPartTooLong)
		}
		buf = append(buf, byte(len(part)))
		buf = append(buf, part...)
	}
	buf = append(buf, 0x00)
	return buf, nil
}

func encodeQuestion(buf []byte, q Question) ([]byte, error) {
	buf, err := encodeLabel(buf, q.Label)
	if err != nil {
		return nil, err
	}
	buf = append(buf, 0, 0, 0, 0)
	n := len(buf)
	if err := byteops.PutUint16(buf, n-4, q.QType.RawValue()); err != nil {
		return nil, err
	}
	if err := byteops.PutUint16(buf, n-2, q.QClass.RawValue()); err != nil {
		return nil, err
	}
	return buf, nil
}

func encodeResource(buf []byte, r Resource) ([]byte, error) {
	buf, err := encodeLabel(buf, r.Label)
	if err != nil {
		return nil, err
	}
	head := make([]byte, 10)
	if err := byteops.PutUint16(head, 0, r.RType.RawValue()); err != nil {
		return nil, err
	}
	if err := byteops.PutUint16(head, 2, r.RClass.RawValue()); err != nil {
		return nil, err
	}
	if err := byteops.PutUint32(head, 4, r.TTL); err != nil {
		return nil, err
	}
	if err := byteops.PutUint16(head, 8, uint16(len(r.Data))); err != nil {
		return nil, err
	}
	buf = append(buf, head...)
	buf = append(buf, r.Data...)
	return buf, nil
}

// DecodePacket parses wire bytes into a DecomposedPacket. An over-long
// buffer is accepted and its tail ignored; an under-long buffer for the
// declared section counts fails.
func DecodePacket(pkt Packet) (*DecomposedPacket, error) {
	if !pkt.Valid() {
		return nil, ErrMessageTooShort
	}
	buf := []byte(pkt)

	p := &DecomposedPacket{}

	id, err := byteops.GetUint16(buf, 0)
	if err != nil {
		return nil, err
	}
	p.ID = id

	b2, b3 := buf[2], buf[3]
	p.IsResponse = byteops.GetFlag(b2, 7)
	var opcodeRaw uint8
	for bit := uint(0); bit < 4; bit++ {
		if byteops.GetFlag(b2, 3+bit) {
			opcodeRaw |= 1 << bit
		}
	}
	p.Opcode = DecodeOpcode(opcodeRaw)
	p.IsAuthoritative = byteops.GetFlag(b2, 2)
	p.IsTruncated = byteops.GetFlag(b2, 1)
	p.RecursionDesired = byteops.GetFlag(b2, 0)

	p.RecursionAvailable = byteops.GetFlag(b3, 7)
	p.AuthenticData = byteops.GetFlag(b3, 5)
	p.CheckingDisabled = byteops.GetFlag(b3, 4)
	var rcodeRaw uint8
	for bit := uint(0); bit < 4; bit++ {
		if byteops.GetFlag(b3, bit) {
			rcodeRaw |= 1 << bit
		}
	}
	p.ResponseCode = DecodeResponseCode(rcodeRaw)

	qdCount, _ := byteops.GetUint16(buf, 4)
	anCount, _ := byteops.GetUint16(buf, 6)
	nsCount, _ := byteops.GetUint16(buf, 8)
	arCount, _ := byteops.GetUint16(buf, 10)

	offset := headerSize
	var perr error

	p.Questions = make([]Question, 0, qdCount)
	for i := 0; i < int(qdCount); i++ {
		var q Question
		q, offset, perr = decodeQuestion(buf, offset)
		if perr != nil {
			return nil, fmt.Errorf("question %d: %w", i, perr)
		}
		p.Questions = append(p.Questions, q)
	}

	for _, dst := range []struct {
		count int
		sec   *[]Resource
	}{
		{int(anCount), &p.Answers},
		{int(nsCount), &p.Authorities},
		{int(arCount), &p.AdditionalRecords},
	} {
		*dst.sec = make([]Resource, 0, dst.count)
		for i := 0; i < dst.count; i++ {
			var r Resource
			r, offset, perr = decodeResource(buf, offset)
			if perr != nil {
				return nil, fmt.Errorf("resource %d: %w", i, perr)
			}
			*dst.sec = append(*dst.sec, r)
		}
	}

	return p, nil
}

func decodeQuestion(buf []byte, offset int) (Question, int, error) {
	label, offset, err := decodeLabel(buf, offset)
	if err != nil {
		return Question{}, 0, err
	}
	qtype, err := byteops.GetUint16(buf, offset)
	if err != nil {
		return Question{}, 0, ErrBufferTooShort
	}
	qclass, err := byteops.GetUint16(buf, offset+2)
	if err != nil {
		return Question{}, 0, ErrBufferTooShort
	}
	return Question{Label: label, QType: DecodeType(qtype), QClass: DecodeClass(qclass)}, offset + 4, nil
}

func decodeResource(buf []byte, offset int) (Resource, int, error) {
	label, offset, err := decodeLabel(buf, offset)
	if err != nil {
		return Resource{}, 0, err
	}
	if offset+10 > len(buf) {
		return Resource{}, 0, ErrBufferTooShort
	}
	rtype, _ := byteops.GetUint16(buf, offset)
	rclass, _ := byteops.GetUint16(buf, offset+2)
	ttl, _ := byteops.GetUint32(buf, offset+4)
	length, _ := byteops.GetUint16(buf, offset+8)
	offset += 10
	if offset+int(length) > len(buf) {
		return Resource{}, 0, ErrBufferTooShort
	}
	data := make([]byte, length)
	copy(data, buf[offset:offset+int(length)])
	offset += int(length)
	return Resource{
		Label:  label,
		RType:  DecodeType(rtype),
		RClass: DecodeClass(rclass),
		TTL:    ttl,
		Length: length,
		Data:   data,
	}, offset, nil
}

// decodeLabel reads one label starting at offset. A byte whose top two
// bits are set is the start of a compression pointer: its full 14-bit
// offset is followed recursively and the result is returned as a Domain
// label; decoding never yields a Pointer label. The return
// offset always points just past the two-byte pointer (or terminator) that
// began the label at the call site, never past a followed jump.
func decodeLabel(buf []byte, offset int) (Label, int, error) {
	if offset >= len(buf) {
		return Label{}, 0, ErrInvalidPointer
	}

	lead := buf[offset]
	if lead&0xC0 == 0xC0 {
		if offset+1 >= len(buf) {
			return Label{}, 0, ErrMessageTooShort
		}
		ptr16, _ := byteops.GetUint16(buf, offset)
		target := int(ptr16 & 0x3FFF)
		name, err := followPointerChain(buf, target, offset)
		if err != nil {
			return Label{}, 0, err
		}
		return Domain(name), offset + 2, nil
	}

	name, next, err := decodePlainName(buf, offset)
	if err != nil {
		return Label{}, 0, err
	}
	return Domain(name), next, nil
}

// decodePlainName reads a sequence of length-prefixed parts terminated by
// a zero byte, starting at offset. It does not itself follow pointers; a
// pointer encountered mid-sequence hands off to followPointerChain.
func decodePlainName(buf []byte, offset int) (string, int, error) {
	var parts []string
	for {
		if offset >= len(buf) {
			return "", 0, ErrInvalidPointer
		}
		length := int(buf[offset])
		if length&0xC0 == 0xC0 {
			if offset+1 >= len(buf) {
				return "", 0, ErrMessageTooShort
			}
			ptr16, _ := byteops.GetUint16(buf, offset)
			target := int(ptr16 & 0x3FFF)
			rest, err := followPointerChain(buf, target, offset)
			if err != nil {
				return "", 0, err
			}
			if rest != "" {
				parts = append(parts, rest)
			}
			return joinLabelParts(parts), offset + 2, nil
		}
		if length == 0 {
			return joinLabelParts(parts), offset + 1, nil
		}
		if length > maxLabelLength {
			return "", 0, fmt.Errorf("label part length %d: %w", length, ErrLabelPartTooLong)
		}
		offset++
		if offset+length > len(buf) {
			return "", 0, ErrBufferTooShort
		}
		parts = append(parts, string(buf[offset:offset+length]))
		offset += length
	}
}

func joinLabelParts(parts []string) string {
	result := ""
	for i, part := range parts {
		if i > 0 {
			result += "."
		}
		result += part
	}
	return result
}

// followPointerChain resolves a compression pointer chain starting at
// target, bounding both recursion depth and revisits of the same offset to
// defeat pointer loops.
func followPointerChain(buf []byte, target int, origin int) (string, error) {
	visited := map[int]bool{}
	depth := 0
	offset := target

	var allParts []string
	for {
		if depth > maxCompressionDepth {
			return "", ErrCompressionLoop
		}
		if offset < 0 || offset >= origin || offset >= len(buf) {
			return "", ErrInvalidPointer
		}
		if visited[offset] {
			return "", ErrCompressionLoop
		}
		visited[offset] = true

		length := int(buf[offset])
		if length&0xC0 == 0xC0 {
			if offset+1 >= len(buf) {
				return "", ErrMessageTooShort
			}
			ptr16, _ := byteops.GetUint16(buf, offset)
			next := int(ptr16 & 0x3FFF)
			depth++
			offset = next
			continue
		}
		if length == 0 {
			break
		}
		if length > maxLabelLength {
			return "", ErrLabelPartTooLong
		}
		offset++
		if offset+length > len(buf) {
			return "", ErrBufferTooShort
		}
		allParts = append(allParts, string(buf[offset:offset+length]))
		offset += length
	}

	return joinLabelParts(allParts), nil
}

// DecodeLabelAt decodes one label starting at offset within an isolated
// byte slice (such as a resource's RDATA). Compression pointers are resolved
// against buf itself, so only pointers back into the same slice succeed.
// Used by policy's authority-block recognizer.
func DecodeLabelAt(buf []byte, offset int) (Label, int, error) {
	return decodeLabel(buf, offset)
}
