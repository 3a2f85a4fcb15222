package wire

import "fmt"

// Type is a DNS resource record type (RFC 1035 §3.2.2).
type Type uint16

// Named record types used by this resolver. Any other wire value decodes
// to TypeUnknown carrying the raw value, rather than being silently
// reinterpreted as one of these.
const (
	TypeA     Type = 1
	TypeNS    Type = 2
	TypeCNAME Type = 5
	TypeSOA   Type = 6
	TypePTR   Type = 12
	TypeMX    Type = 15
	TypeTXT   Type = 16
	TypeAAAA  Type = 28
)

// TypeUnknown returns the Type carrying raw as an explicit unknown value.
// The full 16-bit wire range is already spanned by Type itself, so unlike
// Opcode/ResponseCode (4-bit fields with unused high-bit headroom) there is
// nowhere to stash a marker bit without colliding with another raw value;
// the raw value is carried as-is, and IsUnknown reports whether it names
// one of the constants above instead of testing a tag bit.
func TypeUnknown(raw uint16) Type {
	return Type(raw)
}

func (t Type) IsUnknown() bool {
	switch t {
	case TypeA, TypeNS, TypeCNAME, TypeSOA, TypePTR, TypeMX, TypeTXT, TypeAAAA:
		return false
	default:
		return true
	}
}

// RawValue returns the wire-form 16-bit value this Type was decoded from.
func (t Type) RawValue() uint16 {
	return uint16(t)
}

func (t Type) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeNS:
		return "NS"
	case TypeCNAME:
		return "CNAME"
	case TypeSOA:
		return "SOA"
	case TypePTR:
		return "PTR"
	case TypeMX:
		return "MX"
	case TypeTXT:
		return "TXT"
	case TypeAAAA:
		return "AAAA"
	default:
		return fmt.Sprintf("TYPE%d", t.RawValue())
	}
}

// DecodeType maps a wire value to a named Type, or to an explicit unknown
// carrier when the value names nothing this resolver recognizes.
func DecodeType(raw uint16) Type {
	switch Type(raw) {
	case TypeA, TypeNS, TypeCNAME, TypeSOA, TypePTR, TypeMX, TypeTXT, TypeAAAA:
		return Type(raw)
	default:
		return TypeUnknown(raw)
	}
}

// Class is a DNS resource record class (RFC 1035 §3.2.4).
type Class uint16

const (
	ClassIN Class = 1
	ClassCH Class = 3
	ClassHS Class = 4
)

// ClassUnknown returns the Class carrying raw as an explicit unknown value.
// Same reasoning as TypeUnknown: Class spans the full 16-bit range, so the
// raw value is carried as-is rather than tagged with a marker bit.
func ClassUnknown(raw uint16) Class {
	return Class(raw)
}

func (c Class) IsUnknown() bool {
	switch c {
	case ClassIN, ClassCH, ClassHS:
		return false
	default:
		return true
	}
}

// RawValue returns the wire-form 16-bit value this Class was decoded from.
func (c Class) RawValue() uint16 {
	return uint16(c)
}

func (c Class) String() string {
	switch c {
	case ClassIN:
		return "IN"
	case ClassCH:
		return "CH"
	case ClassHS:
		return "HS"
	default:
		return fmt.Sprintf("CLASS%d", c.RawValue())
	}
}

// DecodeClass maps a wire value to a named Class, or to an explicit unknown
// carrier when the value names nothing this resolver recognizes.
func DecodeClass(raw uint16) Class {
	switch Class(raw) {
	case ClassIN, ClassCH, ClassHS:
		return Class(raw)
	default:
		return ClassUnknown(raw)
	}
}

// Opcode is the 4-bit request-kind field of the DNS header.
type Opcode uint8

const (
	OpcodeQuery  Opcode = 0
	OpcodeIQuery Opcode = 1
	OpcodeStatus Opcode = 2
	OpcodeNotify Opcode = 4
	OpcodeUpdate Opcode = 5
)

// OpcodeUnassigned is a sentinel Opcode outside the named set. DecodeOpcode
// does not return it: an unnamed wire value decodes through
// OpcodeUnassignedValue, which keeps the raw bits.
const OpcodeUnassigned Opcode = 0xFF

func DecodeOpcode(raw uint8) Opcode {
	switch Opcode(raw) {
	case OpcodeQuery, OpcodeIQuery, OpcodeStatus, OpcodeNotify, OpcodeUpdate:
		return Opcode(raw)
	default:
		return OpcodeUnassignedValue(raw)
	}
}

// OpcodeUnassignedValue is an Opcode representing a 4-bit value not among
// the named constants, still carrying the raw bits for diagnostics.
func OpcodeUnassignedValue(raw uint8) Opcode {
	// Encode distinctly from named opcodes (0..15 range) by setting the
	// unused high bit, while keeping the low nibble intact.
	return Opcode(0x80 | (raw & 0x0F))
}

func (o Opcode) RawValue() uint8 {
	return uint8(o) & 0x0F
}

func (o Opcode) String() string {
	switch o {
	case OpcodeQuery:
		return "QUERY"
	case OpcodeIQuery:
		return "IQUERY"
	case OpcodeStatus:
		return "STATUS"
	case OpcodeNotify:
		return "NOTIFY"
	case OpcodeUpdate:
		return "UPDATE"
	default:
		return fmt.Sprintf("OPCODE%d", o.RawValue())
	}
}

// ResponseCode is the 4-bit result field of the DNS header (RCODE).
type ResponseCode uint8

const (
	NoError  ResponseCode = 0
	FormErr  ResponseCode = 1
	ServFail ResponseCode = 2
	NXDomain ResponseCode = 3
	NotImp   ResponseCode = 4
	Refused  ResponseCode = 5
)

func DecodeResponseCode(raw uint8) ResponseCode {
	switch ResponseCode(raw) {
	case NoError, FormErr, ServFail, NXDomain, NotImp, Refused:
		return ResponseCode(raw)
	default:
		return ResponseCode(0x80 | (raw & 0x0F))
	}
}

func (r ResponseCode) RawValue() uint8 {
	return uint8(r) & 0x0F
}

func (r ResponseCode) String() string {
	switch r {
	case NoError:
		return "NoError"
	case FormErr:
		return "FormErr"
	case ServFail:
		return "ServFail"
	case NXDomain:
		return "NXDomain"
	case NotImp:
		return "NotImp"
	case Refused:
		return "Refused"
	default:
		return fmt.Sprintf("Unassigned(%d)", r.RawValue())
	}
}
