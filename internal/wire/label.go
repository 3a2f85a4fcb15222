package wire

import "strings"

// Label is one domain-name component on the wire: either a literal Domain
// or a compression Pointer into the enclosing message.
//
// Only the low 6 bits of a compression pointer are modeled when emitting a
// Pointer directly (matching the legacy two-byte form); decoding a label
// resolves the full 14-bit pointer recursively (see decodeLabel).
type Label struct {
	isPointer bool
	domain    string
	pointer   uint8
}

// Domain constructs a literal domain-name label, e.g. "www.example.com".
func Domain(name string) Label {
	return Label{domain: name}
}

// Pointer constructs a 6-bit compression-pointer label.
func Pointer(offset uint8) Label {
	return Label{isPointer: true, pointer: offset & 0x3F}
}

// IsPointer reports whether this label is a compression pointer.
func (l Label) IsPointer() bool { return l.isPointer }

// Text returns the dotted domain name. Only meaningful when !IsPointer().
func (l Label) Text() string { return l.domain }

// PointerOffset returns the low 6-bit pointer value. Only meaningful when IsPointer().
func (l Label) PointerOffset() uint8 { return l.pointer }

func (l Label) String() string {
	if l.isPointer {
		return "<pointer>"
	}
	if l.domain == "" {
		return "."
	}
	return l.domain
}

// parts splits a Domain label into its dot-separated components, dropping
// any trailing empty component left by a terminating dot.
func (l Label) parts() []string {
	if l.domain == "" {
		return nil
	}
	parts := strings.Split(l.domain, ".")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
