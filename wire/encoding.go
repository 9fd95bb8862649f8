package wire

import (
	"golang.org/x/text/encoding/charmap"
)

// Encoding identifies the character set C-strings on the wire should be
// decoded with. The spec's design notes call this out explicitly: the
// client encoding changes mid-handshake (the bootstrap query switches a
// >=7.3 server to UTF-8), so every recv_cstring call takes its encoding as
// an explicit argument rather than reading it from connection-wide state.
// This keeps a stale ambient encoding from silently mis-decoding a
// C-string read before the switch took effect.
type Encoding int

const (
	// Default is the pre-negotiation encoding: SQL_ASCII-ish single-byte
	// text. We decode it as Latin-1, which is a superset of ASCII and
	// round-trips any byte value, rather than rejecting non-ASCII bytes
	// the server might still send before client_encoding is set.
	Default Encoding = iota
	// UTF8 is used once negotiation (the bootstrap query, or an explicit
	// "UNICODE" server encoding) has switched the session over.
	UTF8
)

// Decode converts raw wire bytes (already split on a 0 terminator, if this
// was a C-string) into a Go string under the given encoding.
func (e Encoding) Decode(b []byte) string {
	if e == UTF8 {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// Latin-1 has no invalid byte sequences; this should not happen.
		return string(b)
	}
	return string(out)
}

// Encode converts a Go string back into wire bytes under the given
// encoding, for outbound C-strings (e.g. the text of a Query message).
func (e Encoding) Encode(s string) []byte {
	if e == UTF8 {
		return []byte(s)
	}
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

func (e Encoding) String() string {
	if e == UTF8 {
		return "UTF8"
	}
	return "SQL_ASCII"
}
