// Package wire implements the framed byte-stream primitives of the
// PostgreSQL frontend/backend protocol, version 2.0.
package wire

// Backend and Frontend enumerate the single-byte message tags of protocol
// 2.0, as laid out at
// http://www.postgresql.org/docs/7.3/static/protocol-message-formats.html.
// Unlike v3, v2 messages carry no length header after their tag byte; only
// the untagged StartupPacket and CancelRequest begin with an int32 length.
// Several tags used here (K, I, P) were retired in v3.
type Backend byte
type Frontend byte

const (
	// Backend messages, received from the server.
	NotificationResponse Backend = 'A'
	CommandComplete       Backend = 'C'
	BinaryDataRow         Backend = 'B'
	DataRow               Backend = 'D'
	ErrorResponse         Backend = 'E'
	BackendKeyData        Backend = 'K'
	EmptyQueryResponse    Backend = 'I'
	Notice                Backend = 'N'
	CursorResponse        Backend = 'P'
	Authenticate          Backend = 'R'
	RowDescription        Backend = 'T'
	ReadyForQuery         Backend = 'Z'
)

const (
	// Frontend messages, sent to the server.
	Query           Frontend = 'Q'
	FunctionCall    Frontend = 'F'
	Terminate       Frontend = 'X'
	PasswordMessage Frontend = 'p'
)

// Authentication request codes carried in the int32 payload of an R message.
const (
	AuthOK     = 0
	AuthKerberosV4 = 1
	AuthKerberosV5 = 2
	AuthCleartext  = 3
	AuthCrypt      = 4
	AuthMD5        = 5
)

// CancelRequestCode is the fixed magic value identifying a CancelRequest
// packet on a fresh connection (section 4.2 "Cancelling Requests in
// Progress" of the v2 protocol docs).
const CancelRequestCode = 80877102
