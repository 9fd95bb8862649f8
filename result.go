package pgv2

import (
	"strconv"
	"strings"

	"github.com/corwinharper/pgv2/oid"
)

// ResultKind tags the shape of a Result, per the Data Model in
// SPEC_FULL.md §3: Rows / UpdateCount / Empty / CursorRef. A tagged
// variant keeps callers from having to guess which fields are meaningful,
// the way the design notes ask for the type-handler registry (§9) to
// replace a reflectively-typed union.
type ResultKind int

const (
	ResultRows ResultKind = iota
	ResultUpdateCount
	ResultEmpty
	ResultCursorRef
)

// Field describes one column of a RowDescription.
type Field struct {
	Name     string
	Oid      oid.Oid
	Size     int16
	Modifier int32
}

// Tuple is one row: raw, undecoded wire payloads, one per field. A nil
// entry means the field was NULL. Decoding these bytes into host-language
// values is out of scope for the core (SPEC_FULL.md §1).
type Tuple struct {
	Values [][]byte
}

// Result is the outcome of one Query execution.
type Result struct {
	Kind ResultKind

	// Status is the raw CommandComplete status string ("SELECT",
	// "INSERT 0 1", "UPDATE 3", ...), always populated except for Empty.
	Status string

	// Populated when Kind == ResultRows.
	Fields []Field
	Tuples []Tuple
	Binary bool

	// Populated when Kind == ResultUpdateCount.
	UpdateCount int64
	InsertOid   uint32
	HasOid      bool

	// Populated when Kind == ResultCursorRef.
	CursorName string
}

// parseCommandComplete parses a CommandComplete status string into an
// update count and, for INSERT, the inserted row's OID. Any command tag
// not named in SPEC_FULL.md §4.4 yields an update count of -1, matching
// the "any other status yields update count -1" rule.
func parseCommandComplete(status string) (count int64, insertOid uint32, hasOid bool) {
	fields := strings.Fields(status)
	if len(fields) == 0 {
		return -1, 0, false
	}

	switch fields[0] {
	case "INSERT":
		if len(fields) != 3 {
			return -1, 0, false
		}
		o, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return -1, 0, false
		}
		n, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return -1, 0, false
		}
		// "0 means no OID" (SPEC_FULL.md §4.4).
		return n, uint32(o), o != 0
	case "UPDATE", "DELETE", "MOVE", "FETCH":
		if len(fields) != 2 {
			return -1, 0, false
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return -1, 0, false
		}
		return n, 0, false
	default:
		return -1, 0, false
	}
}

// Warning is an informational NoticeResponse collected during a query.
type Warning struct {
	Message string
}

// Notification is a NotificationResponse: an asynchronous NOTIFY delivered
// in-band while a query was running.
type Notification struct {
	BackendPid int32
	RelName    string
}
