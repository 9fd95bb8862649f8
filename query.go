package pgv2

import (
	"github.com/corwinharper/pgv2/oid"
	"github.com/corwinharper/pgv2/wire"
)

// queryState is the internal message-loop state from SPEC_FULL.md §4.4.
type queryState int

const (
	qsIdle queryState = iota
	qsReceiving
	qsWaitReady
)

// QueryExecutor drives one Query message to completion: send, then read
// every response message until ReadyForQuery, assembling a Result. Per
// invariant 2, at most one QueryExecutor is ever active on a Connection.
// Neither this type nor Connection enforces that: Connection takes no lock,
// so concurrent calls on one Connection are not serialized.
type QueryExecutor struct {
	stream  *wire.ByteStream
	session *SessionState
	metrics *Metrics
	log     Logger
}

func newQueryExecutor(stream *wire.ByteStream, session *SessionState, metrics *Metrics, log Logger) *QueryExecutor {
	if log == nil {
		log = nopLogger{}
	}
	return &QueryExecutor{stream: stream, session: session, metrics: metrics, log: log}
}

// runSQL sends sql as a Query message and assembles its Result. It
// satisfies the sqlRunner interface SessionState needs for its own
// generated SQL (autocommit toggling, isolation SETs, type lookups).
func (q *QueryExecutor) runSQL(sql string) (*Result, error) {
	q.log.Debugf("query: %s", sql)
	if err := q.stream.SendChar(byte(wire.Query)); err != nil {
		return nil, wrapError(KindIO, err, "sending query tag")
	}
	if err := q.stream.SendCString(sql, q.session.encoding); err != nil {
		return nil, wrapError(KindIO, err, "sending query text")
	}
	if err := q.stream.Flush(); err != nil {
		return nil, wrapError(KindIO, err, "flushing query")
	}
	return q.loop()
}

func (q *QueryExecutor) loop() (*Result, error) {
	state := qsIdle
	res := &Result{Kind: ResultEmpty}
	var sqlErr error
	var cursorName string
	haveFields := false

	for {
		tag, err := q.stream.RecvChar()
		if err != nil {
			return nil, wrapError(KindIO, err, "reading query response")
		}

		switch wire.Backend(tag) {
		case wire.RowDescription:
			if state != qsIdle {
				return nil, newError(KindProtocol, "unexpected RowDescription in state %d", state)
			}
			fields, ferr := q.readRowDescription()
			if ferr != nil {
				return nil, ferr
			}
			res.Fields = fields
			haveFields = true
			state = qsReceiving

		case wire.DataRow:
			if state != qsReceiving {
				return nil, newError(KindProtocol, "unexpected DataRow in state %d", state)
			}
			tup, terr := q.readTuple(q.session.encoding, false)
			if terr != nil {
				return nil, terr
			}
			res.Tuples = append(res.Tuples, tup)

		case wire.BinaryDataRow:
			if state != qsReceiving {
				return nil, newError(KindProtocol, "unexpected BinaryDataRow in state %d", state)
			}
			tup, terr := q.readTuple(q.session.encoding, true)
			if terr != nil {
				return nil, terr
			}
			res.Tuples = append(res.Tuples, tup)
			res.Binary = true

		case wire.CommandComplete:
			status, cerr := q.stream.RecvCString(q.session.encoding)
			if cerr != nil {
				return nil, wrapError(KindIO, cerr, "reading command complete status")
			}
			res.Status = status
			q.finalize(res, status, cursorName, haveFields)
			state = qsWaitReady

		case wire.EmptyQueryResponse:
			res.Kind = ResultEmpty
			state = qsWaitReady

		case wire.ErrorResponse:
			msg, eerr := q.stream.RecvCString(q.session.encoding)
			if eerr != nil {
				return nil, wrapError(KindIO, eerr, "reading error response")
			}
			sqlErr = newError(KindSQL, "%s", msg)
			state = qsWaitReady

		case wire.Notice:
			msg, nerr := q.stream.RecvCString(q.session.encoding)
			if nerr != nil {
				return nil, wrapError(KindIO, nerr, "reading notice")
			}
			q.session.appendWarning(msg)
			q.metrics.observeWarning()

		case wire.NotificationResponse:
			pid, perr := q.stream.RecvInt32()
			if perr != nil {
				return nil, wrapError(KindIO, perr, "reading notification pid")
			}
			relname, nerr := q.stream.RecvCString(q.session.encoding)
			if nerr != nil {
				return nil, wrapError(KindIO, nerr, "reading notification relname")
			}
			q.session.appendNotification(pid, relname)
			q.metrics.observeNotification()

		case wire.CursorResponse:
			name, perr := q.stream.RecvCString(q.session.encoding)
			if perr != nil {
				return nil, wrapError(KindIO, perr, "reading cursor name")
			}
			cursorName = name

		case wire.ReadyForQuery:
			if state != qsWaitReady {
				return nil, newError(KindProtocol, "unexpected ReadyForQuery in state %d", state)
			}
			if sqlErr != nil {
				return res, sqlErr
			}
			return res, nil

		default:
			return nil, newError(KindProtocol, "unexpected tag %q in query loop", tag)
		}
	}
}

// finalize classifies the just-completed command per SPEC_FULL.md §4.4: a
// pending cursor name (from a prior P message) always wins, then
// recognized update-count tags, then everything else falls through to Rows
// (possibly empty, matching scenario 5's no-rows SELECT).
func (q *QueryExecutor) finalize(res *Result, status, cursorName string, haveFields bool) {
	if cursorName != "" {
		res.Kind = ResultCursorRef
		res.CursorName = cursorName
		return
	}
	count, insertOid, hasOid := parseCommandComplete(status)
	if isUpdateCountTag(status) {
		res.Kind = ResultUpdateCount
		res.UpdateCount = count
		res.InsertOid = insertOid
		res.HasOid = hasOid
		return
	}
	res.Kind = ResultRows
	if !haveFields {
		res.Fields = nil
		res.Tuples = nil
	}
}

func isUpdateCountTag(status string) bool {
	for _, prefix := range []string{"INSERT ", "UPDATE ", "DELETE ", "MOVE ", "FETCH "} {
		if len(status) >= len(prefix) && status[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func (q *QueryExecutor) readRowDescription() ([]Field, error) {
	n, err := q.stream.RecvInt16()
	if err != nil {
		return nil, wrapError(KindIO, err, "reading field count")
	}
	fields := make([]Field, 0, n)
	for i := int16(0); i < n; i++ {
		name, nerr := q.stream.RecvCString(q.session.encoding)
		if nerr != nil {
			return nil, wrapError(KindIO, nerr, "reading field name")
		}
		o, oerr := q.stream.RecvInt32()
		if oerr != nil {
			return nil, wrapError(KindIO, oerr, "reading field oid")
		}
		size, serr := q.stream.RecvInt16()
		if serr != nil {
			return nil, wrapError(KindIO, serr, "reading field size")
		}
		mod, merr := q.stream.RecvInt32()
		if merr != nil {
			return nil, wrapError(KindIO, merr, "reading field modifier")
		}
		fields = append(fields, Field{Name: name, Oid: oid.Oid(o), Size: size, Modifier: mod})
	}
	return fields, nil
}

// readTuple reads one D or B message body: an int16 field count, a packed
// null bitmap (MSB-first, set bit = non-null), then one length-prefixed
// payload per non-null field.
func (q *QueryExecutor) readTuple(enc wire.Encoding, binary bool) (Tuple, error) {
	n, err := q.stream.RecvInt16()
	if err != nil {
		return Tuple{}, wrapError(KindIO, err, "reading tuple field count")
	}
	bitmapLen := (int(n) + 7) / 8
	bitmap, err := q.stream.RecvExact(bitmapLen)
	if err != nil {
		return Tuple{}, wrapError(KindIO, err, "reading tuple null bitmap")
	}
	nonNull := decodeNullBitmap(bitmap, int(n))
	values := make([][]byte, n)
	for i := int16(0); i < n; i++ {
		if !nonNull[i] {
			values[i] = nil
			continue
		}
		length, lerr := q.stream.RecvInt32()
		if lerr != nil {
			return Tuple{}, wrapError(KindIO, lerr, "reading field length")
		}
		payload, perr := q.stream.RecvExact(int(length) - 4)
		if perr != nil {
			return Tuple{}, wrapError(KindIO, perr, "reading field payload")
		}
		if !binary {
			payload = []byte(enc.Decode(payload))
		}
		values[i] = payload
	}
	return Tuple{Values: values}, nil
}
