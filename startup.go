package pgv2

import (
	"strings"

	"github.com/corwinharper/pgv2/wire"
)

// postStartupResult carries what PostStartup learns out to ConnectionFacade.
type postStartupResult struct {
	backendPID      int32
	cancellationKey int32
}

// runPostStartup implements SPEC_FULL.md §4.3: consume BackendKeyData,
// NoticeResponse, and ReadyForQuery, then run the bootstrap query and seed
// SessionState's version/encoding/autocommit fields from it.
func runPostStartup(stream *wire.ByteStream, session *SessionState, encodingOverride string) (*postStartupResult, error) {
	result := &postStartupResult{}

	for {
		tag, err := stream.RecvChar()
		if err != nil {
			return nil, wrapError(KindIO, err, "reading post-startup message")
		}
		switch wire.Backend(tag) {
		case wire.BackendKeyData:
			pid, perr := stream.RecvInt32()
			if perr != nil {
				return nil, wrapError(KindIO, perr, "reading backend pid")
			}
			key, kerr := stream.RecvInt32()
			if kerr != nil {
				return nil, wrapError(KindIO, kerr, "reading cancellation key")
			}
			result.backendPID = pid
			result.cancellationKey = key
		case wire.Notice:
			msg, nerr := stream.RecvCString(session.encoding)
			if nerr != nil {
				return nil, wrapError(KindIO, nerr, "reading startup notice")
			}
			session.appendWarning(msg)
		case wire.ErrorResponse:
			msg, eerr := stream.RecvCString(session.encoding)
			if eerr != nil {
				return nil, wrapError(KindIO, eerr, "reading startup error")
			}
			return nil, newError(KindProtocol, "startup failed: %s", msg)
		case wire.ReadyForQuery:
			goto bootstrapped
		default:
			return nil, newError(KindProtocol, "unexpected tag %q during startup", tag)
		}
	}

bootstrapped:
	exec := newQueryExecutor(stream, session, nil, session.log)

	const encExpr = "case when pg_encoding_to_char(1) = '' then 'UNKNOWN' else getdatabaseencoding() end"
	res, err := exec.runSQL("set datestyle to 'ISO'; select version(), " + encExpr + ";")
	if err != nil {
		return nil, err
	}
	if len(res.Tuples) == 0 || len(res.Tuples[0].Values) < 2 {
		return nil, newError(KindProtocol, "bootstrap query returned no row")
	}

	versionCol := string(res.Tuples[0].Values[0])
	fields := strings.Fields(versionCol)
	if len(fields) < 2 {
		return nil, newError(KindProtocol, "unparseable version() output %q", versionCol)
	}
	session.versionText = fields[1]
	v, verr := ParseVersion(fields[1])
	if verr != nil {
		return nil, wrapError(KindProtocol, verr, "parsing server_version")
	}
	session.version = v

	encCol := string(res.Tuples[0].Values[1])
	if encodingOverride != "" {
		encCol = encodingOverride
	}
	session.encoding = encodingFromName(encCol)

	if v.AtLeast(7, 3) {
		autoRes, aerr := exec.runSQL("set client_encoding = 'UNICODE'; show autocommit")
		if aerr != nil {
			return nil, aerr
		}
		session.encoding = wire.UTF8
		autocommitOff := false
		if len(autoRes.Tuples) > 0 && len(autoRes.Tuples[0].Values) > 0 {
			autocommitOff = strings.Contains(strings.ToLower(string(autoRes.Tuples[0].Values[0])), "off")
		} else if len(session.warnings) > 0 {
			autocommitOff = strings.Contains(strings.ToLower(session.warnings[len(session.warnings)-1].Message), "off")
		}
		if autocommitOff {
			if _, err := exec.runSQL("set autocommit = on; commit;"); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// encodingFromName maps a getdatabaseencoding() result to the wire.Encoding
// this core actually distinguishes (single-byte default vs UTF-8); any
// other named multibyte encoding degrades to Default since this core does
// not implement a general iconv layer (SPEC_FULL.md §1, type coercion is
// out of scope beyond OID classification).
func encodingFromName(name string) wire.Encoding {
	switch strings.ToUpper(name) {
	case "UNICODE", "UTF8", "UTF-8":
		return wire.UTF8
	default:
		return wire.Default
	}
}
