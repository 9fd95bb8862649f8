package pgv2

import (
	"strings"

	"github.com/corwinharper/pgv2/oid"
	"github.com/corwinharper/pgv2/wire"
)

// IsolationLevel enumerates the transaction isolation levels SessionState
// tracks. Only READ_COMMITTED and SERIALIZABLE are ever accepted by
// SetTransactionIsolation (SPEC_FULL.md §4.5); the other two are recognized
// so getTransactionIsolation can classify whatever a server actually reports.
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
	RepeatableRead
	Serializable
)

func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "READ UNCOMMITTED"
	case ReadCommitted:
		return "READ COMMITTED"
	case RepeatableRead:
		return "REPEATABLE READ"
	case Serializable:
		return "SERIALIZABLE"
	default:
		return "READ COMMITTED"
	}
}

// classifyIsolation matches a server's free-text isolation level report
// against the four known substrings, defaulting to ReadCommitted per
// SPEC_FULL.md §4.5.
func classifyIsolation(text string) IsolationLevel {
	switch {
	case strings.Contains(text, "READ UNCOMMITTED"):
		return ReadUncommitted
	case strings.Contains(text, "REPEATABLE READ"):
		return RepeatableRead
	case strings.Contains(text, "SERIALIZABLE"):
		return Serializable
	case strings.Contains(text, "READ COMMITTED"):
		return ReadCommitted
	default:
		return ReadCommitted
	}
}

// sqlRunner is the narrow slice of QueryExecutor that SessionState needs to
// issue the SQL it generates for autocommit/isolation/type-cache bookkeeping.
// Keeping this as an interface (rather than a direct *QueryExecutor field)
// lets session_test.go exercise SessionState against a stub instead of a
// full ByteStream round trip.
type sqlRunner interface {
	runSQL(sql string) (*Result, error)
}

// SessionState is the mutable, per-connection state named in SPEC_FULL.md
// §3. The three type caches are package-level (globalTypeCache) because
// they are process-wide per invariant 5; everything else here is owned
// exclusively by one Connection.
type SessionState struct {
	autocommit  bool
	readOnly    bool
	isolation   IsolationLevel
	version     Version
	versionText string
	encoding    wire.Encoding
	compatible  string

	warnings      []Warning
	notifications []Notification

	registry   *typeRegistry
	cursorName string

	// txFailed mirrors gregb-pq's txnStatusInFailedTransaction: set once a
	// SQLError arrives while a transaction is open, so Commit refuses to
	// pretend success instead of sending a COMMIT the server would reject.
	txFailed bool

	runner sqlRunner
	log    Logger
}

func newSessionState(runner sqlRunner, log Logger) *SessionState {
	if log == nil {
		log = nopLogger{}
	}
	return &SessionState{
		autocommit: true,
		isolation:  ReadCommitted,
		encoding:   wire.Default,
		registry:   newTypeRegistry(),
		runner:     runner,
		log:        log,
	}
}

// markTxFailed records that a SQLError arrived while a transaction was open.
// Connection.Execute calls this so a later Commit detects the failure
// instead of issuing a COMMIT the server would reject.
func (s *SessionState) markTxFailed() {
	if !s.autocommit {
		s.txFailed = true
	}
}

func (s *SessionState) appendWarning(msg string) {
	s.warnings = append(s.warnings, Warning{Message: msg})
}

func (s *SessionState) appendNotification(pid int32, relname string) {
	s.notifications = append(s.notifications, Notification{BackendPid: pid, RelName: relname})
}

// GetWarnings returns the warning chain collected since the last ClearWarnings.
func (s *SessionState) GetWarnings() []Warning {
	return s.warnings
}

// ClearWarnings empties the warning chain (invariant 3: draining empties it).
func (s *SessionState) ClearWarnings() {
	s.warnings = nil
}

// GetNotifications drains and returns all pending notifications.
func (s *SessionState) GetNotifications() []Notification {
	n := s.notifications
	s.notifications = nil
	return n
}

func (s *SessionState) isolationSQL() string {
	if s.isolation == ReadCommitted {
		return ""
	}
	return "set session characteristics as transaction isolation level " + s.isolation.String() + ";"
}

// SetAutoCommit implements SPEC_FULL.md §4.5. A no-op when new == current
// (property tested in §8: the second identical call issues no wire traffic).
func (s *SessionState) SetAutoCommit(new bool) error {
	if new == s.autocommit {
		return nil
	}
	if new {
		if s.txFailed {
			if err := s.Rollback(); err != nil {
				return err
			}
		}
		if s.version.AtLeast(7, 3) {
			// 7.3 needs a transaction open before the commit below is
			// meaningful, hence the preliminary select.
			if _, err := s.runner.runSQL("select 1;"); err != nil {
				return err
			}
			if _, err := s.runner.runSQL("commit; set autocommit = on;"); err != nil {
				return err
			}
		} else {
			if _, err := s.runner.runSQL("end"); err != nil {
				return err
			}
		}
	} else {
		switch {
		case s.version.AtLeast(7, 3):
			sql := "set autocommit = off;" + s.isolationSQL()
			if _, err := s.runner.runSQL(sql); err != nil {
				return err
			}
		case s.version.AtLeast(7, 1):
			sql := "begin;" + s.isolationSQL()
			if _, err := s.runner.runSQL(sql); err != nil {
				return err
			}
		default:
			if _, err := s.runner.runSQL("begin"); err != nil {
				return err
			}
			if iso := s.isolationSQL(); iso != "" {
				if _, err := s.runner.runSQL(iso); err != nil {
					return err
				}
			}
		}
	}
	s.autocommit = new
	return nil
}

// Commit implements SPEC_FULL.md §4.5. No-op while autocommit is on. A
// transaction a prior query aborted is rolled back instead of committed,
// mirroring gregb-pq's ErrInFailedTransaction handling: the caller asked to
// commit, but there is nothing left to commit.
func (s *SessionState) Commit() error {
	if s.autocommit {
		return nil
	}
	if s.txFailed {
		if err := s.Rollback(); err != nil {
			return err
		}
		return ErrInFailedTransaction
	}
	switch {
	case s.version.AtLeast(7, 3):
		_, err := s.runner.runSQL("commit;")
		return err
	case s.version.AtLeast(7, 1):
		_, err := s.runner.runSQL("commit;begin;" + s.isolationSQL())
		return err
	default:
		if _, err := s.runner.runSQL("commit"); err != nil {
			return err
		}
		if _, err := s.runner.runSQL("begin"); err != nil {
			return err
		}
		if iso := s.isolationSQL(); iso != "" {
			_, err := s.runner.runSQL(iso)
			return err
		}
		return nil
	}
}

// Rollback mirrors Commit with "rollback" in place of "commit". Clears
// txFailed unconditionally on success: rolling back a failed transaction is
// always a legal way to clear it.
func (s *SessionState) Rollback() error {
	if s.autocommit {
		return nil
	}
	switch {
	case s.version.AtLeast(7, 3):
		_, err := s.runner.runSQL("rollback;")
		if err == nil {
			s.txFailed = false
		}
		return err
	case s.version.AtLeast(7, 1):
		_, err := s.runner.runSQL("rollback;begin;" + s.isolationSQL())
		if err == nil {
			s.txFailed = false
		}
		return err
	default:
		if _, err := s.runner.runSQL("rollback"); err != nil {
			return err
		}
		if _, err := s.runner.runSQL("begin"); err != nil {
			return err
		}
		s.txFailed = false
		if iso := s.isolationSQL(); iso != "" {
			_, err := s.runner.runSQL(iso)
			return err
		}
		return nil
	}
}

// SetTransactionIsolation implements SPEC_FULL.md §4.5. Only READ COMMITTED
// and SERIALIZABLE are accepted, whatever the server version; anything else
// is InvalidArg. Per the open question in §9, the field is
// only written after the SET has actually returned Ready, so a failed SET
// never desynchronizes isolation from the server.
func (s *SessionState) SetTransactionIsolation(level IsolationLevel) error {
	if level != ReadCommitted && level != Serializable {
		return newError(KindInvalidArg, "unsupported transaction isolation level %q", level)
	}
	if s.version.AtLeast(7, 1) {
		sql := "SET SESSION CHARACTERISTICS AS TRANSACTION ISOLATION LEVEL " + level.String()
		if _, err := s.runner.runSQL(sql); err != nil {
			return err
		}
	}
	s.isolation = level
	return nil
}

// GetTransactionIsolation implements SPEC_FULL.md §4.5.
func (s *SessionState) GetTransactionIsolation() (IsolationLevel, error) {
	res, err := s.runner.runSQL("show transaction isolation level")
	if err != nil {
		return s.isolation, err
	}
	text := ""
	if res != nil && len(res.Tuples) > 0 && len(res.Tuples[0].Values) > 0 {
		text = string(res.Tuples[0].Values[0])
	} else if len(s.warnings) > 0 {
		// Pre-7.3 servers report the level only via the NOTICE the SHOW
		// emits, not as a row.
		text = s.warnings[len(s.warnings)-1].Message
	}
	level := classifyIsolation(strings.ToUpper(text))
	s.isolation = level
	return level, nil
}

// GetSQLType implements SPEC_FULL.md §4.5: consult the process-wide cache,
// and on miss resolve typname via pg_type and populate it.
func (s *SessionState) GetSQLType(o oid.Oid) (oid.SQLType, error) {
	if _, sqlType, ok := globalTypeCache.lookupByOid(o); ok {
		return sqlType, nil
	}
	table := "pg_type"
	if s.version.AtLeast(7, 3) {
		table = "pg_catalog.pg_type"
	}
	sql := "select typname from " + table + " where oid = " + o.String()
	res, err := s.runner.runSQL(sql)
	if err != nil {
		return oid.OTHER, err
	}
	if res == nil || len(res.Tuples) == 0 || len(res.Tuples[0].Values) == 0 {
		return oid.OTHER, newError(KindProtocol, "no pg_type row for oid %d", o)
	}
	typname := string(res.Tuples[0].Values[0])
	return globalTypeCache.store(o, typname), nil
}
