package pgv2

import (
	"sync/atomic"
	"testing"

	"github.com/corwinharper/pgv2/oid"
)

var testOidCounter int64 = 100000

// typeCacheTestOid returns a fresh OID on every call so tests against the
// process-wide globalTypeCache don't collide with each other.
func typeCacheTestOid() oid.Oid {
	return oid.Oid(atomic.AddInt64(&testOidCounter, 1))
}

// recordingRunner stubs sqlRunner, recording every SQL string it was asked
// to run so SessionState's autocommit/isolation logic can be tested
// without a real ByteStream.
type recordingRunner struct {
	sql     []string
	results []*Result
	err     error
}

func (r *recordingRunner) runSQL(sql string) (*Result, error) {
	r.sql = append(r.sql, sql)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.results) > 0 {
		res := r.results[0]
		r.results = r.results[1:]
		return res, nil
	}
	return &Result{Kind: ResultEmpty}, nil
}

func newTestSession(version Version) (*SessionState, *recordingRunner) {
	runner := &recordingRunner{}
	s := newSessionState(runner, nil)
	s.version = version
	return s, runner
}

// TestSetAutoCommitNoOp is the no-op property from SPEC_FULL.md §8: calling
// setAutoCommit(x) twice in a row issues no wire traffic the second time.
func TestSetAutoCommitNoOp(t *testing.T) {
	s, runner := newTestSession(Version{9, 3, 0})

	if err := s.SetAutoCommit(true); err != nil {
		t.Fatal(err)
	}
	if len(runner.sql) != 0 {
		t.Errorf("first SetAutoCommit(true) with autocommit already true issued SQL: %v", runner.sql)
	}

	if err := s.SetAutoCommit(false); err != nil {
		t.Fatal(err)
	}
	n := len(runner.sql)
	if n == 0 {
		t.Fatal("SetAutoCommit(false) issued no SQL")
	}

	if err := s.SetAutoCommit(false); err != nil {
		t.Fatal(err)
	}
	if len(runner.sql) != n {
		t.Errorf("second identical SetAutoCommit issued more SQL: %v", runner.sql[n:])
	}
}

func TestCommitNoOpUnderAutocommit(t *testing.T) {
	s, runner := newTestSession(Version{9, 3, 0})
	if err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	if len(runner.sql) != 0 {
		t.Errorf("Commit() under autocommit issued SQL: %v", runner.sql)
	}
}

func TestSetTransactionIsolationRejectsUnsupported(t *testing.T) {
	s, _ := newTestSession(Version{9, 3, 0})
	err := s.SetTransactionIsolation(RepeatableRead)
	if err == nil {
		t.Fatal("expected an error for REPEATABLE READ")
	}
	pgErr, ok := err.(*Error)
	if !ok || pgErr.Kind != KindInvalidArg {
		t.Errorf("expected KindInvalidArg, got %v", err)
	}
}

func TestSetTransactionIsolationOnlyCommitsAfterSuccess(t *testing.T) {
	s, runner := newTestSession(Version{9, 3, 0})
	runner.err = newError(KindSQL, "boom")

	before := s.isolation
	err := s.SetTransactionIsolation(Serializable)
	if err == nil {
		t.Fatal("expected the SET to fail")
	}
	if s.isolation != before {
		t.Errorf("isolation field changed despite a failed SET: got %v, want %v", s.isolation, before)
	}
}

func TestCommitOnFailedTransactionRollsBackAndReturnsSentinel(t *testing.T) {
	s, runner := newTestSession(Version{9, 3, 0})
	if err := s.SetAutoCommit(false); err != nil {
		t.Fatal(err)
	}
	s.markTxFailed()

	err := s.Commit()
	if err != ErrInFailedTransaction {
		t.Errorf("Commit() after a failed transaction = %v, want ErrInFailedTransaction", err)
	}
	last := runner.sql[len(runner.sql)-1]
	if last != "rollback;" {
		t.Errorf("Commit() on a failed transaction did not roll back, last SQL = %q", last)
	}
	if s.txFailed {
		t.Error("txFailed still set after Rollback succeeded")
	}
}

func TestRollbackClearsTxFailed(t *testing.T) {
	s, _ := newTestSession(Version{9, 3, 0})
	if err := s.SetAutoCommit(false); err != nil {
		t.Fatal(err)
	}
	s.markTxFailed()

	if err := s.Rollback(); err != nil {
		t.Fatal(err)
	}
	if s.txFailed {
		t.Error("txFailed still set after Rollback")
	}
}

func TestMarkTxFailedNoOpUnderAutocommit(t *testing.T) {
	s, _ := newTestSession(Version{9, 3, 0})
	s.markTxFailed()
	if s.txFailed {
		t.Error("markTxFailed should be a no-op while autocommit is on")
	}
}

func TestClassifyIsolation(t *testing.T) {
	cases := map[string]IsolationLevel{
		"READ COMMITTED":   ReadCommitted,
		"READ UNCOMMITTED": ReadUncommitted,
		"REPEATABLE READ":  RepeatableRead,
		"SERIALIZABLE":     Serializable,
		"garbage":          ReadCommitted,
	}
	for text, want := range cases {
		if got := classifyIsolation(text); got != want {
			t.Errorf("classifyIsolation(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestGetSQLTypeCachesAcrossCalls(t *testing.T) {
	s, runner := newTestSession(Version{9, 3, 0})
	runner.results = append(runner.results, &Result{
		Kind:   ResultRows,
		Tuples: []Tuple{{Values: [][]byte{[]byte("int4")}}},
	})

	firstOid := typeCacheTestOid()
	t1, err := s.GetSQLType(firstOid)
	if err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := len(runner.sql)

	t2, err := s.GetSQLType(firstOid)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != t2 {
		t.Errorf("GetSQLType inconsistent across calls: %v != %v", t1, t2)
	}
	if len(runner.sql) != callsAfterFirst {
		t.Errorf("second GetSQLType call issued SQL: %v", runner.sql[callsAfterFirst:])
	}
}
