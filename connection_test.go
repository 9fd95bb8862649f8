package pgv2

import (
	"io"
	"net"
	"testing"
)

// fakeServer accepts exactly one connection on an ephemeral loopback port,
// reads and discards whatever the client sends (the StartupPacket, password
// responses, Query messages), and writes script verbatim in reply. It
// exists so connection_test.go can exercise Open/Execute/Close through a
// real net.Conn instead of only the in-memory duplexConn auth_test.go and
// query_test.go use, the way a driver integration test would against a real postgres.
type fakeServer struct {
	ln   net.Listener
	addr string
}

func startFakeServer(t *testing.T, script []byte) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeServer{ln: ln, addr: ln.Addr().String()}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// Write the whole script up front (well within the socket buffer for
		// these small fixtures, so this never blocks on the client reading),
		// then drain whatever the client sends until it closes.
		conn.Write(script)
		io.Copy(io.Discard, conn)
	}()
	t.Cleanup(func() { ln.Close() })
	return fs
}

// startupScript is the fixed byte sequence a v2 server sends for: AuthOK,
// BackendKeyData(pid, key), ReadyForQuery, then responses to the two
// bootstrap queries runPostStartup issues for a >=7.3 server.
func startupScript(pid, key int32) []byte {
	s := &serverScript{}
	s.tag('R').int32(0) // AuthenticationOk
	s.backendKeyData(pid, key).readyForQuery()
	s.rowDescription("version", "encoding").
		dataRow("PostgreSQL 9.3.1 on x86_64-pc-linux-gnu", "UTF8").
		commandComplete("SELECT").
		readyForQuery()
	s.rowDescription("autocommit").
		dataRow("on").
		commandComplete("SHOW").
		readyForQuery()
	return s.buf.Bytes()
}

// TestOpenCompletesHandshakeAndStartup is end-to-end scenario 1 from
// SPEC_FULL.md §8: after K,42,0xDEADBEEF then Z, the resulting Connection
// reports pid=42, cancellation key 0xDEADBEEF, and open=true.
func TestOpenCompletesHandshakeAndStartup(t *testing.T) {
	fs := startFakeServer(t, startupScript(42, int32(0xDEADBEEF)))
	cfg := &Config{Database: "mydb", User: "alice", Compatible: defaultCompatible}

	conn, err := Open(fs.addr, cfg, NewMetrics(), nil)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	defer conn.Close()

	if conn.IsClosed() {
		t.Fatal("Open() returned an already-closed Connection")
	}
	ck := conn.CancelKey()
	if ck.BackendPID != 42 || ck.CancellationKey != int32(0xDEADBEEF) {
		t.Errorf("CancelKey() = %+v, want {42 0xDEADBEEF}", ck)
	}
}

// TestConnectionExecuteAndClose runs one query against the fake server
// after Open, then closes the connection and confirms it stays closed.
func TestConnectionExecuteAndClose(t *testing.T) {
	script := &serverScript{}
	script.buf.Write(startupScript(1, 1))
	script.rowDescription("n").
		dataRow("1").
		commandComplete("SELECT").
		readyForQuery()

	fs := startFakeServer(t, script.buf.Bytes())
	cfg := &Config{Database: "mydb", User: "alice", Compatible: defaultCompatible}

	conn, err := Open(fs.addr, cfg, NewMetrics(), nil)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}

	res, err := conn.Execute("select 1")
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if res.Kind != ResultRows || len(res.Tuples) != 1 {
		t.Errorf("Execute() result = %+v", res)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if !conn.IsClosed() {
		t.Fatal("Close() did not mark the connection closed")
	}
	if _, err := conn.Execute("select 1"); err != ErrConnectionClosed {
		t.Errorf("Execute() after Close() = %v, want ErrConnectionClosed", err)
	}
}

// TestOpenConnectRefused covers the dial-failure path: nothing is listening
// on this address.
func TestOpenConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close() // nothing listens here now

	cfg := &Config{Database: "mydb", User: "alice", Compatible: defaultCompatible}
	_, err = Open(addr, cfg, nil, nil)
	if err == nil {
		t.Fatal("expected a connect-refused error")
	}
	pgErr, ok := err.(*Error)
	if !ok || pgErr.Kind != KindConnectRefused {
		t.Errorf("expected KindConnectRefused, got %v", err)
	}
}
