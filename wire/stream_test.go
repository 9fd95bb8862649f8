package wire

import (
	"bytes"
	"net"
	"testing"
	"time"
)

// duplexConn is a net.Conn backed by two independent buffers, the same
// shape as mevdschee-tqdbproxy's mockConn but split read/write so a test
// can pre-load what the "server" sent and separately inspect what the
// "client" wrote.
type duplexConn struct {
	in  *bytes.Buffer // bytes the client reads
	out *bytes.Buffer // bytes the client writes
}

func newDuplexConn(serverBytes []byte) *duplexConn {
	return &duplexConn{in: bytes.NewBuffer(serverBytes), out: &bytes.Buffer{}}
}

func (d *duplexConn) Read(b []byte) (int, error)          { return d.in.Read(b) }
func (d *duplexConn) Write(b []byte) (int, error)         { return d.out.Write(b) }
func (d *duplexConn) Close() error                        { return nil }
func (d *duplexConn) LocalAddr() net.Addr                 { return nil }
func (d *duplexConn) RemoteAddr() net.Addr                { return nil }
func (d *duplexConn) SetDeadline(t time.Time) error       { return nil }
func (d *duplexConn) SetReadDeadline(t time.Time) error   { return nil }
func (d *duplexConn) SetWriteDeadline(t time.Time) error  { return nil }

func TestRecvCharAndInt32(t *testing.T) {
	conn := newDuplexConn([]byte{'Z', 0, 0, 1, 0x2c})
	s := New(conn)

	c, err := s.RecvChar()
	if err != nil || c != 'Z' {
		t.Fatalf("RecvChar() = %q, %v", c, err)
	}
	n, err := s.RecvInt32()
	if err != nil || n != 300 {
		t.Fatalf("RecvInt32() = %d, %v, want 300", n, err)
	}
}

func TestRecvCString(t *testing.T) {
	conn := newDuplexConn([]byte("hello\x00world"))
	s := New(conn)

	str, err := s.RecvCString(Default)
	if err != nil {
		t.Fatal(err)
	}
	if str != "hello" {
		t.Errorf("RecvCString() = %q, want %q", str, "hello")
	}
}

func TestSendAndFlush(t *testing.T) {
	conn := newDuplexConn(nil)
	s := New(conn)

	if err := s.SendChar('Q'); err != nil {
		t.Fatal(err)
	}
	if err := s.SendCString("select 1", Default); err != nil {
		t.Fatal(err)
	}
	if conn.out.Len() != 0 {
		t.Fatalf("expected buffered writer to hold bytes before Flush, got %d already written", conn.out.Len())
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	want := append([]byte{'Q'}, append([]byte("select 1"), 0)...)
	if !bytes.Equal(conn.out.Bytes(), want) {
		t.Errorf("written bytes = %q, want %q", conn.out.Bytes(), want)
	}
}

func TestRecvExact(t *testing.T) {
	conn := newDuplexConn([]byte{1, 2, 3, 4})
	s := New(conn)

	got, err := s.RecvExact(4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("RecvExact(4) = %v, want [1 2 3 4]", got)
	}
}

func TestRecvCharEOFIsFatal(t *testing.T) {
	conn := newDuplexConn(nil)
	s := New(conn)

	if _, err := s.RecvChar(); err == nil {
		t.Error("expected an error reading from an empty stream")
	}
}
