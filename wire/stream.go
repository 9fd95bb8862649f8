package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
)

// ByteStream frames the raw TCP byte stream into the typed reads and writes
// the rest of the core relies on. Per SPEC_FULL.md §4.1, the write side is
// buffered (bufio.Writer, flushed explicitly by the caller at message
// boundaries, mirroring gregb-pq's conn.send/flush pattern); the read side
// is not: every Recv* call blocks on io.ReadFull directly against the
// socket, so a caller never waits on bytes that haven't actually arrived
// over and above what it asked for. EOF, and any other I/O failure, is
// always fatal and comes back wrapped in *IoError.
type ByteStream struct {
	conn net.Conn
	w    *bufio.Writer
}

// New wraps conn. The caller owns conn's lifetime; ByteStream never closes
// it on its own (Connection.Close in the core package does that).
func New(conn net.Conn) *ByteStream {
	return &ByteStream{
		conn: conn,
		w:    bufio.NewWriter(conn),
	}
}

// RecvChar reads a single byte: the top-level message tag on every backend
// message.
func (s *ByteStream) RecvChar() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(s.conn, b[:]); err != nil {
		return 0, ioError("recv_char", err)
	}
	return b[0], nil
}

// RecvInt32 reads a signed 32-bit big-endian integer.
func (s *ByteStream) RecvInt32() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(s.conn, b[:]); err != nil {
		return 0, ioError("recv_int32", err)
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

// RecvInt16 reads a signed 16-bit big-endian integer.
func (s *ByteStream) RecvInt16() (int16, error) {
	var b [2]byte
	if _, err := io.ReadFull(s.conn, b[:]); err != nil {
		return 0, ioError("recv_int16", err)
	}
	return int16(binary.BigEndian.Uint16(b[:])), nil
}

// RecvExact reads exactly n bytes, for binary payloads whose length was
// already read off the wire by the caller.
func (s *ByteStream) RecvExact(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return nil, ioError("recv_exact", err)
	}
	return buf, nil
}

// RecvCString reads bytes up to and including a 0 terminator, decoding the
// bytes before it with enc. The terminator is consumed but not included in
// the returned string. enc is an explicit argument, not ambient
// connection state, per the design note in SPEC_FULL.md §9: the encoding
// changes mid-handshake, and every C-string read before that point must
// have already used the pre-switch encoding.
func (s *ByteStream) RecvCString(enc Encoding) (string, error) {
	var raw []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(s.conn, b[:]); err != nil {
			return "", ioError("recv_cstring", err)
		}
		if b[0] == 0 {
			break
		}
		raw = append(raw, b[0])
	}
	return enc.Decode(raw), nil
}

// SendChar queues a single byte.
func (s *ByteStream) SendChar(b byte) error {
	return ioError("send_char", s.w.WriteByte(b))
}

// SendInt queues value as a big-endian integer of the given width in
// bytes (1, 2, or 4).
func (s *ByteStream) SendInt(value int64, width int) error {
	var buf [4]byte
	switch width {
	case 1:
		buf[0] = byte(value)
		_, err := s.w.Write(buf[:1])
		return ioError("send_int", err)
	case 2:
		binary.BigEndian.PutUint16(buf[:2], uint16(value))
		_, err := s.w.Write(buf[:2])
		return ioError("send_int", err)
	case 4:
		binary.BigEndian.PutUint32(buf[:4], uint32(value))
		_, err := s.w.Write(buf[:4])
		return ioError("send_int", err)
	default:
		panic("wire: SendInt width must be 1, 2, or 4")
	}
}

// SendBytes queues raw bytes verbatim.
func (s *ByteStream) SendBytes(b []byte) error {
	_, err := s.w.Write(b)
	return ioError("send_bytes", err)
}

// SendCString queues s, encoded with enc, followed by a 0 terminator.
func (s *ByteStream) SendCString(str string, enc Encoding) error {
	if err := s.SendBytes(enc.Encode(str)); err != nil {
		return err
	}
	return s.SendChar(0)
}

// Flush pushes any buffered writes out to the socket.
func (s *ByteStream) Flush() error {
	return ioError("flush", s.w.Flush())
}
