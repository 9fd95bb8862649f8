package pgv2

import (
	"encoding/binary"
	"net"

	"github.com/corwinharper/pgv2/wire"
)

// CancelKey is the (backend_pid, cancellation_key) pair SPEC_FULL.md §5
// hands out after startup, opaque to everything except Cancel.
type CancelKey struct {
	BackendPID      int32
	CancellationKey int32
}

// Cancel sends a CancelRequest on a fresh TCP connection to addr, per
// SPEC_FULL.md §6: a fixed 16-byte packet (length, magic code, pid, key),
// never on the connection currently running the query. The backend closes
// this connection on its own once the request is processed; there is no
// response to read.
func Cancel(addr string, key CancelKey) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return wrapError(KindConnectRefused, err, "dialing cancel connection")
	}
	defer conn.Close()

	var buf [16]byte
	binary.BigEndian.PutUint32(buf[0:4], 16)
	binary.BigEndian.PutUint32(buf[4:8], wire.CancelRequestCode)
	binary.BigEndian.PutUint32(buf[8:12], uint32(key.BackendPID))
	binary.BigEndian.PutUint32(buf[12:16], uint32(key.CancellationKey))

	if _, err := conn.Write(buf[:]); err != nil {
		return wrapError(KindIO, err, "sending cancel request")
	}
	return nil
}
