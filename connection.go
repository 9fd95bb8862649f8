package pgv2

import (
	"net"
	"time"

	"github.com/corwinharper/pgv2/oid"
	"github.com/corwinharper/pgv2/wire"
)

// Connection is the root entity from SPEC_FULL.md §3: open with a live
// ByteStream, or closed with none — there is no half-open state visible to
// callers. Every exported method that talks to the server checks isClosed
// first; the warning, notification, cancel-key and type-handler accessors
// work on local state only and do not.
type Connection struct {
	addr   string
	conn   net.Conn
	stream *wire.ByteStream
	exec   *QueryExecutor
	sess   *SessionState

	cancelKey CancelKey

	metrics *Metrics
	log     Logger
}

// Open dials addr, drives the startup handshake and post-startup bootstrap
// to completion, and returns a Connection ready for Execute. metrics and
// log may be nil.
func Open(addr string, cfg *Config, metrics *Metrics, log Logger) (*Connection, error) {
	if log == nil {
		log = nopLogger{}
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, wrapError(KindConnectRefused, err, "dialing %s", addr)
	}

	stream := wire.New(conn)
	if err := handshake(stream, cfg.Database, cfg.User, cfg.Password, wire.Default, metrics, log); err != nil {
		conn.Close()
		return nil, err
	}

	sess := newSessionState(nil, log)
	sess.compatible = cfg.Compatible

	psr, err := runPostStartup(stream, sess, cfg.CharSet)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := &Connection{
		addr:    addr,
		conn:    conn,
		stream:  stream,
		sess:    sess,
		metrics: metrics,
		log:     log,
		cancelKey: CancelKey{
			BackendPID:      psr.backendPID,
			CancellationKey: psr.cancellationKey,
		},
	}
	c.exec = newQueryExecutor(stream, sess, metrics, log)
	sess.runner = c.exec
	return c, nil
}

// IsClosed reports whether the connection has transitioned to closed.
func (c *Connection) IsClosed() bool {
	return c.stream == nil
}

func (c *Connection) checkOpen() error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}
	return nil
}

// Close sends Terminate, flushes, and closes the stream. Per SPEC_FULL.md
// §4.6, I/O errors during close are swallowed — a close is not allowed to
// fail in a way the caller has to handle, since there is nothing useful to
// do with that error once the socket is going away regardless.
func (c *Connection) Close() error {
	if c.IsClosed() {
		return nil
	}
	_ = c.stream.SendChar(byte(wire.Terminate))
	_ = c.stream.Flush()
	_ = c.conn.Close()
	c.stream = nil
	c.exec = nil
	return nil
}

// Execute sends sql and returns its Result. A fatal I/O or protocol error
// closes the connection before returning; a SQLError leaves it open.
func (c *Connection) Execute(sql string) (*Result, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := c.exec.runSQL(sql)
	sqlErr := isSQLError(err)
	c.metrics.observeQuery(time.Since(start).Seconds(), sqlErr)
	if sqlErr {
		c.sess.markTxFailed()
	}
	if err != nil && !sqlErr {
		c.Close()
		return nil, err
	}
	return res, err
}

func isSQLError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindSQL
}

// Commit implements ConnectionFacade.commit.
func (c *Connection) Commit() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.sess.Commit()
}

// Rollback implements ConnectionFacade.rollback.
func (c *Connection) Rollback() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.sess.Rollback()
}

// SetAutoCommit implements ConnectionFacade.setAutoCommit.
func (c *Connection) SetAutoCommit(on bool) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.sess.SetAutoCommit(on)
}

// SetTransactionIsolation implements ConnectionFacade.setTransactionIsolation.
func (c *Connection) SetTransactionIsolation(level IsolationLevel) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.sess.SetTransactionIsolation(level)
}

// GetTransactionIsolation implements ConnectionFacade.getTransactionIsolation.
func (c *Connection) GetTransactionIsolation() (IsolationLevel, error) {
	if err := c.checkOpen(); err != nil {
		return ReadCommitted, err
	}
	return c.sess.GetTransactionIsolation()
}

// GetWarnings returns the accumulated warning chain.
func (c *Connection) GetWarnings() []Warning {
	return c.sess.GetWarnings()
}

// ClearWarnings empties the warning chain.
func (c *Connection) ClearWarnings() {
	c.sess.ClearWarnings()
}

// GetNotifications drains pending notifications.
func (c *Connection) GetNotifications() []Notification {
	return c.sess.GetNotifications()
}

// GetSQLType resolves a wire OID to its generic SQL type, consulting the
// process-wide type cache.
func (c *Connection) GetSQLType(o oid.Oid) (oid.SQLType, error) {
	if err := c.checkOpen(); err != nil {
		return oid.OTHER, err
	}
	return c.sess.GetSQLType(o)
}

// CancelKey returns the (backend_pid, cancellation_key) pair for use with
// Cancel on a second connection.
func (c *Connection) CancelKey() CancelKey {
	return c.cancelKey
}

// RegisterTypeHandler installs a handler descriptor in the per-connection
// object_type_registry, in the tagged-variant shape design note §9 calls
// for (NewHandlerFactory / NewHandlerInstance).
func (c *Connection) RegisterTypeHandler(typeName string, entry HandlerEntry) {
	c.sess.registry.register(typeName, entry)
}

// ResolveTypeHandler looks up a previously registered handler.
func (c *Connection) ResolveTypeHandler(typeName string) (Handler, bool) {
	return c.sess.registry.resolve(typeName)
}
