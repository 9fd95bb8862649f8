package pgv2

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/corwinharper/pgv2/wire"
)

// startupPacket is the fixed 296-byte v2 layout from SPEC_FULL.md §4.2:
// protocol-major(4) + protocol-minor(4) + database(64) + user(32) +
// args(64) + unused(64) + tty(64) = 296, preceded on the wire by its own
// int32 length.
const startupPacketBodyLen = 296

func padField(s string, width int) []byte {
	buf := make([]byte, width)
	copy(buf, s)
	return buf
}

// sendStartupPacket writes the StartupPacket for protocol 2.0 and flushes.
func sendStartupPacket(s *wire.ByteStream, database, user string) error {
	if err := s.SendInt(startupPacketBodyLen, 4); err != nil {
		return err
	}
	if err := s.SendInt(2, 4); err != nil { // protocol major
		return err
	}
	if err := s.SendInt(0, 4); err != nil { // protocol minor
		return err
	}
	if err := s.SendBytes(padField(database, 64)); err != nil {
		return err
	}
	if err := s.SendBytes(padField(user, 32)); err != nil {
		return err
	}
	if err := s.SendBytes(make([]byte, 64)); err != nil { // args
		return err
	}
	if err := s.SendBytes(make([]byte, 64)); err != nil { // unused
		return err
	}
	if err := s.SendBytes(make([]byte, 64)); err != nil { // tty
		return err
	}
	return s.Flush()
}

// sendPasswordResponse writes the v2 "password message": a plain int32
// length-including-self followed by the payload and a 0 terminator, with
// no leading frontend tag byte (v2 has none for this exchange).
func sendPasswordResponse(s *wire.ByteStream, payload []byte) error {
	if err := s.SendInt(int64(5+len(payload)), 4); err != nil {
		return err
	}
	if err := s.SendBytes(payload); err != nil {
		return err
	}
	if err := s.SendChar(0); err != nil {
		return err
	}
	return s.Flush()
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// md5Password computes "md5" + hex(md5(hex(md5(pw+user)) + salt)), the
// wire response for AuthMD5 (SPEC_FULL.md §4.2, §6).
func md5Password(password, user string, salt [4]byte) string {
	inner := md5Hex([]byte(password + user))
	outer := md5Hex(append([]byte(inner), salt[:]...))
	return "md5" + outer
}

// handshake drives AuthHandshake to completion: StartupPacket, then the
// authentication sub-protocol loop, ending at AuthOK or a terminal error.
// metrics/log may be nil.
func handshake(s *wire.ByteStream, database, user, password string, enc wire.Encoding, metrics *Metrics, log Logger) error {
	if log == nil {
		log = nopLogger{}
	}
	if err := sendStartupPacket(s, database, user); err != nil {
		return wrapError(KindIO, err, "sending startup packet")
	}

	for {
		tag, err := s.RecvChar()
		if err != nil {
			return wrapError(KindIO, err, "reading auth response")
		}
		switch wire.Backend(tag) {
		case wire.ErrorResponse:
			msg, rerr := s.RecvCString(enc)
			if rerr != nil {
				return wrapError(KindIO, rerr, "reading auth error message")
			}
			metrics.observeAuth("unknown", false)
			return newError(KindAuth, "%s", msg)
		case wire.Authenticate:
			areq, rerr := s.RecvInt32()
			if rerr != nil {
				return wrapError(KindIO, rerr, "reading auth request code")
			}
			switch areq {
			case wire.AuthOK:
				metrics.observeAuth("ok", true)
				return nil
			case wire.AuthKerberosV4, wire.AuthKerberosV5:
				metrics.observeAuth("kerberos", false)
				return newError(KindAuth, "unsupported authentication method: kerberos")
			case wire.AuthCleartext:
				if err := sendPasswordResponse(s, []byte(password)); err != nil {
					return wrapError(KindIO, err, "sending cleartext password")
				}
				log.Debugf("sent cleartext password response")
				metrics.observeAuth("cleartext", true)
			case wire.AuthCrypt:
				saltBytes, rerr := s.RecvExact(2)
				if rerr != nil {
					return wrapError(KindIO, rerr, "reading crypt salt")
				}
				crypted := unixCrypt(password, [2]byte{saltBytes[0], saltBytes[1]})
				if err := sendPasswordResponse(s, []byte(crypted)); err != nil {
					return wrapError(KindIO, err, "sending crypt password")
				}
				log.Debugf("sent crypt password response")
				metrics.observeAuth("crypt", true)
			case wire.AuthMD5:
				saltBytes, rerr := s.RecvExact(4)
				if rerr != nil {
					return wrapError(KindIO, rerr, "reading md5 salt")
				}
				var salt [4]byte
				copy(salt[:], saltBytes)
				resp := md5Password(password, user, salt)
				if err := sendPasswordResponse(s, []byte(resp)); err != nil {
					return wrapError(KindIO, err, "sending md5 password")
				}
				log.Debugf("sent md5 password response")
				metrics.observeAuth("md5", true)
			default:
				metrics.observeAuth("unknown", false)
				return newError(KindAuth, "unrecognized authentication request code %d", areq)
			}
		default:
			return newError(KindProtocol, "unexpected tag %q during auth setup", tag)
		}
	}
}
