// Package oid enumerates the pg_type OIDs the connection core needs to
// recognize on the wire. It does not attempt value coercion: mapping a wire
// payload to a host-language value beyond classifying its OID is out of
// scope for the core (see SPEC_FULL.md §1).
package oid

// Oid is a 32-bit object identifier, as assigned by the backend's pg_type
// catalog. Oids are stable for the lifetime of a database (invariant 5 in
// spec.md's DATA MODEL), so callers may cache them without expiry.
type Oid uint32

// Well-known OIDs for the wire-level types the core needs to recognize
// directly (bootstrap query parsing, field descriptors in tests). The full
// pg_type catalog is looked up by name at runtime via getSQLType; this is
// not an exhaustive catalog mirror.
const (
	T_bool        Oid = 16
	T_bytea       Oid = 17
	T_char        Oid = 18
	T_name        Oid = 19
	T_int8        Oid = 20
	T_int2        Oid = 21
	T_int4        Oid = 23
	T_text        Oid = 25
	T_oid         Oid = 26
	T_json        Oid = 114
	T_float4      Oid = 700
	T_float8      Oid = 701
	T_abstime     Oid = 702
	T_unknown     Oid = 705
	T_money       Oid = 790
	T_bpchar      Oid = 1042
	T_varchar     Oid = 1043
	T_date        Oid = 1082
	T_time        Oid = 1083
	T_timestamp   Oid = 1114
	T_timestamptz Oid = 1184
	T_numeric     Oid = 1700
)

// String returns the numeric OID, matching how the backend reports it in
// RowDescription and how it prints in diagnostics.
func (o Oid) String() string {
	return uitoa(uint32(o))
}

func uitoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
