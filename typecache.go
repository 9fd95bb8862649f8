package pgv2

import (
	"sync"

	"github.com/corwinharper/pgv2/oid"
)

// typeCache is a process-wide, concurrency-safe OID <-> pg_type name <->
// SQLType cache, per SPEC_FULL.md §3 and the design note in §9: a narrow
// interface over sync.Map rather than scattered mutable package globals.
// Entries are immutable once inserted (invariant 5: "OID<->typename is
// stable for a database lifetime"), so every insert is a LoadOrStore and
// a lost race between two connections populating the same OID is harmless
// — both writers would have stored the same value anyway.
type typeCache struct {
	oidToName sync.Map // oid.Oid -> string
	nameToOid sync.Map // string -> oid.Oid
	oidToSQL  sync.Map // oid.Oid -> oid.SQLType
}

var globalTypeCache typeCache

func (c *typeCache) lookupByOid(o oid.Oid) (name string, sqlType oid.SQLType, ok bool) {
	n, ok := c.oidToName.Load(o)
	if !ok {
		return "", 0, false
	}
	t, _ := c.oidToSQL.Load(o)
	sqlType, _ = t.(oid.SQLType)
	return n.(string), sqlType, true
}

func (c *typeCache) lookupByName(name string) (o oid.Oid, ok bool) {
	v, ok := c.nameToOid.Load(name)
	if !ok {
		return 0, false
	}
	return v.(oid.Oid), true
}

func (c *typeCache) store(o oid.Oid, name string) oid.SQLType {
	sqlType := oid.SQLTypeForName(name)
	c.oidToName.LoadOrStore(o, name)
	c.nameToOid.LoadOrStore(name, o)
	c.oidToSQL.LoadOrStore(o, sqlType)
	return sqlType
}
