package oid

// SQLType is the generic SQL type code a pg_type name classifies to. It is
// the host-neutral result of getSQLType (SPEC_FULL.md §4.5); the standards
// facing statement/result-set layer above the core maps these onto its own
// host-language type system.
type SQLType int

const (
	OTHER SQLType = iota
	SMALLINT
	INTEGER
	BIGINT
	DOUBLE
	NUMERIC
	REAL
	CHAR
	VARCHAR
	BINARY
	BIT
	DATE
	TIME
	TIMESTAMP
)

func (t SQLType) String() string {
	switch t {
	case SMALLINT:
		return "SMALLINT"
	case INTEGER:
		return "INTEGER"
	case BIGINT:
		return "BIGINT"
	case DOUBLE:
		return "DOUBLE"
	case NUMERIC:
		return "NUMERIC"
	case REAL:
		return "REAL"
	case CHAR:
		return "CHAR"
	case VARCHAR:
		return "VARCHAR"
	case BINARY:
		return "BINARY"
	case BIT:
		return "BIT"
	case DATE:
		return "DATE"
	case TIME:
		return "TIME"
	case TIMESTAMP:
		return "TIMESTAMP"
	default:
		return "OTHER"
	}
}

// typeNameToSQLType is the fixed pg_type.typname -> SQLType table from
// SPEC_FULL.md §6. Names not present here classify as OTHER.
var typeNameToSQLType = map[string]SQLType{
	"int2":        SMALLINT,
	"int4":        INTEGER,
	"oid":         INTEGER,
	"int8":        BIGINT,
	"cash":        DOUBLE,
	"money":       DOUBLE,
	"numeric":     NUMERIC,
	"float4":      REAL,
	"float8":      DOUBLE,
	"bpchar":      CHAR,
	"char":        CHAR,
	"char2":       CHAR,
	"char4":       CHAR,
	"char8":       CHAR,
	"char16":      CHAR,
	"varchar":     VARCHAR,
	"text":        VARCHAR,
	"name":        VARCHAR,
	"filename":    VARCHAR,
	"bytea":       BINARY,
	"bool":        BIT,
	"date":        DATE,
	"time":        TIME,
	"abstime":     TIMESTAMP,
	"timestamp":   TIMESTAMP,
	"timestamptz": TIMESTAMP,
}

// SQLTypeForName classifies a pg_type.typname into its generic SQLType.
// Unknown names (domains, composite types, enums, anything the fixed table
// doesn't name) classify as OTHER rather than erroring: the core only needs
// enough classification to satisfy getSQLType, not a full catalog mirror.
func SQLTypeForName(typname string) SQLType {
	if t, ok := typeNameToSQLType[typname]; ok {
		return t
	}
	return OTHER
}
