package dialect

import (
	"strconv"
	"strings"
)

// TypeFamily is the engine-independent family of a column type.
type TypeFamily string

const (
	FamilyString    TypeFamily = "string"
	FamilyInteger   TypeFamily = "integer"
	FamilyFloat     TypeFamily = "float"
	FamilyNumeric   TypeFamily = "numeric"
	FamilyBoolean   TypeFamily = "boolean"
	FamilyDate      TypeFamily = "date"
	FamilyTime      TypeFamily = "time"
	FamilyTimestamp TypeFamily = "timestamp"
	FamilyUUID      TypeFamily = "uuid"
	FamilyJSON      TypeFamily = "json"
	FamilyBinary    TypeFamily = "binary"
	FamilyOther     TypeFamily = "other"
)

// ColumnType is a raw engine type broken down into family and dimensions.
type ColumnType struct {
	Raw       string     `json:"raw"`
	Family    TypeFamily `json:"family"`
	Length    *int       `json:"length,omitempty"`
	Precision *int       `json:"precision,omitempty"`
	Scale     *int       `json:"scale,omitempty"`
	Unsigned  bool       `json:"unsigned,omitempty"`
}

// NormalizeType converts a raw type as reported by the dialect's catalog
// (e.g. "varchar(255)", "numeric(10,2)", "int unsigned", "nvarchar(max)")
// into a ColumnType.
func (d Dialect) NormalizeType(raw string) ColumnType {
	ct := ColumnType{Raw: raw, Family: FamilyString}
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return ct
	}

	base := upper
	var args string
	if i := strings.Index(upper, "("); i >= 0 {
		base = strings.TrimSpace(upper[:i])
		if j := strings.LastIndex(upper, ")"); j > i {
			args = strings.TrimSpace(upper[i+1 : j])
			// "timestamp(6) with time zone"
			if rest := strings.TrimSpace(upper[j+1:]); rest != "" {
				base += " " + rest
			}
		}
	}
	for _, mod := range []string{" UNSIGNED", " ZEROFILL"} {
		if strings.Contains(base, mod) {
			ct.Unsigned = true
			base = strings.ReplaceAll(base, mod, "")
		}
	}
	base = strings.Join(strings.Fields(base), " ")

	// MySQL spells booleans as tinyint(1) / bit(1).
	if d == MySQL && (base == "TINYINT" || base == "BIT") && args == "1" {
		ct.Family = FamilyBoolean
		return ct
	}

	switch base {
	case "VARCHAR", "CHAR", "CHARACTER", "TEXT", "NVARCHAR", "NCHAR", "NTEXT",
		"CHARACTER VARYING", "BPCHAR", "CITEXT", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT",
		"ENUM", "SET", "CIDR", "INET", "MACADDR", "TSQUERY", "TSVECTOR", "XML",
		"INTERVAL", "SYSNAME", "NAME":
		if base != "ENUM" && base != "SET" {
			ct.Length = parseFirstInt(args)
		}
		ct.Family = FamilyString

	case "INT", "INTEGER", "INT2", "INT4", "INT8", "SMALLINT", "BIGINT",
		"TINYINT", "MEDIUMINT", "SERIAL", "SMALLSERIAL", "BIGSERIAL", "OID", "YEAR":
		ct.Family = FamilyInteger

	case "FLOAT", "REAL", "DOUBLE", "DOUBLE PRECISION", "FLOAT4", "FLOAT8",
		"MONEY", "SMALLMONEY":
		ct.Family = FamilyFloat

	case "NUMERIC", "DECIMAL", "DEC":
		ct.Family = FamilyNumeric
		ct.Precision, ct.Scale = parsePrecisionScale(args)

	case "BOOL", "BOOLEAN", "BIT":
		ct.Family = FamilyBoolean

	case "DATE":
		ct.Family = FamilyDate

	case "TIME", "TIME WITH TIME ZONE", "TIME WITHOUT TIME ZONE", "TIMETZ":
		ct.Family = FamilyTime

	case "TIMESTAMP", "DATETIME", "DATETIME2", "SMALLDATETIME",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE",
		"TIMESTAMPTZ", "DATETIMEOFFSET":
		// SQL Server's TIMESTAMP is a row version, not a point in time.
		if d == SQLServer && base == "TIMESTAMP" {
			ct.Family = FamilyBinary
			break
		}
		ct.Family = FamilyTimestamp

	case "UUID", "UNIQUEIDENTIFIER":
		ct.Family = FamilyUUID

	case "JSON", "JSONB":
		ct.Family = FamilyJSON

	case "BYTEA", "BINARY", "VARBINARY", "BLOB", "LONGBLOB", "MEDIUMBLOB",
		"TINYBLOB", "IMAGE", "BIT VARYING", "ROWVERSION":
		ct.Family = FamilyBinary
		ct.Length = parseFirstInt(args)

	default:
		switch {
		case strings.Contains(base, "INT"):
			ct.Family = FamilyInteger
		case strings.Contains(base, "CHAR"), strings.Contains(base, "TEXT"):
			ct.Family = FamilyString
			ct.Length = parseFirstInt(args)
		case strings.Contains(base, "FLOAT"), strings.Contains(base, "DOUBLE"):
			ct.Family = FamilyFloat
		default:
			ct.Family = FamilyOther
		}
	}
	return ct
}

// parseFirstInt reads the leading dimension; "max" and non-positive values
// yield nil.
func parseFirstInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	first, _, _ := strings.Cut(s, ",")
	v, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func parsePrecisionScale(s string) (precision, scale *int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	p, sc, hasScale := strings.Cut(s, ",")
	if v, err := strconv.Atoi(strings.TrimSpace(p)); err == nil && v > 0 {
		precision = &v
	}
	if hasScale {
		if v, err := strconv.Atoi(strings.TrimSpace(sc)); err == nil && v >= 0 {
			scale = &v
		}
	}
	return
}
