package translate

import (
	"strings"

	"emberql/value"
)

// typeRule pairs a set of raw-type substrings (as rendered by the parser's
// column-type stringer) with the engine's value.Kind. Matching is
// case-insensitive substring containment, checked in order, the same
// normalization strategy used for the portable DataType enumeration.
type typeRule struct {
	substrings []string
	kind       value.Kind
}

var typeRules = []typeRule{
	{[]string{"tinyint(1)", "bool"}, value.KindBool},
	{[]string{"tinyint unsigned"}, value.KindU8},
	{[]string{"tinyint"}, value.KindI8},
	{[]string{"smallint unsigned"}, value.KindU16},
	{[]string{"smallint"}, value.KindI16},
	{[]string{"bigint unsigned"}, value.KindU64},
	{[]string{"int unsigned", "integer unsigned", "mediumint unsigned"}, value.KindU32},
	{[]string{"bigint"}, value.KindI64},
	{[]string{"point"}, value.KindPoint},
	{[]string{"int", "integer", "mediumint"}, value.KindI32},
	{[]string{"float"}, value.KindF32},
	{[]string{"double", "real"}, value.KindF64},
	{[]string{"decimal", "numeric"}, value.KindDecimal},
	{[]string{"datetime", "timestamp"}, value.KindTimestamp},
	{[]string{"date"}, value.KindDate},
	{[]string{"time"}, value.KindTime},
	{[]string{"binary", "blob", "varbinary"}, value.KindBytes},
	{[]string{"uuid"}, value.KindUUID},
	{[]string{"json", "map"}, value.KindMap},
	{[]string{"char", "text", "string", "varchar", "enum", "set"}, value.KindText},
}

// NormalizeDataType maps the parser's rendered column type string onto the
// engine's value.Kind enumeration. Unrecognized types default to Text
// rather than failing outright.
func NormalizeDataType(rawType string) value.Kind {
	lower := strings.ToLower(strings.TrimSpace(rawType))
	for _, rule := range typeRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return rule.kind
			}
		}
	}
	return value.KindText
}
