package metadata

import "strings"

// textualMarkers and binaryMarkers are matched as substrings against the
// lower-cased declared type name. Substring matching keeps the
// classification driver-neutral: "character varying", "varchar(255)",
// "longtext", "mediumblob" and friends all land in the right class without
// per-driver tables.
var (
	textualMarkers = []string{"text", "varchar", "char"}
	binaryMarkers  = []string{"bytea", "blob", "binary"}
)

// ClassifyType maps a declared column type to its coarse TypeClass.
func ClassifyType(dataType string) TypeClass {
	t := strings.ToLower(dataType)
	for _, m := range binaryMarkers {
		if strings.Contains(t, m) {
			return ClassBinary
		}
	}
	for _, m := range textualMarkers {
		if strings.Contains(t, m) {
			return ClassTextual
		}
	}
	return ClassOther
}
