package statement

import "regexp"

var writeVerbRe = regexp.MustCompile(`(?i)^\s*(insert|update|delete|replace|upsert|merge|create|alter|drop|truncate|grant|revoke|lock|call|set|begin|start|commit|rollback)\b`)

// IsWriteSQL classifies raw SQL by its leading verb. Anything that is not a
// recognised write verb is treated as a read.
func IsWriteSQL(sql string) bool {
	return writeVerbRe.MatchString(sql)
}
