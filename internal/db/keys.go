package db

const DefaultVisitKey = "visits"

// VisitRankKey is the sorted set holding per-name visit counts.
func VisitRankKey(prefix string) string {
	if prefix == "" {
		prefix = DefaultVisitKey
	}
	return prefix + ":rank"
}
