package sqlutil

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions shared by the SQL-backed stores

// ToNullRawMessage wraps a JSON document for a nullable JSON column. An empty
// document is stored as NULL.
func ToNullRawMessage(b []byte) pqtype.NullRawMessage {
	return pqtype.NullRawMessage{RawMessage: json.RawMessage(b), Valid: len(b) > 0}
}

// FromNullRawMessage returns the document, or nil for NULL.
func FromNullRawMessage(v pqtype.NullRawMessage) []byte {
	if !v.Valid {
		return nil
	}
	return []byte(v.RawMessage)
}

// Dollar rewrites ? placeholders into the $1, $2, ... form Postgres expects.
// Queries must not contain literal question marks.
func Dollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
