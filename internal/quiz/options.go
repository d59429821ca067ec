package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// NormalizeOptions turns a stored options value into a list of strings.
// Accepted encodings: a JSON-encoded list, a Postgres array literal
// ({a,"b c"}) and a native list. Anything else yields an empty list.
func NormalizeOptions(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			out = append(out, stringify(e))
		}
		return out
	case string:
		s := strings.TrimSpace(x)
		switch {
		case strings.HasPrefix(s, "["):
			var list []any
			if err := json.Unmarshal([]byte(s), &list); err != nil {
				return []string{}
			}
			return NormalizeOptions(list)
		case strings.HasPrefix(s, "{"):
			var arr pq.StringArray
			if err := arr.Scan(s); err != nil {
				return []string{}
			}
			return []string(arr)
		}
	}
	return []string{}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
