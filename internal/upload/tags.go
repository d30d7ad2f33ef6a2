package upload

import (
	"fmt"
	"sort"
	"strings"
)

// Tags is the set of object tags attached to an upload at
// CreateMultipartUpload time.
type Tags map[string]string

// Encode renders tags as the URL-encoded "k1=v1&k2=v2" string the S3
// Tagging parameter expects. Keys are sorted for deterministic output.
func (t Tags) Encode() string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(t[k]))
	}
	return strings.Join(pairs, "&")
}

// percentEncode escapes every non-alphanumeric byte as %XX, matching the
// original tool's utf8_percent_encode(..., NON_ALPHANUMERIC) (spec §4.4.3:
// "all non-alphanumeric bytes percent-encoded"). Unlike url.QueryEscape this
// never folds a space into "+", which matters because backup_cmd carries a
// full zfs send command line.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// With returns a copy of t with key set to value, leaving t unmodified.
func (t Tags) With(key, value string) Tags {
	out := make(Tags, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[key] = value
	return out
}
