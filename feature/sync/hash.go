package sync

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"

	"github.com/arranf/MailChimpSync/feature/mailchimp"
)

// HashBag returns the change hash of a merge-field bag: the uppercase hex
// MD5 digest of key+"+"+value+"|" for every key in ascending byte order,
// excluding the reserved hash key itself. Sorting before concatenation makes
// the digest independent of insertion order; absent values must already be
// serialized as "".
func HashBag(bag map[string]string) string {
	keys := make([]string, 0, len(bag))
	for key := range bag {
		if key == mailchimp.MergeHashKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString("+")
		sb.WriteString(bag[key])
		sb.WriteString("|")
	}

	return fmt.Sprintf("%X", md5.Sum([]byte(sb.String())))
}

// HashMergeFields hashes the canonical synchronized-attribute set of a
// typed merge-field record. The record's own Hash field is excluded via the
// reserved key.
func HashMergeFields(m mailchimp.MergeFields) string {
	return HashBag(m.Bag())
}
