// Package ids generates the identifiers used as storage keys.
package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable identifier that encodes its
// creation time.
func New() string {
	return ulid.Make().String()
}
