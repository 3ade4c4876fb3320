package leadclean

import "strings"

// IsBlank reports whether every field of r is empty after trimming. Blank
// rows are dropped before normalization.
func IsBlank(r RawRow) bool {
	for _, v := range r.Values() {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
