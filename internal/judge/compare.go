package judge

import "strings"

const (
	chunkedCompareThreshold = 5 * 1024 * 1024
	compareChunkSize        = 1024 * 1024
)

// OutputsMatch compares program output to the expected answer ignoring
// surrounding whitespace. Large outputs are compared chunk by chunk.
func OutputsMatch(actual, expected string) bool {
	a := strings.TrimSpace(actual)
	e := strings.TrimSpace(expected)
	if len(a) != len(e) {
		return false
	}
	if len(a) <= chunkedCompareThreshold {
		return a == e
	}
	for off := 0; off < len(a); off += compareChunkSize {
		end := off + compareChunkSize
		if end > len(a) {
			end = len(a)
		}
		if a[off:end] != e[off:end] {
			return false
		}
	}
	return true
}
