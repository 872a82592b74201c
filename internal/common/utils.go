package common

// WipeByteArray overwrites b with zeros so that passwords do not linger in
// memory longer than needed. A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
