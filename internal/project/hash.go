package project

import (
	"crypto/sha256"
)

// Digest is a SHA-256 value, same shape as source.File.Hash.
type Digest [32]byte

// Sum hashes parts with a separator so that ("ab","c") and ("a","bc") differ.
func Sum(parts ...string) Digest {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Combine builds H(content || dep1 || dep2 ...). Callers keep deps in a
// deterministic order.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// UnitKey identifies one unit's inputs: the manifest bytes, the unit name
// and salt (tool version and command-line overrides).
func (m *Manifest) UnitKey(u Unit, salt string) Digest {
	return Combine(m.Hash, Sum(u.Name, salt))
}
