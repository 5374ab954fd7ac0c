package utils

import "hash/fnv"

func U64ToBytes(u uint64) []byte {
	return []byte{
		byte(u >> 56), byte(u >> 48), byte(u >> 40), byte(u >> 32),
		byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u),
	}
}

func FingerprintString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// FingerprintParts hashes a tag followed by each part. Parts are length-prefixed
// so ("ab", "c") and ("a", "bc") do not collide.
func FingerprintParts(tag string, parts ...string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tag))
	for _, p := range parts {
		_, _ = h.Write(U64ToBytes(uint64(len(p))))
		_, _ = h.Write([]byte(p))
	}
	return h.Sum64()
}

func Mix64(a, b uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(U64ToBytes(a))
	_, _ = h.Write(U64ToBytes(b))
	return h.Sum64()
}
