package minimizer

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/will-rowe/ntHash"

	"github.com/will-rowe/minimizer/src/kmer"
)

// Hasher turns a packed k-mer into the key used to order k-mers within a window
//
// implementations must be pure: the same seed and k-mer always give the same key
type Hasher[W kmer.Word[W]] interface {
	Hash(seed uint64, x W) uint64
}

// sizedHasher is implemented by hashers that need to know the length of what they hash
type sizedHasher[W kmer.Word[W]] interface {
	ForSize(n int) Hasher[W]
}

// XXHasher is the default order: xxHash64 over the seed followed by the little-endian words of the k-mer
//
// the high word is only hashed when it is non-zero, so a k-mer gets the same key whether it is held in a U64 or a U128
type XXHasher[W kmer.Word[W]] struct{}

// Hash satisfies the Hasher interface
func (XXHasher[W]) Hash(seed uint64, x W) uint64 {
	var buf [24]byte
	hi, lo := x.Halves()
	binary.LittleEndian.PutUint64(buf[0:], seed)
	binary.LittleEndian.PutUint64(buf[8:], lo)
	if hi == 0 {
		return xxhash.Sum64(buf[:16])
	}
	binary.LittleEndian.PutUint64(buf[16:], hi)
	return xxhash.Sum64(buf[:])
}

// Identity orders k-mers by their packed value (lexicographic order under the encoding) xor the seed
//
// only the low 64 bits take part, so k-mers longer than 64 bits of codes can tie
type Identity[W kmer.Word[W]] struct{}

// Hash satisfies the Hasher interface
func (Identity[W]) Hash(seed uint64, x W) uint64 {
	_, lo := x.Halves()
	return lo ^ seed
}

// NtHasher orders k-mers by the (forward strand) ntHash of their bases, mixed with the seed
//
// it is much slower than XXHasher as every k-mer is decoded before hashing; it is here so sketches can be matched against ntHash based tools
type NtHasher[W kmer.Word[W]] struct {
	Encoding *kmer.Encoding
	size     int
}

// NewNtHasher returns an ntHash order for the given encoding (which must be a nucleotide encoding)
func NewNtHasher[W kmer.Word[W]](enc *kmer.Encoding) NtHasher[W] {
	return NtHasher[W]{Encoding: enc}
}

// ForSize returns a copy bound to k-mers of length n
func (h NtHasher[W]) ForSize(n int) Hasher[W] {
	h.size = n
	return h
}

// Hash satisfies the Hasher interface
func (h NtHasher[W]) Hash(seed uint64, x W) uint64 {
	size := h.size
	if size == 0 {
		size = kmer.MaxSize[W](h.Encoding.BitsPerCode())
	}
	bases := kmer.Unpack(x, size, h.Encoding)
	hasher, err := ntHash.New(&bases, uint(size))
	if err != nil {
		// decoded k-mers are always long enough, fall back to the packed value
		_, lo := x.Halves()
		return lo ^ mix64(seed)
	}
	var hv uint64
	got := false
	for v := range hasher.Hash(false) {
		if !got {
			hv, got = v, true
		}
	}
	return hv ^ mix64(seed)
}

// mix64 is the splitmix64 finaliser
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
