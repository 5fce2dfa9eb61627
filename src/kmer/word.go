// Package kmer contains the fixed-width integer types used to hold bit-packed k-mers, the
// symbol encodings and the rolling registers that keep a k-mer up to date one base at a time.
package kmer

import (
	"fmt"
	"math/bits"
)

// Word is the constraint satisfied by the packed k-mer types (U64 and U128)
//
// the methods that build a value (Mask, FromCode) ignore their receiver, so they can be called on the zero value
type Word[W any] interface {
	comparable
	Shl(n uint) W
	Shr(n uint) W
	Or(v W) W
	And(v W) W
	Less(v W) bool
	Mask(n uint) W
	FromCode(c uint8) W
	Bits() uint
	Halves() (hi, lo uint64)
	String() string
}

// U64 is a k-mer packed into 64 bits
type U64 uint64

// Shl shifts left by n bits
func (x U64) Shl(n uint) U64 { return x << n }

// Shr shifts right by n bits
func (x U64) Shr(n uint) U64 { return x >> n }

// Or returns the bitwise or
func (x U64) Or(v U64) U64 { return x | v }

// And returns the bitwise and
func (x U64) And(v U64) U64 { return x & v }

// Less compares numerically
func (x U64) Less(v U64) bool { return x < v }

// Mask returns a value with the low n bits set
func (U64) Mask(n uint) U64 {
	if n >= 64 {
		return ^U64(0)
	}
	return U64(1)<<n - 1
}

// FromCode returns a code as a U64
func (U64) FromCode(c uint8) U64 { return U64(c) }

// Bits returns the width of the type
func (U64) Bits() uint { return 64 }

// Halves returns the high and low 64 bits (high is always 0)
func (x U64) Halves() (uint64, uint64) { return 0, uint64(x) }

// String formats the value as decimal
func (x U64) String() string { return fmt.Sprintf("%d", uint64(x)) }

// U128 is a k-mer packed into 128 bits, allowing up to 64 bases with a 2 bit encoding
type U128 struct {
	Hi uint64
	Lo uint64
}

// Shl shifts left by n bits
func (x U128) Shl(n uint) U128 {
	switch {
	case n == 0:
		return x
	case n >= 128:
		return U128{}
	case n >= 64:
		return U128{Hi: x.Lo << (n - 64)}
	}
	return U128{Hi: x.Hi<<n | x.Lo>>(64-n), Lo: x.Lo << n}
}

// Shr shifts right by n bits
func (x U128) Shr(n uint) U128 {
	switch {
	case n == 0:
		return x
	case n >= 128:
		return U128{}
	case n >= 64:
		return U128{Lo: x.Hi >> (n - 64)}
	}
	return U128{Hi: x.Hi >> n, Lo: x.Lo>>n | x.Hi<<(64-n)}
}

// Or returns the bitwise or
func (x U128) Or(v U128) U128 { return U128{Hi: x.Hi | v.Hi, Lo: x.Lo | v.Lo} }

// And returns the bitwise and
func (x U128) And(v U128) U128 { return U128{Hi: x.Hi & v.Hi, Lo: x.Lo & v.Lo} }

// Less compares numerically
func (x U128) Less(v U128) bool {
	if x.Hi != v.Hi {
		return x.Hi < v.Hi
	}
	return x.Lo < v.Lo
}

// Mask returns a value with the low n bits set
func (U128) Mask(n uint) U128 {
	switch {
	case n >= 128:
		return U128{Hi: ^uint64(0), Lo: ^uint64(0)}
	case n >= 64:
		return U128{Hi: uint64(1)<<(n-64) - 1, Lo: ^uint64(0)}
	}
	return U128{Lo: uint64(1)<<n - 1}
}

// FromCode returns a code as a U128
func (U128) FromCode(c uint8) U128 { return U128{Lo: uint64(c)} }

// Bits returns the width of the type
func (U128) Bits() uint { return 128 }

// Halves returns the high and low 64 bits
func (x U128) Halves() (uint64, uint64) { return x.Hi, x.Lo }

// String formats the value as 32 hex digits
func (x U128) String() string { return fmt.Sprintf("%016x%016x", x.Hi, x.Lo) }

// Width returns the bit width of the word type W
func Width[W Word[W]]() uint {
	var zero W
	return zero.Bits()
}

// MaxSize returns the largest k-mer that fits in W for a given code width
func MaxSize[W Word[W]](bitsPerCode uint) int {
	if bitsPerCode == 0 {
		return 0
	}
	return int(Width[W]() / bitsPerCode)
}

// low returns the bottom 64 bits of a word
func low[W Word[W]](x W) uint64 {
	_, lo := x.Halves()
	return lo
}

// OnesCount returns the number of set bits, handy when checking masks
func OnesCount[W Word[W]](x W) int {
	hi, lo := x.Halves()
	return bits.OnesCount64(hi) + bits.OnesCount64(lo)
}
