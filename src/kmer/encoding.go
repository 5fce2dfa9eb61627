package kmer

import (
	"errors"
	"fmt"
	"math/bits"
)

// invalidCode marks a byte that is not part of the alphabet
const invalidCode = uint8(255)

// ErrInvalidSymbol is returned when a byte is not part of the encoding's alphabet
var ErrInvalidSymbol = errors.New("symbol is not in the alphabet")

// Encoding maps symbols to fixed-width codes
//
// lookups are case-insensitive for letters; an Encoding is immutable once built and can be shared
type Encoding struct {
	codes      [256]uint8
	symbols    []byte
	complement []uint8
	bits       uint
}

// DefaultEncoding returns the 2 bit nucleotide encoding: A=00, C=01, G=10, T=11
func DefaultEncoding() *Encoding {
	enc, err := NewDNAEncoding(0, 1, 2, 3)
	if err != nil {
		panic(err)
	}
	return enc
}

// NewDNAEncoding builds a 2 bit nucleotide encoding using the supplied code for each base
func NewDNAEncoding(a, c, g, t uint8) (*Encoding, error) {
	assigned := [4]uint8{a, c, g, t}
	seen := [4]bool{}
	for _, code := range assigned {
		if code > 3 {
			return nil, fmt.Errorf("nucleotide codes must be < 4 (got %d)", code)
		}
		if seen[code] {
			return nil, fmt.Errorf("nucleotide code %d assigned more than once", code)
		}
		seen[code] = true
	}
	enc := newEmptyEncoding(4, 2)
	for i, base := range []byte("ACGT") {
		enc.set(base, assigned[i])
	}

	// complement in code space: A<->T, C<->G
	enc.complement = make([]uint8, 4)
	enc.complement[a], enc.complement[t] = t, a
	enc.complement[c], enc.complement[g] = g, c
	return enc, nil
}

// NewEncoding builds an encoding for a custom alphabet, assigning codes in the order the symbols are given
//
// complements is either empty (no reverse complement support) or holds, for each symbol, the symbol it pairs with
func NewEncoding(symbols, complements string) (*Encoding, error) {
	n := len(symbols)
	if n < 2 {
		return nil, fmt.Errorf("an alphabet needs at least 2 symbols (got %d)", n)
	}
	if n > int(invalidCode) {
		return nil, fmt.Errorf("an alphabet can have at most %d symbols (got %d)", invalidCode, n)
	}
	enc := newEmptyEncoding(n, uint(bits.Len(uint(n-1))))
	for i := 0; i < n; i++ {
		if _, ok := enc.Lookup(symbols[i]); ok {
			return nil, fmt.Errorf("symbol %q appears more than once in the alphabet", symbols[i])
		}
		enc.set(symbols[i], uint8(i))
	}
	if complements == "" {
		return enc, nil
	}
	if len(complements) != n {
		return nil, fmt.Errorf("complement map has %d symbols, alphabet has %d", len(complements), n)
	}
	enc.complement = make([]uint8, n)
	for i := 0; i < n; i++ {
		code, ok := enc.Lookup(complements[i])
		if !ok {
			return nil, fmt.Errorf("complement symbol %q is not in the alphabet", complements[i])
		}
		enc.complement[i] = code
	}

	// reverse complementing twice has to give back the original k-mer
	for i, code := range enc.complement {
		if enc.complement[code] != uint8(i) {
			return nil, fmt.Errorf("complement map is not symmetric for symbol %q", symbols[i])
		}
	}
	return enc, nil
}

func newEmptyEncoding(n int, width uint) *Encoding {
	enc := &Encoding{symbols: make([]byte, n), bits: width}
	for i := range enc.codes {
		enc.codes[i] = invalidCode
	}
	return enc
}

// set registers a symbol (both cases for letters)
func (enc *Encoding) set(symbol byte, code uint8) {
	upper, lower := symbol, symbol
	switch {
	case symbol >= 'a' && symbol <= 'z':
		upper = symbol - 'a' + 'A'
	case symbol >= 'A' && symbol <= 'Z':
		lower = symbol - 'A' + 'a'
	}
	enc.codes[upper] = code
	enc.codes[lower] = code
	enc.symbols[code] = upper
}

// Lookup is the allocation-free form of Encode
func (enc *Encoding) Lookup(symbol byte) (uint8, bool) {
	code := enc.codes[symbol]
	return code, code != invalidCode
}

// Encode returns the code for a symbol
func (enc *Encoding) Encode(symbol byte) (uint8, error) {
	code, ok := enc.Lookup(symbol)
	if !ok {
		return 0, ErrInvalidSymbol
	}
	return code, nil
}

// Decode returns the (upper case) symbol for a code
func (enc *Encoding) Decode(code uint8) byte {
	return enc.symbols[code]
}

// Complement returns the code paired with the given code
//
// it must only be called when HasComplement is true
func (enc *Encoding) Complement(code uint8) uint8 {
	return enc.complement[code]
}

// HasComplement reports whether the alphabet declares a complement map
func (enc *Encoding) HasComplement() bool {
	return enc.complement != nil
}

// BitsPerCode is the width of a single code
func (enc *Encoding) BitsPerCode() uint {
	return enc.bits
}

// Size is the number of symbols in the alphabet
func (enc *Encoding) Size() int {
	return len(enc.symbols)
}

// Pack encodes a whole k-mer, the first symbol ending up in the most significant position
func Pack[W Word[W]](seq []byte, enc *Encoding) (W, error) {
	var x W
	if len(seq)*int(enc.bits) > int(x.Bits()) {
		return x, fmt.Errorf("k-mer of length %d does not fit in %d bits", len(seq), x.Bits())
	}
	for i, symbol := range seq {
		code, ok := enc.Lookup(symbol)
		if !ok {
			return x, fmt.Errorf("position %d (%q): %w", i, symbol, ErrInvalidSymbol)
		}
		x = x.Shl(enc.bits).Or(x.FromCode(code))
	}
	return x, nil
}

// Unpack decodes a packed k-mer of size m back to its symbols
func Unpack[W Word[W]](x W, m int, enc *Encoding) []byte {
	out := make([]byte, m)
	codeMask := uint64(1)<<enc.bits - 1
	for i := 0; i < m; i++ {
		shift := uint(m-1-i) * enc.bits
		out[i] = enc.Decode(uint8(low(x.Shr(shift)) & codeMask))
	}
	return out
}

// ReverseComplement computes the reverse complement of a packed k-mer of size m from its value
func ReverseComplement[W Word[W]](x W, m int, enc *Encoding) W {
	var rc W
	codeMask := uint64(1)<<enc.bits - 1
	for i := 0; i < m; i++ {
		code := uint8(low(x) & codeMask)
		rc = rc.Shl(enc.bits).Or(rc.FromCode(enc.Complement(code)))
		x = x.Shr(enc.bits)
	}
	return rc
}

// Canonical returns the numerically smaller of a k-mer and its reverse complement, and whether that was the reverse complement
//
// a k-mer equal to its own reverse complement is reported as reverse complemented
func Canonical[W Word[W]](x W, m int, enc *Encoding) (W, bool) {
	rc := ReverseComplement(x, m, enc)
	if x.Less(rc) {
		return x, false
	}
	return rc, true
}
