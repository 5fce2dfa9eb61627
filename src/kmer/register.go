package kmer

// Register holds the packed k-mer ending at the most recent base
//
// the oldest base sits in the most significant position; a Register needs Size() bases before Full() reports true
type Register[W Word[W]] struct {
	value  W
	mask   W
	bits   uint
	size   int
	filled int
}

// NewRegister returns a register for k-mers of the given size
func NewRegister[W Word[W]](size int, bitsPerCode uint) Register[W] {
	var zero W
	return Register[W]{
		mask: zero.Mask(uint(size) * bitsPerCode),
		bits: bitsPerCode,
		size: size,
	}
}

// Advance shifts the next code into the register
func (r *Register[W]) Advance(code uint8) {
	r.value = r.value.Shl(r.bits).Or(r.value.FromCode(code)).And(r.mask)
	if r.filled < r.size {
		r.filled++
	}
}

// Value returns the current k-mer
func (r *Register[W]) Value() W {
	return r.value
}

// Full reports whether the register holds a complete k-mer
func (r *Register[W]) Full() bool {
	return r.filled == r.size
}

// Size is the k-mer length held by the register
func (r *Register[W]) Size() int {
	return r.size
}

// Reset empties the register
func (r *Register[W]) Reset() {
	var zero W
	r.value = zero
	r.filled = 0
}

// RCRegister holds the reverse complement of the k-mer ending at the most recent base
//
// complemented codes enter at the top and move down, so no re-scan of the k-mer is ever needed
type RCRegister[W Word[W]] struct {
	value      W
	shift      uint
	bits       uint
	complement []uint8
}

// NewRCRegister returns a reverse complement register for k-mers of the given size
//
// the encoding must have a complement map
func NewRCRegister[W Word[W]](size int, enc *Encoding) RCRegister[W] {
	return RCRegister[W]{
		shift:      uint(size-1) * enc.bits,
		bits:       enc.bits,
		complement: enc.complement,
	}
}

// Advance adds the complement of the next (forward) code
func (r *RCRegister[W]) Advance(code uint8) {
	r.value = r.value.Shr(r.bits).Or(r.value.FromCode(r.complement[code]).Shl(r.shift))
}

// Value returns the current reverse complement k-mer
func (r *RCRegister[W]) Value() W {
	return r.value
}

// Reset empties the register
func (r *RCRegister[W]) Reset() {
	var zero W
	r.value = zero
}
