// Package minimizer computes the (mod-)minimizers of a sequence in a single pass.
//
// A window is w consecutive k-mers of size m. For each window the k-mer with the smallest order key
// is selected, and the iterator yields a result each time the selected position changes. Positions
// increase, except in canonical mode where a tie between equal keys can move the selection back.
// In canonical mode a k-mer and its reverse complement share a key, and in mod-minimizer mode the key is
// computed over a shorter sub-k-mer whose position, modulo w, selects the k-mer.
package minimizer

import (
	"github.com/will-rowe/minimizer/src/kmer"
)

// State is the stage an Iterator has reached
type State int

const (
	// Priming means fewer bases than one comparison unit have been read
	Priming State = iota
	// WarmingWindow means units are being compared but the first window is not complete yet
	WarmingWindow
	// Emitting means every new base completes a window
	Emitting
	// Exhausted means the input has been consumed (or an error was hit)
	Exhausted
)

func (s State) String() string {
	switch s {
	case Priming:
		return "priming"
	case WarmingWindow:
		return "warming"
	case Emitting:
		return "emitting"
	}
	return "exhausted"
}

// Minimizer is a selected k-mer
type Minimizer[W kmer.Word[W]] struct {
	Value    W    // the packed k-mer as it reads on the input strand
	Position int  // position of the first base of the k-mer
	RC       bool // the canonical form is the reverse complement (canonical mode only)
}

// slot is a k-mer kept for output, indexed by position modulo w
type slot[W kmer.Word[W]] struct {
	value W
	rc    bool
}

// Iterator yields the minimizers of one sequence, it is not safe for concurrent use
type Iterator[W kmer.Word[W]] struct {
	seq       []byte
	enc       *kmer.Encoding
	hasher    Hasher[W]
	seed      uint64
	canonical bool
	m         int
	w         int
	unit      int  // length of the compared unit, m or m' for mod-minimizers
	span      int  // units per window
	unitShift uint // moves a reverse complement k-mer down to the reverse complement of its last unit
	unitMask  W
	fwd       kmer.Register[W]
	rc        kmer.RCRegister[W]
	queue     window
	kmers     []slot[W]
	next      int
	state     State
	emitted   bool
	last      int
	err       error
}

// New validates the configuration and returns an iterator over the minimizers of seq
//
// seq is read, never modified, and must not change while the iterator is in use
func New[W kmer.Word[W]](cfg Config[W], seq []byte) (*Iterator[W], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	unit := cfg.SubSize()
	hasher := cfg.Hasher
	if sized, ok := hasher.(sizedHasher[W]); ok {
		hasher = sized.ForSize(unit)
	}
	bitsPerCode := cfg.Encoding.BitsPerCode()
	span := cfg.Width + cfg.MinimizerSize - unit
	var zero W
	it := &Iterator[W]{
		seq:       seq,
		enc:       cfg.Encoding,
		hasher:    hasher,
		seed:      cfg.Seed,
		canonical: cfg.Canonical,
		m:         cfg.MinimizerSize,
		w:         cfg.Width,
		unit:      unit,
		span:      span,
		unitShift: uint(cfg.MinimizerSize-unit) * bitsPerCode,
		unitMask:  zero.Mask(uint(unit) * bitsPerCode),
		fwd:       kmer.NewRegister[W](cfg.MinimizerSize, bitsPerCode),
		queue:     newWindow(span),
		kmers:     make([]slot[W], cfg.Width),
	}
	if cfg.Canonical {
		it.rc = kmer.NewRCRegister[W](cfg.MinimizerSize, cfg.Encoding)
	}
	return it, nil
}

// Next advances to the next minimizer
//
// the bool is false once the input is exhausted; the error is set (on this and every later call) if an invalid symbol was read
func (it *Iterator[W]) Next() (Minimizer[W], bool, error) {
	for it.state != Exhausted {
		if it.next == len(it.seq) {
			it.state = Exhausted
			break
		}
		symbol := it.seq[it.next]
		code, valid := it.enc.Lookup(symbol)
		if !valid {
			it.state = Exhausted
			it.err = &InvalidSymbolError{Symbol: symbol, Position: it.next}
			break
		}
		it.next++
		it.fwd.Advance(code)
		if it.canonical {
			it.rc.Advance(code)
		}
		if it.next < it.unit {
			continue
		}
		if it.next >= it.m {
			it.store(it.next - it.m)
		}

		// admit the unit ending at this base and drop anything left of the window
		unitPos := it.next - it.unit
		it.queue.push(entry{key: it.key(), pos: unitPos})
		start := unitPos - it.span + 1
		it.queue.evictBefore(start)
		if start < 0 {
			it.state = WarmingWindow
			continue
		}
		it.state = Emitting
		pos := it.selectPosition(start)
		if it.emitted && pos == it.last {
			continue
		}
		it.emitted, it.last = true, pos
		s := it.kmers[pos%it.w]
		return Minimizer[W]{Value: s.value, Position: pos, RC: s.rc}, true, nil
	}
	return Minimizer[W]{}, false, it.err
}

// key computes the order key of the unit ending at the current base
func (it *Iterator[W]) key() uint64 {
	x := it.fwd.Value().And(it.unitMask)
	if it.canonical {
		if rc := it.rc.Value().Shr(it.unitShift); rc.Less(x) {
			x = rc
		}
	}
	return it.hasher.Hash(it.seed, x)
}

// store keeps the k-mer at pos for output
func (it *Iterator[W]) store(pos int) {
	s := slot[W]{value: it.fwd.Value()}
	if it.canonical {
		s.rc = !s.value.Less(it.rc.Value())
	}
	it.kmers[pos%it.w] = s
}

// selectPosition returns the position of the k-mer chosen for the window whose first unit is at start
func (it *Iterator[W]) selectPosition(start int) int {
	unitPos := it.queue.front().pos

	// ties between canonical keys follow the orientation of the middle k-mer, which reverses with the strand
	if it.canonical && it.queue.tied() && it.kmers[(start+it.w/2)%it.w].rc {
		unitPos = it.queue.lastTie().pos
	}
	return start + (unitPos-start)%it.w
}

// State returns the stage the iterator has reached
func (it *Iterator[W]) State() State {
	return it.state
}

// Err returns the error that stopped the iterator, if any
func (it *Iterator[W]) Err() error {
	return it.err
}

// Collect drains the iterator
func (it *Iterator[W]) Collect() ([]Minimizer[W], error) {
	var mins []Minimizer[W]
	for {
		mz, ok, err := it.Next()
		if err != nil {
			return mins, err
		}
		if !ok {
			return mins, nil
		}
		mins = append(mins, mz)
	}
}

// Positions drains the iterator, keeping only the minimizer positions
func (it *Iterator[W]) Positions() ([]int, error) {
	var positions []int
	for {
		mz, ok, err := it.Next()
		if err != nil {
			return positions, err
		}
		if !ok {
			return positions, nil
		}
		positions = append(positions, mz.Position)
	}
}
