package minimizer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/will-rowe/minimizer/src/kmer"
	"github.com/will-rowe/minimizer/src/seqio"
)

// setup variables
var (
	regressionSeq = []byte("TGATTGCACAATC")
	randomSeq     = randomBases(3000, 42)
	dna           = kmer.DefaultEncoding()
)

// randomBases returns a reproducible random nucleotide sequence
func randomBases(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = "ACGT"[rng.Intn(4)]
	}
	return seq
}

// revComp returns the reverse complement of a nucleotide sequence, leaving seq untouched
func revComp(seq []byte) []byte {
	s := seqio.Sequence{Seq: append([]byte(nil), seq...)}
	s.RevComplement()
	return s.Seq
}

// randomAT returns a reproducible low complexity sequence, which makes canonical keys tie often
func randomAT(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = "AT"[rng.Intn(2)]
	}
	return seq
}

// choices returns the position selected by every window, without any of the rolling machinery
func choices[W kmer.Word[W]](t *testing.T, cfg Config[W], seq []byte) []int {
	cfg = cfg.withDefaults()
	m, w, u := cfg.MinimizerSize, cfg.Width, cfg.SubSize()
	span := w + m - u
	hasher := cfg.Hasher
	if sized, ok := hasher.(sizedHasher[W]); ok {
		hasher = sized.ForSize(u)
	}
	pack := func(pos, size int) W {
		x, err := kmer.Pack[W](seq[pos:pos+size], cfg.Encoding)
		require.NoError(t, err)
		return x
	}
	var selected []int
	for start := 0; start+m+w-1 <= len(seq); start++ {
		var ties []int
		var best uint64
		for j := 0; j < span; j++ {
			x := pack(start+j, u)
			if cfg.Canonical {
				x, _ = kmer.Canonical(x, u, cfg.Encoding)
			}
			key := hasher.Hash(cfg.Seed, x)
			switch {
			case len(ties) == 0 || key < best:
				best, ties = key, []int{j}
			case key == best:
				ties = append(ties, j)
			}
		}
		j := ties[0]
		if cfg.Canonical && len(ties) > 1 {
			if _, rc := kmer.Canonical(pack(start+w/2, m), m, cfg.Encoding); rc {
				j = ties[len(ties)-1]
			}
		}
		selected = append(selected, start+j%w)
	}
	return selected
}

// reference reports a minimizer each time the window selection changes
func reference[W kmer.Word[W]](t *testing.T, cfg Config[W], seq []byte) []Minimizer[W] {
	cfg = cfg.withDefaults()
	m := cfg.MinimizerSize
	var mins []Minimizer[W]
	last := -1
	for _, pos := range choices(t, cfg, seq) {
		if pos == last {
			continue
		}
		last = pos
		mz := Minimizer[W]{Position: pos}
		var err error
		mz.Value, err = kmer.Pack[W](seq[pos:pos+m], cfg.Encoding)
		require.NoError(t, err)
		if cfg.Canonical {
			_, mz.RC = kmer.Canonical(mz.Value, m, cfg.Encoding)
		}
		mins = append(mins, mz)
	}
	return mins
}

func collect[W kmer.Word[W]](t *testing.T, cfg Config[W], seq []byte) []Minimizer[W] {
	it, err := New(cfg, seq)
	require.NoError(t, err)
	mins, err := it.Collect()
	require.NoError(t, err)
	require.Equal(t, Exhausted, it.State())
	return mins
}

func config[W kmer.Word[W]](m, w int) Config[W] {
	cfg := DefaultConfig[W]()
	cfg.MinimizerSize = m
	cfg.Width = w
	return cfg
}

// lexicographic minimizers for the example sequence, m=3 w=4
func TestLexicographicMinimizers(t *testing.T) {
	cfg := config[kmer.U64](3, 4)
	cfg.Hasher = Identity[kmer.U64]{}
	expected := []Minimizer[kmer.U64]{
		{Value: 0b001111, Position: 2}, // ATT
		{Value: 0b010001, Position: 6}, // CAC
		{Value: 0b000100, Position: 7}, // ACA
		{Value: 0b000011, Position: 9}, // AAT
	}
	require.Equal(t, expected, collect(t, cfg, regressionSeq))

	it, err := New(cfg, regressionSeq)
	require.NoError(t, err)
	positions, err := it.Positions()
	require.NoError(t, err)
	require.Equal(t, []int{2, 6, 7, 9}, positions)
}

func TestRegressionVector(t *testing.T) {
	lex := config[kmer.U64](5, 4)
	lex.Hasher = Identity[kmer.U64]{}
	mins := collect(t, lex, regressionSeq)
	require.Len(t, mins, 3)
	assert.Equal(t, []byte("ATTGC"), kmer.Unpack(mins[0].Value, 5, dna))
	assert.Equal(t, 2, mins[0].Position)
	assert.Equal(t, kmer.U64(272), mins[1].Value)
	assert.Equal(t, 6, mins[1].Position)
	assert.Equal(t, []byte("ACAAT"), kmer.Unpack(mins[2].Value, 5, dna))
	assert.Equal(t, 7, mins[2].Position)

	// default hasher and seed: stable across runs and equal to the window-by-window selection
	cfg := config[kmer.U64](5, 4)
	first := collect(t, cfg, regressionSeq)
	require.NotEmpty(t, first)
	require.Equal(t, first, collect(t, cfg, regressionSeq))
	require.Equal(t, reference(t, cfg, regressionSeq), first)
}

func TestMatchesReference(t *testing.T) {
	canonical := config[kmer.U64](15, 11)
	canonical.Canonical = true
	mod := config[kmer.U64](31, 5)
	mod.ModMinimizer = true
	modCanonical := config[kmer.U64](31, 7)
	modCanonical.ModMinimizer, modCanonical.Canonical = true, true
	seeded := config[kmer.U64](11, 8)
	seeded.Seed = 0xdeadbeef
	lex := config[kmer.U64](7, 10)
	lex.Hasher = Identity[kmer.U64]{}
	tests := map[string]Config[kmer.U64]{
		"default":       DefaultConfig[kmer.U64](),
		"small":         config[kmer.U64](3, 2),
		"canonical":     canonical,
		"mod":           mod,
		"mod canonical": modCanonical,
		"seeded":        seeded,
		"lexicographic": lex,
		"full word":     config[kmer.U64](32, 3),
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, reference(t, cfg, randomSeq), collect(t, cfg, randomSeq))
		})
	}

	wide := config[kmer.U128](45, 9)
	wide.Canonical = true
	require.Equal(t, reference(t, wide, randomSeq), collect(t, wide, randomSeq))
	wideMod := config[kmer.U128](64, 6)
	wideMod.ModMinimizer = true
	require.Equal(t, reference(t, wideMod, randomSeq), collect(t, wideMod, randomSeq))
}

func TestPositionsIncrease(t *testing.T) {
	for _, cfg := range []Config[kmer.U64]{config[kmer.U64](21, 11), config[kmer.U64](9, 3), {MinimizerSize: 25, Width: 9, ModMinimizer: true}} {
		mins := collect(t, cfg, randomSeq)
		require.NotEmpty(t, mins)
		for i := 1; i < len(mins); i++ {
			require.Less(t, mins[i-1].Position, mins[i].Position)
		}
		// consecutive minimizers can never be further apart than one window
		for i := 1; i < len(mins); i++ {
			require.LessOrEqual(t, mins[i].Position-mins[i-1].Position, cfg.Width)
		}
	}
}

func TestSlidingWindowMinimum(t *testing.T) {
	cfg := config[kmer.U64](13, 7)
	m, w := cfg.MinimizerSize, cfg.Width
	keys := make([]uint64, len(randomSeq)-m+1)
	for i := range keys {
		x, err := kmer.Pack[kmer.U64](randomSeq[i:i+m], dna)
		require.NoError(t, err)
		keys[i] = cfg.Hasher.Hash(cfg.Seed, x)
	}
	for _, mz := range collect(t, cfg, randomSeq) {
		// some window containing the minimizer must have it as its minimum
		found := false
		for start := mz.Position - w + 1; start <= mz.Position && !found; start++ {
			if start < 0 || start+w > len(keys) {
				continue
			}
			isMin := true
			for j := start; j < start+w; j++ {
				if keys[j] < keys[mz.Position] {
					isMin = false
					break
				}
			}
			found = isMin
		}
		require.True(t, found, "minimizer at %d is not a window minimum", mz.Position)
	}
}

func TestWidthOne(t *testing.T) {
	cfg := config[kmer.U64](4, 1)
	mins := collect(t, cfg, regressionSeq)
	require.Len(t, mins, len(regressionSeq)-4+1)
	for i, mz := range mins {
		require.Equal(t, i, mz.Position)
		require.Equal(t, regressionSeq[i:i+4], kmer.Unpack(mz.Value, 4, dna))
	}

	cfg.ModMinimizer = true
	require.Equal(t, mins, collect(t, cfg, regressionSeq))
}

func TestShortSequences(t *testing.T) {
	cfg := config[kmer.U64](5, 4)
	for n := 0; n < 5+4-1; n++ {
		it, err := New(cfg, regressionSeq[:n])
		require.NoError(t, err)
		_, ok, err := it.Next()
		require.NoError(t, err)
		require.False(t, ok, "no minimizer expected for %d bases", n)
		require.Equal(t, Exhausted, it.State())
	}
	require.Len(t, collect(t, cfg, regressionSeq[:8]), 1, "exactly one window")
}

func TestStates(t *testing.T) {
	cfg := config[kmer.U64](3, 3)
	it, err := New(cfg, []byte("ACGTACGT"))
	require.NoError(t, err)
	require.Equal(t, Priming, it.State())
	_, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Emitting, it.State())

	short, err := New(cfg, []byte("ACGT"))
	require.NoError(t, err)
	_, ok, _ = short.Next()
	require.False(t, ok)
	require.Equal(t, "exhausted", short.State().String())
}

func TestInvalidSymbol(t *testing.T) {
	cfg := config[kmer.U64](3, 2)
	it, err := New(cfg, []byte("ACGTTGCANACGT"))
	require.NoError(t, err)
	mins, err := it.Collect()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidSymbol)
	var symErr *InvalidSymbolError
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, byte('N'), symErr.Symbol)
	assert.Equal(t, 8, symErr.Position)
	assert.NotEmpty(t, mins, "minimizers before the bad symbol are still returned")

	// the failure is terminal
	_, ok, err := it.Next()
	require.False(t, ok)
	require.ErrorIs(t, err, ErrInvalidSymbol)
	require.Equal(t, symErr, it.Err())
}

func TestConfigurationErrors(t *testing.T) {
	noComplement, err := kmer.NewEncoding("ACGT", "")
	require.NoError(t, err)
	tests := map[string]Config[kmer.U64]{
		"zero size":         {MinimizerSize: 0, Width: 3},
		"too large":         {MinimizerSize: 33, Width: 3},
		"zero width":        {MinimizerSize: 5, Width: 0},
		"huge width":        {MinimizerSize: 5, Width: MaxWidth + 2},
		"even canonical":    {MinimizerSize: 5, Width: 4, Canonical: true},
		"no complement":     {MinimizerSize: 5, Width: 3, Canonical: true, Encoding: noComplement},
		"mod below floor":   {MinimizerSize: 3, Width: 3, ModMinimizer: true},
		"negative floor":    {MinimizerSize: 5, Width: 3, ModMinimizer: true, ModFloor: -1},
		"negative size":     {MinimizerSize: -2, Width: 3},
		"mod floor too big": {MinimizerSize: 5, Width: 3, ModMinimizer: true, ModFloor: 6},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			it, err := New(cfg, regressionSeq)
			require.Nil(t, it)
			require.ErrorIs(t, err, ErrConfiguration)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.NotEmpty(t, cfgErr.Option)
		})
	}

	// the widest window is allowed
	_, err = New(Config[kmer.U64]{MinimizerSize: 5, Width: MaxWidth}, regressionSeq)
	require.NoError(t, err)

	// 33 bases fit once the integer is wide enough
	_, err = New(Config[kmer.U128]{MinimizerSize: 33, Width: 3}, regressionSeq)
	require.NoError(t, err)
	_, err = New(Config[kmer.U128]{MinimizerSize: 65, Width: 3}, regressionSeq)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestCanonicalMirror(t *testing.T) {
	plain := config[kmer.U64](15, 11)
	plain.Canonical = true
	mod := config[kmer.U64](31, 7)
	mod.Canonical, mod.ModMinimizer = true, true
	for _, cfg := range []Config[kmer.U64]{plain, mod} {
		m := cfg.MinimizerSize
		forward := collect(t, cfg, randomSeq)
		reverse := collect(t, cfg, revComp(randomSeq))
		require.Equal(t, len(forward), len(reverse))
		for i, mz := range forward {
			mirror := reverse[len(reverse)-1-i]
			require.Equal(t, len(randomSeq)-mz.Position-m, mirror.Position)
			require.Equal(t, kmer.ReverseComplement(mz.Value, m, dna), mirror.Value)
			require.NotEqual(t, mz.RC, mirror.RC)
		}
	}
}

// A/T only sequences tie all the time, so the middle k-mer decides and the selection can step back
func TestCanonicalTies(t *testing.T) {
	// m is odd so no k-mer is its own reverse complement
	var cfgs []Config[kmer.U64]
	for _, mw := range [][2]int{{3, 5}, {5, 3}, {5, 7}, {7, 9}} {
		cfg := config[kmer.U64](mw[0], mw[1])
		cfg.Canonical = true
		cfgs = append(cfgs, cfg)
	}
	for _, mwr := range [][3]int{{7, 3, 2}, {9, 5, 2}, {11, 3, 4}} {
		cfg := config[kmer.U64](mwr[0], mwr[1])
		cfg.Canonical, cfg.ModMinimizer, cfg.ModFloor = true, true, mwr[2]
		require.Less(t, cfg.SubSize(), cfg.MinimizerSize)
		cfgs = append(cfgs, cfg)
	}
	for _, cfg := range cfgs {
		m, w := cfg.MinimizerSize, cfg.Width
		for i := int64(0); i < 50; i++ {
			seq := randomAT(60, i)
			forward := collect(t, cfg, seq)
			reverse := collect(t, cfg, revComp(seq))
			require.Equal(t, reference(t, cfg, seq), forward, "seq %s m=%d w=%d", seq, m, w)

			// every window selection is reported
			emitted := map[int]bool{}
			for j, mz := range forward {
				emitted[mz.Position] = true
				if j > 0 {
					gap := mz.Position - forward[j-1].Position
					require.NotZero(t, gap)
					require.True(t, gap <= w && gap >= -w, "consecutive minimizers are at most a window apart")
				}
			}
			for _, pos := range choices(t, cfg, seq) {
				require.True(t, emitted[pos], "selection %d of %s missing", pos, seq)
			}

			// and the reverse strand gives the mirror image
			require.Len(t, reverse, len(forward), "seq %s", seq)
			for j, mz := range forward {
				mirror := reverse[len(reverse)-1-j]
				require.Equal(t, len(seq)-mz.Position-m, mirror.Position, "seq %s", seq)
				require.Equal(t, kmer.ReverseComplement(mz.Value, m, dna), mirror.Value)
				require.NotEqual(t, mz.RC, mirror.RC)
			}
		}
	}

	// the selection of window 31 lies behind the one reported before it
	seq := []byte("ATATTTTTTAATTTTTTTAAATAATATTATATTTTATAATATAATATTTTAA")
	cfg := config[kmer.U64](5, 7)
	cfg.Canonical = true
	it, err := New(cfg, seq)
	require.NoError(t, err)
	positions, err := it.Positions()
	require.NoError(t, err)
	assert.Contains(t, positions, choices(t, cfg, seq)[31])
}

func TestModMatchesStandard(t *testing.T) {
	for _, cfg := range []Config[kmer.U64]{config[kmer.U64](5, 4), config[kmer.U64](11, 9), config[kmer.U64](4, 20)} {
		mod := cfg
		mod.ModMinimizer = true
		require.Equal(t, cfg.MinimizerSize, mod.SubSize())
		require.Equal(t, collect(t, cfg, randomSeq), collect(t, mod, randomSeq))
	}
	require.Equal(t, collect(t, config[kmer.U64](5, 4), regressionSeq), collect(t, Config[kmer.U64]{MinimizerSize: 5, Width: 4, ModMinimizer: true}, regressionSeq))
}

func TestSubSize(t *testing.T) {
	cfg := Config[kmer.U64]{MinimizerSize: 31, Width: 5, ModMinimizer: true}
	assert.Equal(t, 4+(31-4)%5, cfg.SubSize())
	assert.Equal(t, 35, cfg.Span())
	cfg.ModFloor = 7
	assert.Equal(t, 7+(31-7)%5, cfg.SubSize())
}

func TestWordWidthsAgree(t *testing.T) {
	narrow := collect(t, config[kmer.U64](21, 11), randomSeq)
	wide := collect(t, config[kmer.U128](21, 11), randomSeq)
	require.Equal(t, len(narrow), len(wide))
	for i := range narrow {
		hi, lo := wide[i].Value.Halves()
		require.Zero(t, hi)
		require.Equal(t, uint64(narrow[i].Value), lo)
		require.Equal(t, narrow[i].Position, wide[i].Position)
	}
}

func TestSeedChangesOrder(t *testing.T) {
	a := config[kmer.U64](15, 10)
	a.Seed = 1
	b := a
	b.Seed = 2
	require.NotEqual(t, collect(t, a, randomSeq), collect(t, b, randomSeq))
	require.Equal(t, collect(t, a, randomSeq), collect(t, a, randomSeq))

	// the identity order xors the seed into the packed value
	assert.Equal(t, uint64(0b1101), Identity[kmer.U64]{}.Hash(0, 0b1101))
	assert.Equal(t, uint64(0b0110), Identity[kmer.U64]{}.Hash(0b1011, 0b1101))
	assert.Equal(t, uint64(7), Identity[kmer.U128]{}.Hash(2, kmer.U128{Hi: 9, Lo: 5}))
}

func TestNtHasher(t *testing.T) {
	cfg := config[kmer.U64](11, 5)
	cfg.Hasher = NewNtHasher[kmer.U64](dna)
	seq := randomSeq[:300]
	mins := collect(t, cfg, seq)
	require.NotEmpty(t, mins)
	require.Equal(t, reference(t, cfg, seq), mins)

	h := NewNtHasher[kmer.U64](dna).ForSize(11)
	x, err := kmer.Pack[kmer.U64](seq[:11], dna)
	require.NoError(t, err)
	require.Equal(t, h.Hash(3, x), h.Hash(3, x))
	require.NotEqual(t, h.Hash(3, x), h.Hash(4, x))
}
