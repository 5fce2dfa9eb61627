package minimizer

import (
	"fmt"

	"github.com/will-rowe/minimizer/src/kmer"
)

const (
	// DefaultMinimizerSize is the k-mer size used by DefaultConfig
	DefaultMinimizerSize = 21

	// DefaultWidth is the number of k-mers per window used by DefaultConfig (31 - 21 + 1)
	DefaultWidth = 11

	// DefaultModFloor is the smallest sub-k-mer size used by mod-minimizers
	DefaultModFloor = 4

	// MaxWidth is the largest number of k-mers per window
	MaxWidth = 1<<16 - 1
)

// Config holds the parameters of a minimizer iterator
//
// W fixes the integer width of the packed k-mers (kmer.U64 or kmer.U128). A Config is checked once, by New
type Config[W kmer.Word[W]] struct {
	MinimizerSize int            // k-mer size (m)
	Width         int            // k-mers per window (w)
	Hasher        Hasher[W]      // order key strategy, XXHasher when nil
	Seed          uint64         // passed to the hasher
	Canonical     bool           // fold the reverse complement into the order key
	ModMinimizer  bool           // compare sub-k-mers chosen by the mod-sampling rule
	ModFloor      int            // smallest sub-k-mer size (r) for mod-minimizers, DefaultModFloor when 0
	Encoding      *kmer.Encoding // alphabet, the 2 bit ACGT encoding when nil
}

// DefaultConfig returns m=21, w=11, the xxHash order and the 2 bit ACGT encoding
func DefaultConfig[W kmer.Word[W]]() Config[W] {
	return Config[W]{
		MinimizerSize: DefaultMinimizerSize,
		Width:         DefaultWidth,
		Hasher:        XXHasher[W]{},
		ModFloor:      DefaultModFloor,
		Encoding:      kmer.DefaultEncoding(),
	}
}

// withDefaults fills the optional fields
func (c Config[W]) withDefaults() Config[W] {
	if c.Hasher == nil {
		c.Hasher = XXHasher[W]{}
	}
	if c.Encoding == nil {
		c.Encoding = kmer.DefaultEncoding()
	}
	if c.ModFloor == 0 {
		c.ModFloor = DefaultModFloor
	}
	return c
}

// Validate checks the configuration, returning a *ConfigurationError for the first problem found
func (c Config[W]) Validate() error {
	c = c.withDefaults()
	bitsPerCode := c.Encoding.BitsPerCode()
	if c.MinimizerSize < 1 {
		return &ConfigurationError{"minimizer_size", fmt.Sprintf("must be at least 1 (got %d)", c.MinimizerSize)}
	}
	if limit := kmer.MaxSize[W](bitsPerCode); c.MinimizerSize > limit {
		return &ConfigurationError{"minimizer_size", fmt.Sprintf("must be <= %d with a %d bit integer and %d bits per code (got %d), select a smaller size or a larger integer", limit, kmer.Width[W](), bitsPerCode, c.MinimizerSize)}
	}
	if c.Width < 1 || c.Width > MaxWidth {
		return &ConfigurationError{"width", fmt.Sprintf("must be between 1 and %d (got %d)", MaxWidth, c.Width)}
	}
	if c.Canonical {
		if !c.Encoding.HasComplement() {
			return &ConfigurationError{"canonical", "the encoding has no complement map"}
		}
		if c.Width%2 == 0 {
			return &ConfigurationError{"width", fmt.Sprintf("must be odd to break ties between canonical minimizers (got %d)", c.Width)}
		}
	}
	if c.ModMinimizer {
		if c.ModFloor < 1 {
			return &ConfigurationError{"mod_floor", fmt.Sprintf("must be at least 1 (got %d)", c.ModFloor)}
		}
		if c.MinimizerSize < c.ModFloor {
			return &ConfigurationError{"minimizer_size", fmt.Sprintf("mod-minimizers require minimizer_size >= %d (got %d)", c.ModFloor, c.MinimizerSize)}
		}
	}
	return nil
}

// SubSize returns the length of the unit compared in a window: m' = r + (m - r) mod w for mod-minimizers, m otherwise
func (c Config[W]) SubSize() int {
	c = c.withDefaults()
	if !c.ModMinimizer {
		return c.MinimizerSize
	}
	return c.ModFloor + (c.MinimizerSize-c.ModFloor)%c.Width
}

// Span returns the number of bases covered by one window
func (c Config[W]) Span() int {
	return c.MinimizerSize + c.Width - 1
}
