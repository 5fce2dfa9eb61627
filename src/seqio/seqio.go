/*
	the seqio package contains custom types and methods for reading and holding sequence data
*/
package seqio

import (
	"github.com/will-rowe/minimizer/src/kmer"
)

// complementBases is the lookup table used during reverse complementation
var complementBases = [256]byte{
	'A': 'T',
	'T': 'A',
	'C': 'G',
	'G': 'C',
	'N': 'N',
	'a': 't',
	't': 'a',
	'c': 'g',
	'g': 'c',
	'n': 'n',
}

// Sequence is the base type for a FASTA/FASTQ record, or a fragment of one
type Sequence struct {
	ID     []byte
	Seq    []byte
	Qual   []byte // nil for FASTA
	Offset int    // position of Seq[0] in the original record
}

// BaseCheck is a method to convert bases to upper case, it returns the number of bytes the encoding can't read
func (s *Sequence) BaseCheck(enc *kmer.Encoding) int {
	invalid := 0
	for i, base := range s.Seq {
		if base >= 'a' && base <= 'z' {
			s.Seq[i] = base - ('a' - 'A')
		}
		if _, ok := enc.Lookup(s.Seq[i]); !ok {
			invalid++
		}
	}
	return invalid
}

// RevComplement is a method to reverse complement a nucleotide sequence (in place), quality scores are reversed too
//
// bytes with no complement (anything outside ACGTN) become N
func (s *Sequence) RevComplement() {
	for i, base := range s.Seq {
		if s.Seq[i] = complementBases[base]; s.Seq[i] == 0 {
			s.Seq[i] = 'N'
		}
	}
	for i, j := 0, len(s.Seq)-1; i < j; i, j = i+1, j-1 {
		s.Seq[i], s.Seq[j] = s.Seq[j], s.Seq[i]
	}
	for i, j := 0, len(s.Qual)-1; i < j; i, j = i+1, j-1 {
		s.Qual[i], s.Qual[j] = s.Qual[j], s.Qual[i]
	}
}

// Split is a method to break a sequence at every symbol the encoding can't read
//
// each fragment shares the ID and backing array of the parent and carries its own Offset. Fragments shorter than minLength are dropped
func (s *Sequence) Split(enc *kmer.Encoding, minLength int) []Sequence {
	var fragments []Sequence
	start := 0
	flush := func(end int) {
		if end-start >= minLength && end > start {
			frag := Sequence{ID: s.ID, Seq: s.Seq[start:end], Offset: s.Offset + start}
			if s.Qual != nil {
				frag.Qual = s.Qual[start:end]
			}
			fragments = append(fragments, frag)
		}
	}
	for i, base := range s.Seq {
		if _, ok := enc.Lookup(base); !ok {
			flush(i)
			start = i + 1
		}
	}
	flush(len(s.Seq))
	return fragments
}
