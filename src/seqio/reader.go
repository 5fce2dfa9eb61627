package seqio

import (
	"bufio"
	"io"

	"github.com/biogo/biogo/alphabet"
	bioseqio "github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
)

// Format is the sequence file format detected by NewReader
type Format int

const (
	// FASTA records start with '>'
	FASTA Format = iota
	// FASTQ records start with '@'
	FASTQ
)

func (f Format) String() string {
	if f == FASTQ {
		return "FASTQ"
	}
	return "FASTA"
}

// ErrFormat is returned when the input is neither FASTA nor FASTQ
var ErrFormat = errors.New("input does not look like FASTA or FASTQ")

// Reader streams Sequences from FASTA or FASTQ data
type Reader struct {
	format Format
	reader bioseqio.Reader
	empty  bool
}

// NewReader sniffs the first byte of r to pick a FASTA or FASTQ parser
//
// empty input gives a Reader that returns io.EOF straight away
func NewReader(r io.Reader) (*Reader, error) {
	buf := bufio.NewReader(r)
	first, err := buf.Peek(1)
	if err == io.EOF {
		return &Reader{empty: true}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not read sequence input")
	}
	switch first[0] {
	case '>':
		return &Reader{format: FASTA, reader: fasta.NewReader(buf, linear.NewSeq("", nil, alphabet.DNAredundant))}, nil
	case '@':
		return &Reader{format: FASTQ, reader: fastq.NewReader(buf, linear.NewQSeq("", nil, alphabet.DNAredundant, alphabet.Sanger))}, nil
	}
	return nil, errors.Wrapf(ErrFormat, "first byte is %q", first[0])
}

// Format returns the detected format
func (r *Reader) Format() Format {
	return r.format
}

// Read returns the next record, or io.EOF once the input is finished
func (r *Reader) Read() (*Sequence, error) {
	if r.empty {
		return nil, io.EOF
	}
	record, err := r.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, errors.Wrapf(err, "could not parse %v record", r.format)
	}
	return convert(record), nil
}

// convert copies a biogo sequence into a Sequence
func convert(record seq.Sequence) *Sequence {
	s := &Sequence{ID: []byte(record.Name())}
	switch record := record.(type) {
	case *linear.Seq:
		s.Seq = make([]byte, len(record.Seq))
		for i, l := range record.Seq {
			s.Seq[i] = byte(l)
		}
	case *linear.QSeq:
		s.Seq = make([]byte, len(record.Seq))
		s.Qual = make([]byte, len(record.Seq))
		for i, ql := range record.Seq {
			s.Seq[i] = byte(ql.L)
			s.Qual[i] = ql.Q.Encode(alphabet.Sanger)
		}
	default:
		s.Seq = make([]byte, record.Len())
		for i := range s.Seq {
			s.Seq[i] = byte(record.At(i + record.Start()).L)
		}
	}
	return s
}
