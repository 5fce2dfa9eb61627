package pipeline

/*
 this part of the pipeline will read sequences, find their minimizers and then write or tally them
*/

import (
	"bufio"
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"
	"gopkg.in/vmihailenco/msgpack.v2"

	"github.com/will-rowe/minimizer/src/compress"
	"github.com/will-rowe/minimizer/src/kmer"
	"github.com/will-rowe/minimizer/src/seqio"
	"github.com/will-rowe/minimizer/src/stats"
)

// Record is a single minimizer, as written by the sketch command
type Record struct {
	SeqID    string `msgpack:"id"`
	Position int    `msgpack:"pos"`
	Kmer     string `msgpack:"kmer"`
	Value    string `msgpack:"value"`
	Strand   string `msgpack:"strand"`
}

// Batch holds the minimizers of one sequence (or one fragment of it when records are split at unreadable symbols)
type Batch struct {
	SeqID   string
	Offset  int
	Length  int
	Kmers   int
	Records []Record
}

// DataStreamer is a pipeline process that streams sequences from STDIN/file
type DataStreamer struct {
	info    *Info
	input   []string
	output  chan *seqio.Sequence
	enc     *kmer.Encoding
	count   int
	invalid int // unreadable bases seen when records are split, rather than rejected
	err     error
}

// NewDataStreamer is the constructor
func NewDataStreamer(info *Info) *DataStreamer {
	return &DataStreamer{info: info, output: make(chan *seqio.Sequence, BUFFERSIZE), enc: kmer.DefaultEncoding()}
}

// Connect is the method to connect the DataStreamer to some data source, no files (or "-") means STDIN
func (proc *DataStreamer) Connect(input []string) {
	proc.input = input
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *DataStreamer) Run() {
	defer close(proc.output)
	inputs := proc.input
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	for _, input := range inputs {
		if proc.err = proc.stream(input); proc.err != nil {
			return
		}
	}
	log.Printf("\tnumber of sequences received from input: %d\n", proc.count)
	if proc.info.SplitInvalid {
		log.Printf("\tnumber of unreadable bases skipped: %d\n", proc.invalid)
	}
}

// stream sends every record in one input
func (proc *DataStreamer) stream(input string) error {
	fh, err := compress.Open(input)
	if err != nil {
		return err
	}
	defer fh.Close()
	reader, err := seqio.NewReader(fh)
	if err != nil {
		return errors.Wrapf(err, "could not read %v", input)
	}
	for {
		s, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "could not read %v", input)
		}
		proc.count++
		if proc.info.SplitInvalid {
			proc.invalid += s.BaseCheck(proc.enc)
		}
		proc.output <- s
	}
}

// Err returns the error that stopped the process
func (proc *DataStreamer) Err() error {
	return proc.err
}

// Sketcher is a pipeline process that finds the minimizers of each sequence, using one minion per processor
type Sketcher[W kmer.Word[W]] struct {
	info   *Info
	input  chan *seqio.Sequence
	output chan *Batch
	boss   *theBoss[W]
}

// NewSketcher is the constructor, it fails if the runtime info does not describe a valid minimizer scheme
func NewSketcher[W kmer.Word[W]](info *Info) (*Sketcher[W], error) {
	cfg, err := NewConfig[W](info)
	if err != nil {
		return nil, err
	}
	output := make(chan *Batch, BUFFERSIZE)
	return &Sketcher[W]{info: info, output: output, boss: newBoss(info, cfg, output)}, nil
}

// Connect is the method to join the input of this process with the output of a DataStreamer
func (proc *Sketcher[W]) Connect(previous *DataStreamer) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *Sketcher[W]) Run() {
	defer close(proc.output)
	proc.boss.sketch(proc.input)
	log.Printf("\tnumber of sequences sketched: %d\n", proc.boss.receivedCount)
	log.Printf("\tnumber of fragments skipped as too short: %d\n", proc.boss.skippedCount)
}

// Err returns the error that stopped the process
func (proc *Sketcher[W]) Err() error {
	return proc.boss.err
}

// Writer is a pipeline process to write minimizer records as TSV or msgpack
type Writer struct {
	info  *Info
	input chan *Batch
	count int
	err   error
}

// NewWriter is the constructor
func NewWriter(info *Info) *Writer {
	return &Writer{info: info}
}

// Connect is the method to join the input of this process with the output of a Sketcher
func (proc *Writer) Connect(previous interface{ Output() chan *Batch }) {
	proc.input = previous.Output()
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *Writer) Run() {
	proc.err = proc.write()
	// keep draining so the upstream processes can finish
	for range proc.input {
	}
	if proc.err == nil {
		log.Printf("\tnumber of minimizers written: %d\n", proc.count)
	}
}

func (proc *Writer) write() (err error) {
	out, err := compress.Create(proc.info.Sketch.Output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "could not close %v", proc.info.Sketch.Output)
		}
	}()
	buf := bufio.NewWriter(out)
	var encode func(*Record) error
	switch proc.info.Sketch.Format {
	case FormatTSV, "":
		if _, err := fmt.Fprintln(buf, "#seqID\tposition\tkmer\tvalue\tstrand"); err != nil {
			return err
		}
		encode = func(r *Record) error {
			_, err := fmt.Fprintf(buf, "%s\t%d\t%s\t%s\t%s\n", r.SeqID, r.Position, r.Kmer, r.Value, r.Strand)
			return err
		}
	case FormatMsgpack:
		enc := msgpack.NewEncoder(buf)
		encode = func(r *Record) error {
			return enc.Encode(r)
		}
	default:
		return fmt.Errorf("unknown output format: %v", proc.info.Sketch.Format)
	}
	for batch := range proc.input {
		for i := range batch.Records {
			if err := encode(&batch.Records[i]); err != nil {
				return errors.Wrapf(err, "could not write to %v", proc.info.Sketch.Output)
			}
			proc.count++
		}
	}
	return errors.Wrapf(buf.Flush(), "could not write to %v", proc.info.Sketch.Output)
}

// Err returns the error that stopped the process
func (proc *Writer) Err() error {
	return proc.err
}

// Count returns the number of minimizers written
func (proc *Writer) Count() int {
	return proc.count
}

// Tallier is a pipeline process that collects density statistics instead of writing the minimizers
type Tallier struct {
	info  *Info
	input chan *Batch
	tally *stats.Tally
}

// NewTallier is the constructor
func NewTallier(info *Info) *Tallier {
	return &Tallier{info: info, tally: stats.NewTally(info.Width)}
}

// Connect is the method to join the input of this process with the output of a Sketcher
func (proc *Tallier) Connect(previous interface{ Output() chan *Batch }) {
	proc.input = previous.Output()
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *Tallier) Run() {
	for batch := range proc.input {
		positions := make([]int, len(batch.Records))
		for i, r := range batch.Records {
			positions[i] = r.Position
		}
		proc.tally.Add(positions, batch.Kmers)
	}
	log.Printf("\tobserved density: %.4f (random minimizer %.4f)\n", proc.tally.Density(), proc.tally.Expected())
}

// Tally returns the collected statistics
func (proc *Tallier) Tally() *stats.Tally {
	return proc.tally
}

// Output returns the channel the Sketcher sends batches on
func (proc *Sketcher[W]) Output() chan *Batch {
	return proc.output
}
