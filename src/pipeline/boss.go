package pipeline

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/will-rowe/minimizer/src/kmer"
	"github.com/will-rowe/minimizer/src/minimizer"
	"github.com/will-rowe/minimizer/src/seqio"
)

// job is a sequence tagged with its place in the input
type job struct {
	index int
	seq   *seqio.Sequence
}

// result is the sketch of one sequence, which may have been split into several batches
type result struct {
	index   int
	batches []*Batch
	err     error
}

// theBoss is used to orchestrate the sketching minions
type theBoss[W kmer.Word[W]] struct {
	info          *Info               // the runtime info for the pipeline
	config        minimizer.Config[W] // the validated minimizer scheme shared by the minions
	output        chan *Batch         // the boss sends finished batches here, in input order
	receivedCount int                 // the number of sequences the boss is sent during it's lifetime
	skippedCount  int                 // the number of fragments shorter than one window
	err           error               // the first error hit by a minion
}

// newBoss will initialise and return theBoss
func newBoss[W kmer.Word[W]](runtimeInfo *Info, config minimizer.Config[W], output chan *Batch) *theBoss[W] {
	return &theBoss[W]{
		info:   runtimeInfo,
		config: config,
		output: output,
	}
}

// sketch is a method to start off the minions and collate their batches, it returns once the input is closed and every batch is sent
func (boss *theBoss[W]) sketch(input chan *seqio.Sequence) {
	jobs := make(chan job, BUFFERSIZE)
	results := make(chan result, BUFFERSIZE)
	numProc := boss.info.NumProc
	if numProc < 1 {
		numProc = 1
	}

	// launch the sketching minions
	var wg sync.WaitGroup
	var skipLock sync.Mutex
	for i := 0; i < numProc; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			skipped := 0
			for j := range jobs {
				batches, short, err := sketchSequence(boss.config, j.seq, boss.info.SplitInvalid)
				skipped += short
				results <- result{index: j.index, batches: batches, err: err}
			}
			skipLock.Lock()
			boss.skippedCount += skipped
			skipLock.Unlock()
		}()
	}

	// hand out the sequences, numbering them so the output keeps the input order
	go func() {
		defer close(jobs)
		index := 0
		for s := range input {
			jobs <- job{index: index, seq: s}
			index++
		}
	}()

	// control the channels
	go func() {
		wg.Wait()
		close(results)
	}()

	// collect the results and send them on in order, stopping output at the first error
	pending := make(map[int]result)
	next := 0
	for res := range results {
		boss.receivedCount++
		pending[res.index] = res
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if boss.err != nil {
				continue
			}
			if ready.err != nil {
				boss.err = ready.err
				continue
			}
			for _, batch := range ready.batches {
				boss.output <- batch
			}
		}
	}
}

// sketchSequence finds the minimizers of one sequence, it returns the number of fragments too short to hold a window
func sketchSequence[W kmer.Word[W]](cfg minimizer.Config[W], s *seqio.Sequence, split bool) ([]*Batch, int, error) {
	if !split {
		batch, err := sketchFragment(cfg, s)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "could not sketch sequence %s (use --splitInvalid to skip unreadable bases)", s.ID)
		}
		return []*Batch{batch}, 0, nil
	}
	var batches []*Batch
	short := 0
	for _, fragment := range s.Split(cfg.Encoding, 1) {
		if len(fragment.Seq) < cfg.Span() {
			short++
			continue
		}
		batch, err := sketchFragment(cfg, &fragment)
		if err != nil {
			return nil, short, errors.Wrapf(err, "could not sketch sequence %s", s.ID)
		}
		batches = append(batches, batch)
	}
	return batches, short, nil
}

// sketchFragment runs a minimizer iterator over a sequence that holds no unreadable symbols
func sketchFragment[W kmer.Word[W]](cfg minimizer.Config[W], s *seqio.Sequence) (*Batch, error) {
	batch := &Batch{SeqID: string(s.ID), Offset: s.Offset, Length: len(s.Seq)}
	if kmers := len(s.Seq) - cfg.MinimizerSize + 1; kmers > 0 {
		batch.Kmers = kmers
	}
	it, err := minimizer.New(cfg, s.Seq)
	if err != nil {
		return nil, err
	}
	for {
		mz, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return batch, nil
		}
		strand := "."
		if cfg.Canonical {
			strand = "+"
			if mz.RC {
				strand = "-"
			}
		}
		batch.Records = append(batch.Records, Record{
			SeqID:    batch.SeqID,
			Position: s.Offset + mz.Position,
			Kmer:     string(kmer.Unpack(mz.Value, cfg.MinimizerSize, cfg.Encoding)),
			Value:    mz.Value.String(),
			Strand:   strand,
		})
	}
}
