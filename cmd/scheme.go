// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/will-rowe/minimizer/src/minimizer"
	"github.com/will-rowe/minimizer/src/misc"
	"github.com/will-rowe/minimizer/src/pipeline"
	"github.com/will-rowe/minimizer/src/version"
)

// seqExts are the accepted sequence file extensions (a compression extension may follow)
var seqExts = []string{"fasta", "fa", "fna", "fas", "fastq", "fq"}

// schemeFlags holds the minimizer scheme arguments shared by the sketch and stats commands
type schemeFlags struct {
	inputs        *[]string // FASTA/FASTQ files to read
	minimizerSize *int      // k-mer size
	width         *int      // k-mers per window
	seed          *uint64   // seed for the hash order
	canonical     *bool     // strand independent minimizers
	mod           *bool     // use mod-minimizers
	modFloor      *int      // smallest sub-k-mer size for mod-minimizers
	hasher        *string   // order used to rank k-mers
	bits          *int      // integer width holding the packed k-mers
	splitInvalid  *bool     // split records at unreadable bases instead of failing
}

// addSchemeFlags registers the minimizer scheme arguments on a command
func addSchemeFlags(cmd *cobra.Command) *schemeFlags {
	flags := cmd.Flags()
	return &schemeFlags{
		inputs:        flags.StringSliceP("input", "i", []string{}, "FASTA/FASTQ file(s), optionally .gz/.zst/.lz4 compressed (default = STDIN)"),
		minimizerSize: flags.IntP("minimizerSize", "m", minimizer.DefaultMinimizerSize, "size of k-mer (m)"),
		width:         flags.IntP("width", "w", minimizer.DefaultWidth, "number of consecutive k-mers in a window (w)"),
		seed:          flags.Uint64("seed", 0, "seed for the hash order"),
		canonical:     flags.Bool("canonical", false, "select the same minimizers on both strands (needs an odd window width)"),
		mod:           flags.Bool("mod", false, "use mod-minimizers, which compare sub-k-mers of size r + (m - r) mod w"),
		modFloor:      flags.IntP("modFloor", "r", minimizer.DefaultModFloor, "smallest sub-k-mer size for mod-minimizers (r)"),
		hasher:        flags.String("hasher", pipeline.HasherXX, "order used to rank k-mers (xx, identity or nthash)"),
		bits:          flags.Int("bits", 64, "integer width holding a packed k-mer (64 or 128), m can be at most bits/2"),
		splitInvalid:  flags.Bool("splitInvalid", false, "split records at non-ACGT bases and sketch each part, instead of failing"),
	}
}

// buildInfo collects the runtime info from the config file (if given) and the command line
//
// without a config file every flag applies, with one only the flags set on the command line override it
func buildInfo(cmd *cobra.Command, scheme *schemeFlags) (*pipeline.Info, error) {
	info := pipeline.NewInfo(version.GetVersion())
	fromConfig := *configFile != ""
	if fromConfig {
		if err := loadConfig(*configFile, info); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	use := func(name string) bool {
		return !fromConfig || flags.Changed(name)
	}
	if use("processors") {
		info.NumProc = *proc
	}
	if use("profiling") {
		info.Profiling = *profiling
	}
	if use("input") {
		info.Inputs = *scheme.inputs
	}
	if use("minimizerSize") {
		info.MinimizerSize = *scheme.minimizerSize
	}
	if use("width") {
		info.Width = *scheme.width
	}
	if use("seed") {
		info.Seed = *scheme.seed
	}
	if use("canonical") {
		info.Canonical = *scheme.canonical
	}
	if use("mod") {
		info.ModMinimizer = *scheme.mod
	}
	if use("modFloor") {
		info.ModFloor = *scheme.modFloor
	}
	if use("hasher") {
		info.Hasher = *scheme.hasher
	}
	if use("bits") {
		info.Bits = *scheme.bits
	}
	if use("splitInvalid") {
		info.SplitInvalid = *scheme.splitInvalid
	}
	return info, nil
}

// loadConfig reads a TOML run file, or the runtime info saved by sketch --info (.info), into info
func loadConfig(path string, info *pipeline.Info) error {
	if filepath.Ext(path) == ".info" {
		if err := info.Load(path); err != nil {
			return errors.Wrapf(err, "could not load runtime info %v", path)
		}
		info.Version = version.GetVersion()
		return nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "could not read config file")
	}
	if err := toml.Unmarshal(data, info); err != nil {
		return errors.Wrapf(err, "could not parse config file %v", path)
	}
	return nil
}

// schemeParamCheck is a function to check the inputs and minimizer scheme
func schemeParamCheck(info *pipeline.Info) error {
	if len(info.Inputs) == 0 {
		if err := misc.CheckSTDIN(); err != nil {
			return errors.Wrap(err, "no input files given and STDIN can't be read")
		}
		log.Printf("\tinput file: using STDIN")
	}
	for _, input := range info.Inputs {
		if input == "-" {
			continue
		}
		if err := misc.CheckFile(input); err != nil {
			return err
		}
		if err := misc.CheckExt(input, seqExts); err != nil {
			return err
		}
		log.Printf("\tinput file: %v", input)
	}
	if err := info.Check(); err != nil {
		return err
	}

	// set number of processors to use
	if info.NumProc <= 0 || info.NumProc > runtime.NumCPU() {
		info.NumProc = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(info.NumProc)
	return nil
}

// startLogging sends the log to the --log file, or STDERR as STDOUT may carry the output
func startLogging() *os.File {
	if *logFile == "" {
		log.SetOutput(os.Stderr)
		return nil
	}
	logFH := misc.StartLogging(*logFile)
	log.SetOutput(logFH)
	return logFH
}

// logScheme records the minimizer scheme in the log
func logScheme(info *pipeline.Info) {
	log.Printf("\tprocessors: %d", info.NumProc)
	log.Printf("\tminimizer size (m): %d", info.MinimizerSize)
	log.Printf("\twindow width (w): %d", info.Width)
	log.Printf("\thasher: %v (seed %d)", info.Hasher, info.Seed)
	log.Printf("\tinteger width: %d bits", info.Bits)
	log.Printf("\tcanonical: %v", info.Canonical)
	if info.ModMinimizer {
		log.Printf("\tmod-minimizer: enabled (r = %d)", info.ModFloor)
	} else {
		log.Printf("\tmod-minimizer: disabled")
	}
	log.Printf("\tsplit at unreadable bases: %v", info.SplitInvalid)
}
