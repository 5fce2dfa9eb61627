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
	"fmt"
	"log"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/will-rowe/minimizer/src/kmer"
	"github.com/will-rowe/minimizer/src/misc"
	"github.com/will-rowe/minimizer/src/pipeline"
	"github.com/will-rowe/minimizer/src/version"
)

// the command line arguments
var (
	sketchScheme *schemeFlags // the minimizer scheme
	outFile      *string      // where to write the minimizers
	outFormat    *string      // tsv or msgpack
	infoFile     *string      // where to save the runtime info
)

// the sketch command (used by cobra)
var sketchCmd = &cobra.Command{
	Use:   "sketch",
	Short: "Write the minimizers of a set of FASTA/FASTQ sequences",
	Long: `Write the minimizers of a set of FASTA/FASTQ sequences.

One record is written per minimizer: the sequence ID, the position of the k-mer,
the k-mer itself, its packed value and its strand (+/- for canonical minimizers).`,
	Run: func(cmd *cobra.Command, args []string) {
		runSketch(cmd)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	sketchScheme = addSchemeFlags(sketchCmd)
	outFile = sketchCmd.Flags().StringP("output", "o", "-", "output file, compressed when it ends in .gz, .zst or .lz4 (default = STDOUT)")
	outFormat = sketchCmd.Flags().StringP("format", "f", pipeline.FormatTSV, "output format (tsv or msgpack)")
	infoFile = sketchCmd.Flags().String("info", "", "save the runtime info (msgpack) to this file")
	RootCmd.AddCommand(sketchCmd)
}

// sketchParamCheck is a function to check user supplied parameters
func sketchParamCheck(info *pipeline.Info) error {
	switch info.Sketch.Format {
	case pipeline.FormatTSV, pipeline.FormatMsgpack:
	default:
		return fmt.Errorf("unknown output format: %v (use %v or %v)", info.Sketch.Format, pipeline.FormatTSV, pipeline.FormatMsgpack)
	}
	return schemeParamCheck(info)
}

// runSketch is the main function for the sketch sub-command
func runSketch(cmd *cobra.Command) {

	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}

	// start logging
	if logFH := startLogging(); logFH != nil {
		defer logFH.Close()
	}
	log.Printf("minimizer (version %s)", version.GetVersion())
	log.Printf("starting the sketch subcommand")

	// check the supplied files and then log some stuff
	log.Printf("checking parameters...")
	info, err := buildInfo(cmd, sketchScheme)
	misc.ErrorCheck(err)
	if *configFile == "" || cmd.Flags().Changed("output") {
		info.Sketch.Output = *outFile
	}
	if *configFile == "" || cmd.Flags().Changed("format") {
		info.Sketch.Format = *outFormat
	}
	misc.ErrorCheck(sketchParamCheck(info))
	logScheme(info)
	log.Printf("\toutput: %v (%v)", info.Sketch.Output, info.Sketch.Format)

	// run the pipeline with the integer width requested
	log.Printf("initialising sketch pipeline...")
	var count int
	if info.Bits == 128 {
		count, err = sketchPipeline[kmer.U128](info)
	} else {
		count, err = sketchPipeline[kmer.U64](info)
	}
	misc.ErrorCheck(err)
	log.Printf("\ttotal number of minimizers: %d", count)

	// record runtime info
	if *infoFile != "" {
		misc.ErrorCheck(info.Dump(*infoFile))
		log.Printf("saved runtime info to %v", *infoFile)
	}
	log.Println(misc.PrintMemUsage())
	log.Println("finished")
}

// sketchPipeline connects the reader, sketcher and writer processes and runs them
func sketchPipeline[W kmer.Word[W]](info *pipeline.Info) (int, error) {
	dataStream := pipeline.NewDataStreamer(info)
	sketcher, err := pipeline.NewSketcher[W](info)
	if err != nil {
		return 0, err
	}
	writer := pipeline.NewWriter(info)

	// arrange pipeline processes
	dataStream.Connect(info.Inputs)
	sketcher.Connect(dataStream)
	writer.Connect(sketcher)

	// submit each process to the pipeline to be run
	newPipeline := pipeline.NewPipeline()
	newPipeline.AddProcesses(dataStream, sketcher, writer)
	log.Printf("\tnumber of processes added to the sketch pipeline: %d\n", newPipeline.GetNumProcesses())
	if err := newPipeline.Run(); err != nil {
		return 0, err
	}
	return writer.Count(), nil
}
