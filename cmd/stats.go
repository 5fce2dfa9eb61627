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
	"log"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/will-rowe/minimizer/src/compress"
	"github.com/will-rowe/minimizer/src/kmer"
	"github.com/will-rowe/minimizer/src/misc"
	"github.com/will-rowe/minimizer/src/pipeline"
	"github.com/will-rowe/minimizer/src/stats"
	"github.com/will-rowe/minimizer/src/version"
)

// the command line arguments
var (
	statsScheme *schemeFlags // the minimizer scheme
	reportFile  *string      // where to write the report
	plotFile    *string      // where to save the gap distribution plot
)

// the stats command (used by cobra)
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report the density of a minimizer scheme on a set of FASTA/FASTQ sequences",
	Long: `Report the density of a minimizer scheme on a set of FASTA/FASTQ sequences.

The density (minimizers per k-mer) is reported next to the 2/(w+1) expected for a
random minimizer, along with the distribution of distances between consecutive
minimizers, which can also be plotted.`,
	Run: func(cmd *cobra.Command, args []string) {
		runStats(cmd)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	statsScheme = addSchemeFlags(statsCmd)
	reportFile = statsCmd.Flags().StringP("output", "o", "-", "file to write the report to (default = STDOUT)")
	plotFile = statsCmd.Flags().String("plot", "", "save a plot of the gap distribution to this file (.png, .svg or .pdf)")
	RootCmd.AddCommand(statsCmd)
}

// runStats is the main function for the stats sub-command
func runStats(cmd *cobra.Command) {

	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}

	// start logging
	if logFH := startLogging(); logFH != nil {
		defer logFH.Close()
	}
	log.Printf("minimizer (version %s)", version.GetVersion())
	log.Printf("starting the stats subcommand")

	// check the supplied files and then log some stuff
	log.Printf("checking parameters...")
	info, err := buildInfo(cmd, statsScheme)
	misc.ErrorCheck(err)
	if *configFile == "" || cmd.Flags().Changed("output") {
		info.Stats.Report = *reportFile
	}
	if *configFile == "" || cmd.Flags().Changed("plot") {
		info.Stats.Plot = *plotFile
	}
	misc.ErrorCheck(schemeParamCheck(info))
	logScheme(info)

	// run the pipeline with the integer width requested
	log.Printf("initialising stats pipeline...")
	var tally *stats.Tally
	if info.Bits == 128 {
		tally, err = statsPipeline[kmer.U128](info)
	} else {
		tally, err = statsPipeline[kmer.U64](info)
	}
	misc.ErrorCheck(err)

	// write the report and plot
	out, err := compress.Create(info.Stats.Report)
	misc.ErrorCheck(err)
	misc.ErrorCheck(tally.Write(out))
	misc.ErrorCheck(out.Close())
	if info.Stats.Plot != "" {
		misc.ErrorCheck(tally.Plot(info.Stats.Plot))
		log.Printf("saved gap plot to %v", info.Stats.Plot)
	}
	log.Println("finished")
}

// statsPipeline connects the reader, sketcher and tallier processes and runs them
func statsPipeline[W kmer.Word[W]](info *pipeline.Info) (*stats.Tally, error) {
	dataStream := pipeline.NewDataStreamer(info)
	sketcher, err := pipeline.NewSketcher[W](info)
	if err != nil {
		return nil, err
	}
	tallier := pipeline.NewTallier(info)
	dataStream.Connect(info.Inputs)
	sketcher.Connect(dataStream)
	tallier.Connect(sketcher)
	newPipeline := pipeline.NewPipeline()
	newPipeline.AddProcesses(dataStream, sketcher, tallier)
	if err := newPipeline.Run(); err != nil {
		return nil, err
	}
	return tallier.Tally(), nil
}
