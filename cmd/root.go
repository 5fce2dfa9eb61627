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
	"os"

	"github.com/spf13/cobra"
)

// the command line arguments
var (
	proc       *int    // number of processors to use
	profiling  *bool   // create profile for go pprof
	logFile    *string // filename for log file, STDERR is used when empty
	configFile *string // TOML file (or saved .info file) holding the run parameters
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "minimizer",
	Short: "select the (mod-)minimizers of nucleotide sequences",
	Long: `
#####################################################################################
		minimizer: streaming (mod-)minimizer sketches
#####################################################################################

 minimizer slides a window of w consecutive k-mers over each sequence and
 keeps the k-mer with the smallest hash from every window.

 Random, lexicographic and ntHash orders are available, along with canonical
 (strand independent) minimizers and mod-minimizers, which lower the density
 when k-mers are long compared to the window.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

/*
  A function to initalise the command line arguments
*/
func init() {
	proc = RootCmd.PersistentFlags().IntP("processors", "p", 1, "number of processors to use")
	profiling = RootCmd.PersistentFlags().Bool("profiling", false, "create the files needed to profile minimizer using the go tool pprof")
	logFile = RootCmd.PersistentFlags().String("log", "", "filename for log file, default = STDERR")
	configFile = RootCmd.PersistentFlags().String("config", "", "TOML file with the run parameters, or a runtime info file saved by sketch --info (flags set on the command line take precedence)")
}
