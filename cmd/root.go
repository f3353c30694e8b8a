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
	"io"
	"log"
	"os"
	"runtime"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/will-rowe/sketchcodec/src/misc"
	"github.com/will-rowe/sketchcodec/src/sketch"
	"github.com/will-rowe/sketchcodec/src/version"
)

// the command line arguments
var (
	proc       *int    // number of processors to use
	profiling  *bool   // create profile for go pprof
	logFile    *string // file to write the log to (stdout if empty)
	tolerant   *bool   // decode JSON sketches with the tolerant schema
	validate   *bool   // check sketches use the container k-mer size
	legacyHash *string // hash function used by legacy binary sketches
	legacySeed *uint64 // hash seed used by legacy binary sketches
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "sketchcodec",
	Short: "convert MinHash sketches between JSON, msgpack and binary formats",
	Long: `
#####################################################################################
		sketchcodec: MinHash sketch serialisation
#####################################################################################

 sketchcodec reads and writes collections of MinHash sketches (hash, k-mer and count
 records) as JSON or msgpack containers and as compact binary sketches.

 Binary sketches do not store hashes, they are rebuilt from the k-mers on load, so the
 hash function and seed used to build a sketch must be known. The framed binary format
 (.kmsk) records both; the legacy format (.bin) needs them to be given on the command line.`,
	Version: version.GetVersion(),
}

/*
  A function to add all child commands to the root command and sets flags appropriately
*/
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
	profiling = RootCmd.PersistentFlags().Bool("profiling", false, "create the files needed to profile sketchcodec using the go tool pprof")
	logFile = RootCmd.PersistentFlags().String("log", "", "filename for log file, default = stdout")
	tolerant = RootCmd.PersistentFlags().Bool("tolerant", false, "allow JSON sketches without k-mers or counts (counts default to 1)")
	validate = RootCmd.PersistentFlags().Bool("validate", false, "check every sketch uses the k-mer size declared by its container")
	legacyHash = RootCmd.PersistentFlags().String("hashType", "murmur3", "hash function used to rebuild the hashes of legacy binary sketches (murmur3, xxhash or nthash)")
	legacySeed = RootCmd.PersistentFlags().Uint64("hashSeed", 0, "hash seed used to rebuild the hashes of legacy binary sketches")
}

// startRun sets up profiling and logging for a sub command, the returned function must be deferred
func startRun(subCommand string) func() {
	var stoppers []func()
	if *profiling {
		p := profile.Start(profile.ProfilePath("./"))
		stoppers = append(stoppers, p.Stop)
	}
	var out io.Writer = os.Stdout
	if *logFile != "" {
		logFH, err := misc.StartLogging(*logFile)
		misc.ErrorCheck(err)
		stoppers = append(stoppers, func() { logFH.Close() })
		out = logFH
	}
	log.SetOutput(out)
	if *proc <= 0 || *proc > runtime.NumCPU() {
		*proc = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(*proc)
	log.Printf("sketchcodec (version %s)", version.GetVersion())
	log.Printf("starting the %v subcommand", subCommand)
	return func() {
		for i := len(stoppers) - 1; i >= 0; i-- {
			stoppers[i]()
		}
	}
}

// decodeOptions returns the sketch decoding options set by the global flags
func decodeOptions() []sketch.DecodeOption {
	return []sketch.DecodeOption{sketch.WithSchema(schemaFlag()), sketch.WithKmerLengthValidation(*validate)}
}

// schemaFlag returns the default schema set by the global flags
func schemaFlag() sketch.Schema {
	if *tolerant {
		return sketch.SchemaTolerant
	}
	return sketch.SchemaStrict
}
