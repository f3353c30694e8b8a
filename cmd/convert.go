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
	"time"

	"github.com/spf13/cobra"
	"github.com/will-rowe/sketchcodec/src/kmer"
	"github.com/will-rowe/sketchcodec/src/misc"
	"github.com/will-rowe/sketchcodec/src/pipeline"
	"github.com/will-rowe/sketchcodec/src/store"
	"github.com/will-rowe/sketchcodec/src/version"
)

// the command line arguments
var (
	inputFiles    *[]string                                                        // sketch files to convert
	outDir        *string                                                          // directory to write the converted sketches to
	outFormat     *string                                                          // format to convert to
	gzipOut       *bool                                                            // gzip the output files
	zstdOut       *bool                                                            // zstd compress the output files
	defaultOutDir = "./sketchcodec-" + string(time.Now().Format("20060102150405")) // a default dir to store the converted sketches
)

// the convert command (used by cobra)
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert sketch files between formats",
	Long: `Convert sketch files between formats.

 Containers (.json, .msgpack) are written as one file per input. Binary formats (.bin, .kmsk)
 hold a single sketch, so each sketch in a container is written to its own file. Any input
 can end in .gz or .zst.`,
	Run: func(cmd *cobra.Command, args []string) {
		runConvert()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	inputFiles = convertCmd.Flags().StringSliceP("input", "i", []string{}, "sketch file(s) to convert - required")
	outDir = convertCmd.Flags().StringP("outDir", "o", defaultOutDir, "directory to write converted sketches to")
	outFormat = convertCmd.Flags().StringP("format", "f", "kmsk", "output format (json, msgpack, bin or kmsk)")
	gzipOut = convertCmd.Flags().Bool("gzip", false, "gzip the output files")
	zstdOut = convertCmd.Flags().Bool("zstd", false, "zstd compress the output files")
	convertCmd.MarkFlagRequired("input")
	RootCmd.AddCommand(convertCmd)
}

// a function to check user supplied parameters and build the runtime info
func convertParamCheck() (*pipeline.Info, error) {
	for _, file := range *inputFiles {
		if err := misc.CheckFile(file); err != nil {
			return nil, err
		}
		if _, _, err := store.FormatOf(file); err != nil {
			return nil, err
		}
	}
	format, err := store.ParseFormat(*outFormat)
	if err != nil {
		return nil, err
	}
	if *gzipOut && *zstdOut {
		return nil, fmt.Errorf("choose one of --gzip and --zstd")
	}
	compression := store.CompressionNone
	if *gzipOut {
		compression = store.CompressionGzip
	}
	if *zstdOut {
		compression = store.CompressionZstd
	}
	hasher, err := kmer.HasherByName(*legacyHash)
	if err != nil {
		return nil, err
	}
	if err := misc.CheckDir(*outDir, true); err != nil {
		return nil, err
	}
	info := &pipeline.Info{
		Version:          version.GetVersion(),
		NumProc:          *proc,
		OutDir:           *outDir,
		Format:           format,
		Compress:         compression,
		Schema:           schemaFlag(),
		ValidateKmerSize: *validate,
		LegacyHasher:     hasher,
		LegacySeed:       *legacySeed,
	}
	return info, info.Check()
}

/*
  The main function for the convert command
*/
func runConvert() {
	defer startRun("convert")()
	start := time.Now()
	log.Printf("checking parameters...")
	info, err := convertParamCheck()
	misc.ErrorCheck(err)
	log.Printf("\tprocessors: %d", info.NumProc)
	log.Printf("\tinput files: %d", len(*inputFiles))
	log.Printf("\toutput format: %v", info.Format.Extension())
	log.Printf("\toutput directory: %v", info.OutDir)
	misc.ErrorCheck(convertFiles(info, *inputFiles))
	log.Printf("finished in %s", time.Since(start))
	log.Printf("memory: %v", misc.PrintMemUsage())
}

// convertFiles runs the conversion pipeline and logs what it wrote
func convertFiles(info *pipeline.Info, files []string) error {
	log.Printf("initialising conversion pipeline...")
	convertPipeline := pipeline.NewPipeline()
	reader := pipeline.NewSketchReader(info)
	converter := pipeline.NewSketchConverter(info)
	writer := pipeline.NewSketchWriter(info)
	reader.Connect(files)
	converter.Connect(reader)
	writer.Connect(converter)
	convertPipeline.AddProcesses(reader, converter, writer)
	log.Printf("\tnumber of processes added to the pipeline: %d", convertPipeline.GetNumProcesses())
	if err := convertPipeline.Run(); err != nil {
		return err
	}
	for _, file := range writer.Written() {
		log.Printf("\twrote %v", file)
	}
	return nil
}
