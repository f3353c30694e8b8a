package pipeline

import (
	"fmt"
	"runtime"

	"github.com/will-rowe/sketchcodec/src/kmer"
	"github.com/will-rowe/sketchcodec/src/sketch"
	"github.com/will-rowe/sketchcodec/src/store"
)

// Info stores the runtime information for a conversion
type Info struct {
	Version  string
	NumProc  int
	OutDir   string
	Format   store.Format
	Compress store.Compression

	// Schema is the default schema for JSON sketches that don't declare one
	Schema sketch.Schema

	// ValidateKmerSize checks every sketch against its container k-mer size on load
	ValidateKmerSize bool

	// Filter is applied to every sketch when set
	Filter sketch.Filter

	// LegacyHasher and LegacySeed are used to rebuild hashes from legacy binary sketches, which don't record them
	LegacyHasher kmer.Hasher
	LegacySeed   uint64
}

// Check fills in defaults and makes sure the runtime information is usable
func (Info *Info) Check() error {
	if Info.OutDir == "" {
		return fmt.Errorf("no output directory set")
	}
	if Info.Format == store.FormatUnknown {
		return fmt.Errorf("no output format set")
	}
	if Info.NumProc <= 0 || Info.NumProc > runtime.NumCPU() {
		Info.NumProc = runtime.NumCPU()
	}
	if Info.LegacyHasher == nil {
		Info.LegacyHasher = kmer.DefaultHasher
	}
	return nil
}

// decodeOptions returns the sketch decode options for this run
func (Info *Info) decodeOptions() []sketch.DecodeOption {
	return []sketch.DecodeOption{sketch.WithSchema(Info.Schema), sketch.WithKmerLengthValidation(Info.ValidateKmerSize)}
}
