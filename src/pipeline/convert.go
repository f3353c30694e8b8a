package pipeline

/*
 this part of the pipeline loads sketch files, optionally filters them and then writes them out in another format
*/

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/will-rowe/sketchcodec/src/kmer"
	"github.com/will-rowe/sketchcodec/src/sketch"
	"github.com/will-rowe/sketchcodec/src/store"
)

// Container is a loaded sketch file moving through the pipeline
type Container struct {
	Source   string
	Sketches *sketch.MultiSketch
}

var nameCleaner = strings.NewReplacer("/", "__", "\t", "__", " ", "_")

// CleanName makes a sketch name safe to use in a file name
func CleanName(name string) string {
	return nameCleaner.Replace(name)
}

// SketchReader is a pipeline process that loads sketch files
type SketchReader struct {
	info   *Info
	input  []string
	output chan *Container
	err    error
}

// NewSketchReader is the constructor
func NewSketchReader(info *Info) *SketchReader {
	return &SketchReader{info: info, output: make(chan *Container, BUFFERSIZE)}
}

// Connect is the method to give the SketchReader its files
func (proc *SketchReader) Connect(input []string) {
	proc.input = input
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *SketchReader) Run() {
	defer close(proc.output)
	for _, path := range proc.input {
		c, err := LoadContainer(proc.info, path)
		if err != nil {
			proc.err = err
			return
		}
		proc.output <- c
	}
}

// Err returns the first error hit by the process
func (proc *SketchReader) Err() error {
	return proc.err
}

// LoadContainer loads a sketch file as a container, a binary sketch becomes a container holding just that sketch
func LoadContainer(info *Info, path string) (*Container, error) {
	format, _, err := store.FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format.IsContainer() {
		ms, err := store.LoadMulti(path, info.decodeOptions()...)
		if err != nil {
			return nil, err
		}
		return &Container{Source: path, Sketches: ms}, nil
	}
	bs, header, err := store.LoadBinary(path)
	if err != nil {
		return nil, err
	}
	hasher, seed := info.LegacyHasher, info.LegacySeed
	if hasher == nil {
		hasher = kmer.DefaultHasher
	}
	if header != nil {
		hasher, seed = header.Hasher, header.Seed
	} else {
		log.Printf("\t%v has no header, rebuilding hashes with %v (seed %d)", path, hasher.Name(), seed)
	}
	records, err := bs.Records(hasher, seed)
	if err != nil {
		return nil, fmt.Errorf("could not decode %q: %w", path, err)
	}
	s, err := sketch.NewJSONSketch(stem(path), 0, records, nil)
	if err != nil {
		return nil, err
	}
	s.SeqLength = nil
	params := sketch.Params{
		Kmer:       bs.KmerSize(),
		Alphabet:   "ACGT",
		SketchSize: uint32(bs.Len()),
		HashType:   hasher.Name(),
		HashBits:   64,
		HashSeed:   seed,
	}
	return &Container{Source: path, Sketches: sketch.NewMultiSketch(params, []sketch.JSONSketch{*s})}, nil
}

// SketchConverter is a pipeline process that filters every sketch in a container
type SketchConverter struct {
	info   *Info
	input  chan *Container
	output chan *Container
	err    error
}

// NewSketchConverter is the constructor
func NewSketchConverter(info *Info) *SketchConverter {
	return &SketchConverter{info: info, output: make(chan *Container, BUFFERSIZE)}
}

// Connect is the method to join the input of this process with the output of a SketchReader
func (proc *SketchConverter) Connect(previous *SketchReader) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *SketchConverter) Run() {
	defer close(proc.output)
	for c := range proc.input {
		if proc.err != nil {
			continue
		}
		if proc.info.Filter != nil {
			if err := proc.filter(c); err != nil {
				proc.err = err
				continue
			}
		}
		proc.output <- c
	}
}

// Err returns the first error hit by the process
func (proc *SketchConverter) Err() error {
	return proc.err
}

// filter replaces each sketch with its filtered copy, sketches are filtered concurrently so the filter must be safe for concurrent use
func (proc *SketchConverter) filter(c *Container) error {
	filtered := make([]sketch.JSONSketch, len(c.Sketches.Sketches))
	var g errgroup.Group
	g.SetLimit(proc.info.NumProc)
	for i := range c.Sketches.Sketches {
		i := i
		g.Go(func() error {
			s, err := c.Sketches.Sketches[i].Filtered(proc.info.Filter, proc.info.decodeOptions()...)
			if err != nil {
				return fmt.Errorf("%v: %w", c.Source, err)
			}
			filtered[i] = *s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.Sketches.Sketches = filtered
	return nil
}

// SketchWriter is a pipeline process that writes containers to the output directory
type SketchWriter struct {
	info    *Info
	input   chan *Container
	written []string
	sources map[string]string // output path -> input it was written from
	err     error
}

// ErrOutputClash is returned when two inputs would be written to the same output file
var ErrOutputClash = errors.New("output file already written by this run")

// NewSketchWriter is the constructor
func NewSketchWriter(info *Info) *SketchWriter {
	return &SketchWriter{info: info, sources: make(map[string]string)}
}

// Connect is the method to join the input of this process with the output of a SketchConverter
func (proc *SketchWriter) Connect(previous *SketchConverter) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *SketchWriter) Run() {
	for c := range proc.input {
		if proc.err != nil {
			continue
		}
		if err := proc.write(c); err != nil {
			proc.err = err
		}
	}
}

// Err returns the first error hit by the process
func (proc *SketchWriter) Err() error {
	return proc.err
}

// Written returns the files written by the process
func (proc *SketchWriter) Written() []string {
	return proc.written
}

func (proc *SketchWriter) write(c *Container) error {
	if proc.info.Format.IsContainer() {
		path := proc.outPath(stem(c.Source))
		if err := proc.claim(path, c.Source); err != nil {
			return err
		}
		if err := store.DumpMulti(c.Sketches, path); err != nil {
			return err
		}
		proc.written = append(proc.written, path)
		return nil
	}

	// binary formats hold one sketch per file
	hasher, err := c.Sketches.Hasher()
	if err != nil {
		return fmt.Errorf("%v: %w", c.Source, err)
	}
	if proc.info.Format == store.FormatBinary && (c.Sketches.HashSeed != 0 || hasher.Name() != kmer.DefaultHasher.Name()) {
		log.Printf("\twarning: legacy binary sketches from %v don't record their hash, decode them with --hashType %v --hashSeed %d", c.Source, hasher.Name(), c.Sketches.HashSeed)
	}
	for i := range c.Sketches.Sketches {
		s := &c.Sketches.Sketches[i]
		records, err := s.Records(proc.info.decodeOptions()...)
		if err != nil {
			return fmt.Errorf("%v: sketch %q: %w", c.Source, s.Name, err)
		}
		bs, err := sketch.NewBinarySketch(records)
		if errors.Is(err, sketch.ErrEmptySketch) {
			log.Printf("\tskipping empty sketch %q from %v", s.Name, c.Source)
			continue
		}
		if err != nil {
			return fmt.Errorf("%v: sketch %q: %w", c.Source, s.Name, err)
		}
		path := proc.outPath(stem(c.Source) + "-" + CleanName(s.Name))
		if err := proc.claim(path, c.Source); err != nil {
			return err
		}
		if err := store.DumpBinary(bs, path, hasher, c.Sketches.HashSeed); err != nil {
			return err
		}
		proc.written = append(proc.written, path)
	}
	return nil
}

// claim records that path is written from source, failing if an earlier input already wrote it
func (proc *SketchWriter) claim(path, source string) error {
	if previous, ok := proc.sources[path]; ok {
		return fmt.Errorf("%w: %q from both %v and %v", ErrOutputClash, path, previous, source)
	}
	proc.sources[path] = source
	return nil
}

// outPath builds an output file path with the run's format and compression extensions
func (proc *SketchWriter) outPath(name string) string {
	ext := proc.info.Format.Extension()
	switch proc.info.Compress {
	case store.CompressionGzip:
		ext += ".gz"
	case store.CompressionZstd:
		ext += ".zst"
	}
	return filepath.Join(proc.info.OutDir, name+ext)
}

// stem returns the file name without its compression and format extensions
func stem(path string) string {
	name := filepath.Base(path)
	for _, suffix := range []string{".gz", ".zst"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
