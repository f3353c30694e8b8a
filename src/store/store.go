// Package store reads and writes sketch files, choosing the encoding and compression from the file extension.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/will-rowe/sketchcodec/src/kmer"
	"github.com/will-rowe/sketchcodec/src/sketch"
	"gopkg.in/vmihailenco/msgpack.v2"
)

// Format is the encoding of a sketch file
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON           // JSON multi-sketch container
	FormatMsgpack        // msgpack multi-sketch container
	FormatBinary         // legacy binary sketch
	FormatFramed         // framed binary sketch
)

// Compression wraps the encoded sketch file
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

var (
	// ErrUnknownFormat is returned for a file extension that isn't a sketch format
	ErrUnknownFormat = errors.New("unrecognised sketch file extension")

	// ErrWrongFormat is returned when a container is requested from a binary file or vice versa
	ErrWrongFormat = errors.New("file format can't hold this kind of sketch")
)

var extensions = map[string]Format{
	".json":    FormatJSON,
	".msgpack": FormatMsgpack,
	".mpk":     FormatMsgpack,
	".bin":     FormatBinary,
	".kmsk":    FormatFramed,
}

// Extension returns the file extension used for a format
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMsgpack:
		return ".msgpack"
	case FormatBinary:
		return ".bin"
	case FormatFramed:
		return ".kmsk"
	}
	return ""
}

// IsContainer reports whether the format holds a multi-sketch container
func (f Format) IsContainer() bool {
	return f == FormatJSON || f == FormatMsgpack
}

// ParseFormat converts a format name (json/msgpack/bin/kmsk) to a Format
func ParseFormat(name string) (Format, error) {
	if f, ok := extensions["."+strings.TrimPrefix(strings.ToLower(name), ".")]; ok {
		return f, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatOf works out the format and compression of a sketch file from its name
func FormatOf(path string) (Format, Compression, error) {
	name := strings.ToLower(filepath.Base(path))
	compression := CompressionNone
	switch {
	case strings.HasSuffix(name, ".gz"):
		compression = CompressionGzip
		name = strings.TrimSuffix(name, ".gz")
	case strings.HasSuffix(name, ".zst"):
		compression = CompressionZstd
		name = strings.TrimSuffix(name, ".zst")
	}
	format, ok := extensions[filepath.Ext(name)]
	if !ok {
		return FormatUnknown, compression, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
	return format, compression, nil
}

// DumpMulti writes a multi-sketch container to a .json or .msgpack file
func DumpMulti(ms *sketch.MultiSketch, path string) error {
	format, compression, err := FormatOf(path)
	if err != nil {
		return err
	}
	if !format.IsContainer() {
		return fmt.Errorf("%w: %q", ErrWrongFormat, path)
	}
	w, err := create(path, compression)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		err = ms.Encode(w)
	case FormatMsgpack:
		err = msgpack.NewEncoder(w).Encode(ms)
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("could not write sketch container %q: %w", path, err)
	}
	return nil
}

// LoadMulti reads a multi-sketch container from a .json or .msgpack file
func LoadMulti(path string, opts ...sketch.DecodeOption) (*sketch.MultiSketch, error) {
	format, compression, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if !format.IsContainer() {
		return nil, fmt.Errorf("%w: %q", ErrWrongFormat, path)
	}
	r, err := open(path, compression)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var ms *sketch.MultiSketch
	switch format {
	case FormatJSON:
		ms, err = sketch.DecodeMultiSketch(r, opts...)
	case FormatMsgpack:
		ms = &sketch.MultiSketch{}
		if err = msgpack.NewDecoder(r).Decode(ms); err == nil {
			err = ms.CheckDecoded(opts...)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not read sketch container %q: %w", path, err)
	}
	return ms, nil
}

// DumpBinary writes a binary sketch to a .bin (legacy) or .kmsk (framed) file
//
// The hash function and seed are only recorded by the framed format; a legacy file needs them to be supplied again when it is loaded.
func DumpBinary(bs *sketch.BinarySketch, path string, h kmer.Hasher, seed uint64) error {
	format, compression, err := FormatOf(path)
	if err != nil {
		return err
	}
	var data []byte
	switch format {
	case FormatBinary:
		data, err = bs.MarshalBinary()
	case FormatFramed:
		data, err = bs.MarshalFramed(h, seed)
	default:
		return fmt.Errorf("%w: %q", ErrWrongFormat, path)
	}
	if err != nil {
		return err
	}
	w, err := create(path, compression)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("could not write binary sketch %q: %w", path, err)
	}
	return nil
}

// LoadBinary reads a binary sketch, the header is nil for legacy files
//
// Framed files are recognised by their magic whatever their extension.
func LoadBinary(path string) (*sketch.BinarySketch, *sketch.FrameHeader, error) {
	format, compression, err := FormatOf(path)
	if err != nil {
		return nil, nil, err
	}
	if format.IsContainer() {
		return nil, nil, fmt.Errorf("%w: %q", ErrWrongFormat, path)
	}
	r, err := open(path, compression)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read binary sketch %q: %w", path, err)
	}
	if sketch.IsFramed(data) {
		bs, header, err := sketch.UnmarshalFramed(data)
		if err != nil {
			return nil, nil, fmt.Errorf("could not decode binary sketch %q: %w", path, err)
		}
		return bs, &header, nil
	}
	bs := &sketch.BinarySketch{}
	if err := bs.UnmarshalBinary(data); err != nil {
		return nil, nil, fmt.Errorf("could not decode binary sketch %q: %w", path, err)
	}
	return bs, nil, nil
}

// open returns a reader for path, undoing any compression
func open(path string, compression Compression) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := decompress(fh, compression)
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("could not open %q: %w", path, err)
	}
	return &chainCloser{Reader: r, closers: []io.Closer{r, fh}}, nil
}

// create returns a writer for path, applying any compression
func create(path string, compression Compression) (io.WriteCloser, error) {
	fh, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := compress(fh, compression)
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("could not create %q: %w", path, err)
	}
	return &chainCloser{Writer: w, closers: []io.Closer{w, fh}}, nil
}

// chainCloser closes the compression layer before the file
type chainCloser struct {
	io.Reader
	io.Writer
	closers []io.Closer
}

func (c *chainCloser) Close() error {
	var first error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
