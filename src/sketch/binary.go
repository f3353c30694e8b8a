package sketch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/will-rowe/sketchcodec/src/kmer"
)

/*
	Binary sketch layouts (all integers little endian)

	legacy:	[count u32][k u8][count x packed k-mer u64][count x count u16]
	framed:	[magic "KMSK"][version u8][hasher id u8][seed u64][legacy body][crc32 u32]

	Hashes are never stored, they are recomputed from the k-mers on decode. The legacy layout
	has no magic, version or seed, so the caller has to know which hash function and seed built
	the sketch. The framed layout records both and carries a checksum.
*/
const (
	legacyHeaderSize = 5
	recordSize       = 8 + 2
	framedHeaderSize = 4 + 1 + 1 + 8
	crcSize          = 4

	// FramedVersion is the version written to framed binary sketches
	FramedVersion uint8 = 1
)

var framedMagic = []byte("KMSK")

// BinarySketch is the compact fixed-width form of a sketch
type BinarySketch struct {
	kmerSize uint8
	kmers    []uint64
	counts   []uint16
}

// FrameHeader is the information a framed binary sketch carries about how its hashes were made
type FrameHeader struct {
	Version uint8
	Hasher  kmer.Hasher
	Seed    uint64
}

// NewBinarySketch creates a binary sketch, at least one record is needed and all records must share a k-mer size
func NewBinarySketch(records []kmer.Record) (*BinarySketch, error) {
	if len(records) == 0 {
		return nil, ErrEmptySketch
	}
	if uint64(len(records)) > math.MaxUint32 {
		return nil, fmt.Errorf("too many records for a binary sketch: %d", len(records))
	}
	k := records[0].Kmer.K
	if k == 0 || k > kmer.MaxK {
		return nil, fmt.Errorf("%w: %d", kmer.ErrKmerLength, k)
	}
	bs := &BinarySketch{
		kmerSize: k,
		kmers:    make([]uint64, len(records)),
		counts:   make([]uint16, len(records)),
	}
	for i, r := range records {
		if r.Kmer.K != k {
			return nil, fmt.Errorf("%w: record %d has k=%d, expected %d", ErrMixedKmerLength, i, r.Kmer.K, k)
		}
		bs.kmers[i] = r.Kmer.Packed
		bs.counts[i] = r.Count
	}
	return bs, nil
}

// Len is the number of records in the sketch
func (bs *BinarySketch) Len() int {
	return len(bs.kmers)
}

// KmerSize is the k-mer size shared by all records
func (bs *BinarySketch) KmerSize() uint8 {
	return bs.kmerSize
}

// Records decodes the sketch, recomputing each hash from the k-mer with the given hash function and seed
//
// The seed must be the one used to build the sketch, otherwise the hashes will silently differ from the original.
func (bs *BinarySketch) Records(h kmer.Hasher, seed uint64) ([]kmer.Record, error) {
	records := make([]kmer.Record, len(bs.kmers))
	for i, packed := range bs.kmers {
		bitmer := kmer.Bitmer{Packed: packed, K: bs.kmerSize}
		hv, err := h.Hash(bitmer.Bytes(), seed)
		if err != nil {
			return nil, fmt.Errorf("could not hash record %d: %w", i, err)
		}
		records[i] = kmer.Record{Hash: hv, Kmer: bitmer, Count: bs.counts[i]}
	}
	return records, nil
}

// MarshalBinary encodes the sketch using the legacy layout
func (bs *BinarySketch) MarshalBinary() ([]byte, error) {
	buf := make([]byte, legacyHeaderSize+recordSize*len(bs.kmers))
	bs.putBody(buf)
	return buf, nil
}

// putBody writes the legacy layout into buf, which must be exactly the right size
func (bs *BinarySketch) putBody(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(bs.kmers)))
	buf[4] = bs.kmerSize
	offset := legacyHeaderSize
	for _, packed := range bs.kmers {
		binary.LittleEndian.PutUint64(buf[offset:], packed)
		offset += 8
	}
	for _, count := range bs.counts {
		binary.LittleEndian.PutUint16(buf[offset:], count)
		offset += 2
	}
}

// UnmarshalBinary decodes the legacy layout, the data must be exactly one sketch long
func (bs *BinarySketch) UnmarshalBinary(data []byte) error {
	if len(data) < legacyHeaderSize {
		return fmt.Errorf("%w: %d bytes is too short for a header", ErrCorrupt, len(data))
	}
	n := uint64(binary.LittleEndian.Uint32(data[0:4]))
	k := data[4]
	if k == 0 || k > kmer.MaxK {
		return fmt.Errorf("%w: k-mer size %d", ErrCorrupt, k)
	}
	if expected := legacyHeaderSize + recordSize*n; uint64(len(data)) != expected {
		return fmt.Errorf("%w: header says %d records (%d bytes), got %d bytes", ErrCorrupt, n, expected, len(data))
	}
	var limit uint64 = math.MaxUint64
	if k < kmer.MaxK {
		limit = uint64(1)<<(2*uint(k)) - 1
	}
	kmers := make([]uint64, n)
	counts := make([]uint16, n)
	offset := legacyHeaderSize
	for i := range kmers {
		kmers[i] = binary.LittleEndian.Uint64(data[offset:])
		if kmers[i] > limit {
			return fmt.Errorf("%w: record %d does not fit in a %d-mer", ErrCorrupt, i, k)
		}
		offset += 8
	}
	for i := range counts {
		counts[i] = binary.LittleEndian.Uint16(data[offset:])
		offset += 2
	}
	bs.kmerSize, bs.kmers, bs.counts = k, kmers, counts
	return nil
}

// WriteTo writes the legacy layout to w
func (bs *BinarySketch) WriteTo(w io.Writer) (int64, error) {
	data, err := bs.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadBinary reads r to EOF and decodes it as a legacy layout sketch
func ReadBinary(r io.Reader) (*BinarySketch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	bs := &BinarySketch{}
	if err := bs.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return bs, nil
}

// MarshalFramed encodes the sketch using the framed layout, recording the hash function and seed
func (bs *BinarySketch) MarshalFramed(h kmer.Hasher, seed uint64) ([]byte, error) {
	id, err := kmer.HasherID(h)
	if err != nil {
		return nil, err
	}
	bodySize := legacyHeaderSize + recordSize*len(bs.kmers)
	buf := make([]byte, framedHeaderSize+bodySize+crcSize)
	copy(buf[0:4], framedMagic)
	buf[4] = FramedVersion
	buf[5] = id
	binary.LittleEndian.PutUint64(buf[6:14], seed)
	bs.putBody(buf[framedHeaderSize : framedHeaderSize+bodySize])
	binary.LittleEndian.PutUint32(buf[framedHeaderSize+bodySize:], crc32.ChecksumIEEE(buf[:framedHeaderSize+bodySize]))
	return buf, nil
}

// IsFramed reports whether data starts with the framed layout magic
func IsFramed(data []byte) bool {
	return len(data) >= len(framedMagic) && bytes.Equal(data[:len(framedMagic)], framedMagic)
}

// UnmarshalFramed decodes the framed layout
func UnmarshalFramed(data []byte) (*BinarySketch, FrameHeader, error) {
	if !IsFramed(data) {
		return nil, FrameHeader{}, fmt.Errorf("%w: missing framed sketch magic", ErrCorrupt)
	}
	if len(data) < framedHeaderSize+legacyHeaderSize+crcSize {
		return nil, FrameHeader{}, fmt.Errorf("%w: %d bytes is too short for a framed sketch", ErrCorrupt, len(data))
	}
	end := len(data) - crcSize
	if sum := crc32.ChecksumIEEE(data[:end]); sum != binary.LittleEndian.Uint32(data[end:]) {
		return nil, FrameHeader{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	header := FrameHeader{Version: data[4], Seed: binary.LittleEndian.Uint64(data[6:14])}
	if header.Version != FramedVersion {
		return nil, FrameHeader{}, fmt.Errorf("%w: unsupported framed sketch version %d", ErrCorrupt, header.Version)
	}
	h, err := kmer.HasherByID(data[5])
	if err != nil {
		return nil, FrameHeader{}, err
	}
	header.Hasher = h
	bs := &BinarySketch{}
	if err := bs.UnmarshalBinary(data[framedHeaderSize:end]); err != nil {
		return nil, FrameHeader{}, err
	}
	return bs, header, nil
}
