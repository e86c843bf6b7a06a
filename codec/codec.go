// Package codec implements a self-describing binary wire format for
// neighbor lists, so results can be handed across process boundaries
// without re-running a query.
//
// The format is a breaking-change boundary: bytes written by one version
// may not decode under another, which is why the header carries the format
// version and compression scheme.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hupe1980/neargo"
	"github.com/hupe1980/neargo/model"
)

// Format: [magic "NGNL"][version u16][compression u8][flags u8]
// followed by one block: [uncompressedSize u32][compressedSize u32][data],
// compressedSize == 0 meaning the block is stored uncompressed.
// All integers are little-endian.
var magic = [4]byte{'N', 'G', 'N', 'L'}

const (
	formatVersion uint16 = 1

	flagSelfReferencing uint8 = 1 << 0

	bondSize = 4 + 4 + 4 + 3*4 + 4 // query, neighbor, distance, delta, weight
)

var (
	// ErrBadMagic indicates the input is not a neighbor-list stream.
	ErrBadMagic = errors.New("bad magic: not a neighbor list stream")

	// ErrUnsupportedVersion indicates a format version this build cannot read.
	ErrUnsupportedVersion = errors.New("unsupported format version")
)

// Options contains configuration options for encoding.
type Options struct {
	// Compression selects the block compression scheme.
	Compression Compression
}

// Encode writes the neighbor list to w and returns the number of bytes
// written.
func Encode(w io.Writer, list *neargo.NeighborList, optFns ...func(o *Options)) (int64, error) {
	opts := Options{Compression: CompressionNone}
	for _, fn := range optFns {
		fn(&opts)
	}

	cw := &countingWriter{w: w}

	var flags uint8
	if list.SelfReferencing() {
		flags |= flagSelfReferencing
	}

	header := make([]byte, 8)
	copy(header, magic[:])
	binary.LittleEndian.PutUint16(header[4:], formatVersion)
	header[6] = uint8(opts.Compression)
	header[7] = flags
	if _, err := cw.Write(header); err != nil {
		return cw.n, err
	}

	payload := encodePayload(list)
	block, err := compressBlock(payload, opts.Compression)
	if err != nil {
		return cw.n, err
	}
	if _, err := cw.Write(block); err != nil {
		return cw.n, err
	}

	return cw.n, nil
}

// Decode reads a neighbor list from r.
func Decode(r io.Reader) (*neargo.NeighborList, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if !bytes.Equal(header[:4], magic[:]) {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(header[4:]); v != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	compression := Compression(header[6])
	flags := header[7]

	payload, err := decompressBlock(r, compression)
	if err != nil {
		return nil, err
	}

	return decodePayload(payload, flags)
}

func encodePayload(list *neargo.NeighborList) []byte {
	insufficient := list.Insufficient()

	size := 4 + 8 + 4 + 4*len(insufficient) + bondSize*list.Len()
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(list.NumQuery()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(list.Len()))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(insufficient)))
	for _, q := range insufficient {
		buf = binary.LittleEndian.AppendUint32(buf, q)
	}

	for _, b := range list.All() {
		buf = binary.LittleEndian.AppendUint32(buf, b.Query)
		buf = binary.LittleEndian.AppendUint32(buf, b.Neighbor)
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(b.Distance))
		for i := 0; i < 3; i++ {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(b.Delta[i]))
		}
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(b.Weight))
	}

	return buf
}

func decodePayload(payload []byte, flags uint8) (*neargo.NeighborList, error) {
	rd := byteReader{buf: payload}

	numQuery, err := rd.uint32()
	if err != nil {
		return nil, err
	}
	numBonds, err := rd.uint64()
	if err != nil {
		return nil, err
	}
	numInsufficient, err := rd.uint32()
	if err != nil {
		return nil, err
	}

	insufficient := make([]uint32, numInsufficient)
	for i := range insufficient {
		if insufficient[i], err = rd.uint32(); err != nil {
			return nil, err
		}
	}

	if rd.remaining() != int(numBonds)*bondSize {
		return nil, fmt.Errorf("truncated payload: %d bytes for %d bonds", rd.remaining(), numBonds)
	}

	bonds := make([]model.Bond, numBonds)
	for i := range bonds {
		b := &bonds[i]
		b.Query, _ = rd.uint32()
		b.Neighbor, _ = rd.uint32()
		b.Distance = rd.float32()
		b.Delta = mgl32.Vec3{rd.float32(), rd.float32(), rd.float32()}
		b.Weight = rd.float32()
	}

	listOpts := []neargo.NeighborListOption{neargo.WithInsufficient(insufficient)}
	if flags&flagSelfReferencing != 0 {
		listOpts = append(listOpts, neargo.WithSelfReferencing())
	}

	return neargo.NewNeighborList(int(numQuery), bonds, listOpts...)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type byteReader struct {
	buf []byte
	off int
}

func (r *byteReader) remaining() int { return len(r.buf) - r.off }

func (r *byteReader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// float32 reads without an error return; callers bound-check the payload
// length up front.
func (r *byteReader) float32() float32 {
	v, _ := r.uint32()
	return math.Float32frombits(v)
}
