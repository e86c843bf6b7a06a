package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the block compression algorithm.
type Compression uint8

const (
	// CompressionNone stores blocks uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd block compression (better ratio).
	CompressionZstd Compression = 2
)

// String returns a string representation of the Compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZstd:
		return "Zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// WithCompression selects the block compression scheme for Encode.
func WithCompression(c Compression) func(o *Options) {
	return func(o *Options) {
		o.Compression = c
	}
}

// zstd encoder/decoder pools; both are stateful and not cheap to create.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compressBlock frames data as [uncompressedSize u32][compressedSize u32]
// [bytes]. compressedSize == 0 marks a stored block; incompressible data
// falls back to stored so decoding never pays for a failed compression.
func compressBlock(data []byte, compression Compression) ([]byte, error) {
	var compressed []byte
	var err error

	switch compression {
	case CompressionNone:
		// Stored.
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZstd:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown compression: %d", compression)
	}
	if err != nil {
		return nil, err
	}

	if compressed == nil || len(compressed) >= len(data) {
		block := make([]byte, 8+len(data))
		binary.LittleEndian.PutUint32(block, uint32(len(data)))
		copy(block[8:], data)
		return block, nil
	}

	block := make([]byte, 8+len(compressed))
	binary.LittleEndian.PutUint32(block, uint32(len(data)))
	binary.LittleEndian.PutUint32(block[4:], uint32(len(compressed)))
	copy(block[8:], compressed)
	return block, nil
}

func decompressBlock(r io.Reader, compression Compression) ([]byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	uncompressedSize := binary.LittleEndian.Uint32(header)
	compressedSize := binary.LittleEndian.Uint32(header[4:])

	if compressedSize == 0 {
		data := make([]byte, uncompressedSize)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		return data, nil
	}

	compressed := make([]byte, compressedSize)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}

	switch compression {
	case CompressionLZ4:
		data := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(compressed, data)
		if err != nil {
			return nil, err
		}
		return data[:n], nil
	case CompressionZstd:
		dec := getZstdDecoder()
		data, err := dec.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
		zstdDecoderPool.Put(dec)
		return data, err
	default:
		return nil, fmt.Errorf("compressed block with unknown compression: %d", compression)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	var c lz4.Compressor
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible.
		return nil, nil
	}
	return dst[:n], nil
}
