package ingest

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/logger"
)

// Source is re-openable input. Ingestion opens it once for the
// whole-document attempt and again if it has to fall back to line mode.
type Source interface {
	// Name identifies the source in logs ("stdin" or a file path)
	Name() string
	// Open returns a fresh reader positioned at the start of the input
	Open() (io.ReadCloser, error)
}

// BufferedSource is a Source whose whole content is already in memory.
// Ingest parses its bytes directly instead of stream-decoding.
type BufferedSource interface {
	Source
	Bytes() ([]byte, error)
}

// Codec names a compression format recognised by its magic bytes
type Codec string

const (
	CodecNone Codec = "none"
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
	CodecLZ4  Codec = "lz4"
)

var magics = []struct {
	codec Codec
	magic []byte
}{
	{CodecGzip, []byte{0x1f, 0x8b}},
	{CodecZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{CodecLZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
}

// FileSource reads a named file incrementally. Compressed files are
// decompressed on the fly.
type FileSource struct {
	Path string
}

// NewFileSource returns a source for path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "failed to open %s", s.Path), errors.ErrIngestion),
			"check the path exists and is readable")
	}

	r, codec, err := Decompress(f)
	if err != nil {
		f.Close()
		return nil, errors.Mark(errors.Wrapf(err, "failed to read %s", s.Path), errors.ErrIngestion)
	}
	if codec != CodecNone {
		logger.Debugw("decompressing input", logger.FieldFile, s.Path, logger.FieldCodec, codec)
	}
	return &stackedCloser{Reader: r, closers: []io.Closer{r, f}}, nil
}

// ReaderSource buffers a reader (typically stdin) fully on first use.
type ReaderSource struct {
	name string
	r    io.Reader

	once sync.Once
	data []byte
	err  error
}

// NewReaderSource returns a buffered source reading from r
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{name: name, r: r}
}

func (s *ReaderSource) Name() string { return s.name }

// Bytes returns the decompressed content of the reader
func (s *ReaderSource) Bytes() ([]byte, error) {
	s.once.Do(func() {
		dr, codec, err := Decompress(s.r)
		if err != nil {
			s.err = errors.Mark(errors.Wrapf(err, "failed to read %s", s.name), errors.ErrIngestion)
			return
		}
		defer dr.Close()

		data, err := io.ReadAll(dr)
		if err != nil {
			s.err = errors.Mark(errors.Wrapf(err, "failed to read %s", s.name), errors.ErrIngestion)
			return
		}
		s.data = data
		logger.Debugw("buffered input", logger.FieldSource, s.name, logger.FieldCodec, codec, logger.FieldSize, len(data))
	})
	return s.data, s.err
}

func (s *ReaderSource) Open() (io.ReadCloser, error) {
	data, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Decompress sniffs the magic bytes of r and wraps it in the matching
// decoder. Uncompressed input is returned as a buffered reader.
func Decompress(r io.Reader) (io.ReadCloser, Codec, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)

	codec := CodecNone
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			codec = m.codec
			break
		}
	}

	switch codec {
	case CodecGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, codec, errors.Wrap(err, "gzip")
		}
		return zr, codec, nil
	case CodecZstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, codec, errors.Wrap(err, "zstd")
		}
		return zr.IOReadCloser(), codec, nil
	case CodecLZ4:
		return io.NopCloser(lz4.NewReader(br)), codec, nil
	default:
		return io.NopCloser(br), codec, nil
	}
}

// stackedCloser closes the decoder before the file underneath it
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *stackedCloser) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
