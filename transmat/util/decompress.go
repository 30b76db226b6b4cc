package util

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	. "github.com/warpfork/go-errcat"
	"github.com/xi2/xz"

	"github.com/polydawn/ustar/api"
)

var magics = []struct {
	compression Compression
	magic       []byte
}{
	{Compression_Gzip, []byte{0x1f, 0x8b}},
	{Compression_Bzip2, []byte("BZh")},
	{Compression_Xz, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{Compression_Zstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{Compression_Lz4, []byte{0x04, 0x22, 0x4d, 0x18}},
}

// DetectCompression names the compression whose magic bytes head the given
// prefix, or Compression_None.
func DetectCompression(prefix []byte) Compression {
	for _, m := range magics {
		if bytes.HasPrefix(prefix, m.magic) {
			return m.compression
		}
	}
	return Compression_None
}

/*
	Wrap a stream with decompression.

	With Compression_Auto the format is sniffed from the first bytes of the
	stream (an empty stream is treated as uncompressed).  Errors the
	decompressor reports while reading are categorized api.ErrArchiveCorrupt,
	and pass through the tar decoder with that category intact.

	Closing the result releases decoder resources but does not close the
	underlying reader.
*/
func Decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	if c == "" || c == Compression_Auto {
		var err error
		if c, r, err = sniff(r); err != nil {
			return nil, err
		}
	}

	switch c {
	case Compression_None:
		if rs, ok := r.(io.ReadSeeker); ok {
			return nopSeekCloser{rs}, nil
		}
		return io.NopCloser(r), nil
	case Compression_Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, Errorf(api.ErrArchiveCorrupt, "corrupt gzip stream: %s", err)
		}
		return &decompressor{gr, c, gr.Close}, nil
	case Compression_Bzip2:
		return &decompressor{bzip2.NewReader(r), c, nil}, nil
	case Compression_Xz:
		xr, err := xz.NewReader(r, xz.DefaultDictMax)
		if err != nil {
			return nil, Errorf(api.ErrArchiveCorrupt, "corrupt xz stream: %s", err)
		}
		return &decompressor{xr, c, nil}, nil
	case Compression_Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, Errorf(api.ErrArchiveCorrupt, "corrupt zstd stream: %s", err)
		}
		return &decompressor{zr, c, func() error { zr.Close(); return nil }}, nil
	case Compression_Lz4:
		return &decompressor{lz4.NewReader(r), c, nil}, nil
	default:
		return nil, Errorf(api.ErrUsage, "unknown compression %q", c)
	}
}

// Seekable sources are rewound after peeking, so they stay seekable
// (and the tar decoder can skip natively).
func sniff(r io.Reader) (Compression, io.Reader, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		prefix := make([]byte, 6)
		n, err := io.ReadFull(rs, prefix)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", nil, Errorf(api.ErrIO, "error reading archive: %s", err)
		}
		if _, err := rs.Seek(-int64(n), io.SeekCurrent); err != nil {
			return "", nil, Errorf(api.ErrIO, "error rewinding archive: %s", err)
		}
		return DetectCompression(prefix[:n]), rs, nil
	}
	br := bufio.NewReader(r)
	prefix, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return "", nil, Errorf(api.ErrIO, "error reading archive: %s", err)
	}
	return DetectCompression(prefix), br, nil
}

type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }

type decompressor struct {
	r           io.Reader
	compression Compression
	closer      func() error
}

func (d *decompressor) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	switch err {
	case nil, io.EOF:
		return n, err
	case io.ErrUnexpectedEOF:
		return n, Errorf(api.ErrArchiveCorrupt, "corrupt %s stream: truncated", d.compression)
	default:
		return n, Errorf(api.ErrArchiveCorrupt, "corrupt %s stream: %s", d.compression, err)
	}
}

func (d *decompressor) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}
