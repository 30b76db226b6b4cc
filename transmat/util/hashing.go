package util

import (
	_ "crypto/sha256" // digest.Canonical needs it linked
	"io"

	"github.com/opencontainers/go-digest"
)

// HashingReader digests everything read through it.
type HashingReader struct {
	R        io.Reader
	Digester digest.Digester
	N        int64
}

func NewHashingReader(r io.Reader) *HashingReader {
	return &HashingReader{R: r, Digester: digest.Canonical.Digester()}
}

func (r *HashingReader) Read(b []byte) (int, error) {
	n, err := r.R.Read(b)
	r.Digester.Hash().Write(b[:n])
	r.N += int64(n)
	return n, err
}

func (r *HashingReader) Digest() digest.Digest {
	return r.Digester.Digest()
}
