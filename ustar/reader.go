package ustar

import (
	"fmt"
	"io"
	"strconv"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
)

// EndPolicy selects how the end of an archive is recognized.
type EndPolicy uint8

const (
	// EndTwoBlocks ends the archive at two consecutive zero blocks.
	// A single zero block followed by a clean EOF is also accepted,
	// since plenty of writers stop there.
	EndTwoBlocks EndPolicy = iota

	// EndSingleBlock ends the archive at the first zero block,
	// without looking at what follows.
	EndSingleBlock
)

func (p EndPolicy) String() string {
	switch p {
	case EndTwoBlocks:
		return "two-blocks"
	case EndSingleBlock:
		return "single-block"
	default:
		return "EndPolicy(" + strconv.Itoa(int(p)) + ")"
	}
}

// DefaultScratchSize is the chunk size used to skip unread content.
const DefaultScratchSize = 2048

/*
	ReaderConfig is fixed when a Reader is constructed.
	The zero value is a sensible default.
*/
type ReaderConfig struct {
	// Skip by seeking, if the source is an io.Seeker.
	// The source's length is looked up on the first seek, so that skipping
	// past the end of a truncated source is still reported as corruption.
	NativeSkip bool

	EndOfArchive EndPolicy

	// Accept headers whose stored checksum does not match their content.
	IgnoreChecksum bool

	// Size of the scratch buffer for skipping.  Zero means the default;
	// anything smaller than a block is raised to one block.
	ScratchSize int
}

type readerState uint8

const (
	stateReady readerState = iota
	stateEntryOpen
	stateExhausted
	stateBroken
)

/*
	Reader decodes a tar stream one entry at a time.

	Next yields each entry; Read then yields that entry's content and
	reports io.EOF at its declared size, regardless of what else the source
	holds.  Calling Next again skips whatever content was left unread and
	the padding after it.

	Errors are sticky: once the stream is found to be corrupt, every later
	call returns the same error.  A Reader is not safe for concurrent use.
*/
type Reader struct {
	src   io.Reader
	cfg   ReaderConfig
	state readerState
	err   error

	entry     *Entry
	entryRead int64 // content bytes consumed from the open entry
	offset    int64 // bytes consumed from src since the start

	block   [BlockSize]byte
	scratch []byte
	srcEnd  int64 // position of the end of a seekable source; -1 until known
}

func NewReader(src io.Reader, cfg ReaderConfig) *Reader {
	if cfg.ScratchSize == 0 {
		cfg.ScratchSize = DefaultScratchSize
	}
	if cfg.ScratchSize < BlockSize {
		cfg.ScratchSize = BlockSize
	}
	return &Reader{
		src:     src,
		cfg:     cfg,
		scratch: make([]byte, cfg.ScratchSize),
		srcEnd:  -1,
	}
}

// Offset is the number of bytes consumed from the source so far.
// Between entries it is always a multiple of BlockSize.
func (r *Reader) Offset() int64 {
	return r.offset
}

/*
	Next advances to the next entry.

	It returns io.EOF at the end of the archive, and keeps returning it.
	Any other error is categorized: api.ErrArchiveCorrupt for malformed
	streams, api.ErrIO for failures of the source itself.
*/
func (r *Reader) Next() (*Entry, error) {
	switch r.state {
	case stateExhausted:
		return nil, io.EOF
	case stateBroken:
		return nil, r.err
	case stateEntryOpen:
		if err := r.CloseEntry(); err != nil {
			return nil, err
		}
	}

	headerOffset := r.offset
	ok, err := r.readBlock()
	if err != nil {
		return nil, err
	}
	if !ok {
		r.state = stateExhausted
		return nil, io.EOF
	}

	if IsZeroBlock(r.block[:]) {
		if r.cfg.EndOfArchive == EndSingleBlock {
			r.state = stateExhausted
			return nil, io.EOF
		}
		ok, err := r.readBlock()
		if err != nil {
			return nil, err
		}
		if ok && !IsZeroBlock(r.block[:]) {
			return nil, r.fail(ErrorDetailed(api.ErrArchiveCorrupt,
				"corrupt tar: a lone zero block is followed by more data",
				map[string]string{"offset": strconv.FormatInt(headerOffset, 10)}))
		}
		r.state = stateExhausted
		return nil, io.EOF
	}

	if !r.cfg.IgnoreChecksum && !VerifyChecksum(r.block[:]) {
		return nil, r.fail(ErrorDetailed(api.ErrArchiveCorrupt,
			"corrupt tar: header checksum mismatch",
			map[string]string{
				"offset": strconv.FormatInt(headerOffset, 10),
				"stored": strconv.FormatUint(ParseOctal(r.block[offChksum:offTypeflag]), 8),
				"actual": strconv.FormatUint(uint64(Checksum(blankChecksum(r.block))), 8),
			}))
	}

	entry, err := ParseEntry(r.block[:])
	if err != nil {
		return nil, r.fail(err)
	}
	r.entry = entry
	r.entryRead = 0
	r.state = stateEntryOpen
	return entry, nil
}

func blankChecksum(block [BlockSize]byte) []byte {
	copy(block[offChksum:offTypeflag], "        ")
	return block[:]
}

// Read a whole block into r.block.
// False with no error means a clean EOF exactly at the block boundary.
func (r *Reader) readBlock() (bool, error) {
	n, err := io.ReadFull(r.src, r.block[:])
	r.offset += int64(n)
	switch err {
	case nil:
		return true, nil
	case io.EOF:
		return false, nil
	case io.ErrUnexpectedEOF:
		return false, r.fail(ErrorDetailed(api.ErrArchiveCorrupt,
			fmt.Sprintf("corrupt tar: truncated header (%d of %d bytes)", n, BlockSize),
			map[string]string{"offset": strconv.FormatInt(r.offset-int64(n), 10)}))
	default:
		return false, r.fail(sourceError(err, nil))
	}
}

/*
	Read reads content of the open entry, stopping at its declared size.

	If the source ends before the declared size is reached, the entry was
	truncated and Read returns an api.ErrArchiveCorrupt error rather than a
	short io.EOF.
	With no entry open, Read passes straight through to the source.
*/
func (r *Reader) Read(p []byte) (int, error) {
	switch r.state {
	case stateBroken:
		return 0, r.err
	case stateEntryOpen:
		// handled below
	default:
		n, err := r.src.Read(p)
		r.offset += int64(n)
		return n, err
	}

	remaining := r.entry.Size() - r.entryRead
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.src.Read(p)
	r.entryRead += int64(n)
	r.offset += int64(n)
	switch {
	case err == nil:
		return n, nil
	case err == io.EOF && r.entryRead == r.entry.Size():
		return n, nil
	case err == io.EOF:
		return n, r.fail(r.truncated())
	default:
		return n, r.fail(sourceError(err, map[string]string{"entry": r.entry.Name()}))
	}
}

func (r *Reader) truncated() error {
	return ErrorDetailed(api.ErrArchiveCorrupt,
		fmt.Sprintf("corrupt tar: entry %q ends after %d of %d bytes", r.entry.Name(), r.entryRead, r.entry.Size()),
		map[string]string{
			"entry":  r.entry.Name(),
			"offset": strconv.FormatInt(r.offset, 10),
		})
}

/*
	Skip discards up to n bytes, returning how many were discarded.

	With an entry open, skipping stops at the entry's boundary.
	Content is read and dropped in chunks through a scratch buffer, unless
	the reader was configured for NativeSkip and the source can seek.
	A short count with a nil error means the source stopped making progress.
*/
func (r *Reader) Skip(n int64) (int64, error) {
	if r.state == stateBroken {
		return 0, r.err
	}
	if n <= 0 {
		return 0, nil
	}
	if r.cfg.NativeSkip {
		if seeker, ok := r.src.(io.Seeker); ok {
			return r.seek(seeker, n)
		}
	}
	var skipped int64
	for skipped < n {
		chunk := r.scratch
		if rest := n - skipped; rest < int64(len(chunk)) {
			chunk = chunk[:rest]
		}
		m, err := r.Read(chunk)
		skipped += int64(m)
		if err != nil {
			return skipped, err
		}
		if m == 0 {
			break
		}
	}
	return skipped, nil
}

func (r *Reader) seek(seeker io.Seeker, n int64) (int64, error) {
	if r.state == stateEntryOpen {
		remaining := r.entry.Size() - r.entryRead
		if n > remaining {
			n = remaining
		}
		if n == 0 {
			return 0, io.EOF
		}
	}
	pos, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, r.fail(Errorf(api.ErrIO, "error seeking tar stream: %s", err))
	}
	if r.srcEnd < 0 {
		if r.srcEnd, err = seeker.Seek(0, io.SeekEnd); err != nil {
			return 0, r.fail(Errorf(api.ErrIO, "error seeking tar stream: %s", err))
		}
	}

	// Seeking is allowed past the end; clamp, so the short count shows.
	short := false
	if avail := r.srcEnd - pos; n > avail {
		n, short = avail, true
		if n < 0 {
			n = 0
		}
	}
	if _, err := seeker.Seek(pos+n, io.SeekStart); err != nil {
		return 0, r.fail(Errorf(api.ErrIO, "error seeking tar stream: %s", err))
	}
	r.offset += n
	if r.state == stateEntryOpen {
		r.entryRead += n
		if short {
			return n, r.fail(r.truncated())
		}
	}
	return n, nil
}

/*
	CloseEntry finishes the open entry: unread content is skipped, then the
	padding up to the next block boundary.  It is a no-op with no entry
	open.  Next calls it implicitly.
*/
func (r *Reader) CloseEntry() error {
	switch r.state {
	case stateBroken:
		return r.err
	case stateEntryOpen:
		// continue
	default:
		return nil
	}

	for remaining := r.entry.Size() - r.entryRead; remaining > 0; remaining = r.entry.Size() - r.entryRead {
		n, err := r.Skip(remaining)
		if err != nil && err != io.EOF {
			return err
		}
		if n == 0 {
			return r.fail(r.truncated())
		}
	}

	if pad := (BlockSize - r.offset%BlockSize) % BlockSize; pad > 0 {
		n, err := io.ReadFull(r.src, r.scratch[:pad])
		r.offset += int64(n)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return r.fail(sourceError(err, map[string]string{"entry": r.entry.Name()}))
		}
		if err != nil {
			return r.fail(ErrorDetailed(api.ErrArchiveCorrupt,
				fmt.Sprintf("corrupt tar: padding after entry %q is truncated", r.entry.Name()),
				map[string]string{
					"entry":  r.entry.Name(),
					"offset": strconv.FormatInt(r.offset, 10),
				}))
		}
	}

	r.entry = nil
	r.entryRead = 0
	r.state = stateReady
	return nil
}

// Errors from the source are api.ErrIO, unless the source already said
// what kind of failure it was (decompressors report corrupt input).
func sourceError(err error, details map[string]string) error {
	if _, ok := Category(err).(api.ErrorCategory); ok {
		return err
	}
	return ErrorDetailed(api.ErrIO, fmt.Sprintf("error reading tar stream: %s", err), details)
}

func (r *Reader) fail(err error) error {
	r.state = stateBroken
	r.err = err
	return err
}
