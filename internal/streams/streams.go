// Package streams implements the buffered byte copying primitives that every
// other part of the archiving engine is built upon.
package streams

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/desertwitch/vfszip/internal/metrics"
	"github.com/dustin/go-humanize"
)

const (
	// BufferSize is the chunk size of the general purpose copy functions.
	BufferSize = 32 << 10

	// BCopyBufferSize is the buffer size of [BCopy], which is mostly used for
	// archive entries.
	BCopyBufferSize = 8 << 10
)

// Stats describes a finished (or aborted) copy.
type Stats struct {
	Bytes   int64
	Elapsed time.Duration
}

// ReadBlocking reads into buf[off:off+n] until n bytes were read or the
// stream ended. Unlike a single Read call it never returns early just
// because the underlying reader delivered a partial chunk. Any read error is
// treated as the end of the stream; a short count is for the caller to judge.
func ReadBlocking(r io.Reader, buf []byte, off, n int) int {
	if off < 0 || n <= 0 || off >= len(buf) {
		return 0
	}

	end := off + n
	if end > len(buf) {
		end = len(buf)
	}

	total := 0
	for off+total < end {
		read, err := r.Read(buf[off+total : end])
		total += read
		if err != nil {
			break
		}
	}

	return total
}

// CopyN copies exactly n bytes from src to dst in chunks of [BufferSize].
// A zero length is a trivial success. If src ends before n bytes were read an
// expected [TransferError] wrapping [ErrShortRead] is returned.
func CopyN(dst io.Writer, src io.Reader, n int64) error {
	if n < 0 {
		return newTransferError(KindFatal, "copyn", ErrInvalidLength)
	}
	if n == 0 {
		return nil
	}

	buf := make([]byte, BufferSize)
	chunks := n / BufferSize
	remainder := int(n % BufferSize)

	for range chunks {
		if err := copyChunk(dst, src, buf); err != nil {
			return err
		}
	}

	if remainder > 0 {
		if err := copyChunk(dst, src, buf[:remainder]); err != nil {
			return err
		}
	}

	return nil
}

func copyChunk(dst io.Writer, src io.Reader, chunk []byte) error {
	read := ReadBlocking(src, chunk, 0, len(chunk))
	if read < len(chunk) {
		return newTransferError(KindExpected, "copyn",
			fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, read, len(chunk)))
	}

	if _, err := dst.Write(chunk); err != nil {
		return newTransferError(KindFatal, "copyn", err)
	}
	metrics.AddBytesCopied(int64(read))

	return nil
}

// Copy copies from src to dst until src reports end-of-stream, using a
// [BufferSize] buffer.
func Copy(dst io.Writer, src io.Reader) (Stats, error) {
	return copyBuffer(dst, src, make([]byte, BufferSize), "copy")
}

// BCopy copies src to dst through [BCopyBufferSize] buffers until
// end-of-stream and flushes dst. Both streams are closed on every exit path,
// including a panic raised by either of them.
func BCopy(dst io.WriteCloser, src io.ReadCloser, label string) (stats Stats, err error) {
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Debug("Failure closing source stream (skipped)",
				"label", label,
				"err", cerr,
			)
		}
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = newTransferError(KindFatal, "bcopy", cerr)
		}
	}()

	bufReader := bufio.NewReaderSize(src, BCopyBufferSize)
	bufWriter := bufio.NewWriterSize(dst, BCopyBufferSize)

	stats, err = copyBuffer(bufWriter, bufReader, make([]byte, BCopyBufferSize), "bcopy")
	if err != nil {
		return stats, err
	}

	if err := bufWriter.Flush(); err != nil {
		return stats, newTransferError(KindFatal, "bcopy", err)
	}

	slog.Debug("Copied stream:",
		"label", label,
		"size", humanize.IBytes(uint64(stats.Bytes)),
		"elapsed", stats.Elapsed,
	)

	return stats, nil
}

// Succeeded maps the outcome of a copy to a pass/fail signal. Expected
// failures are logged at debug level only, everything else at error level.
func Succeeded(err error, label string) bool {
	if err == nil {
		return true
	}

	if IsExpected(err) {
		slog.Debug("Transfer aborted:",
			"label", label,
			"err", err,
		)
	} else {
		slog.Error("Transfer failed:",
			"label", label,
			"err", err,
		)
	}

	return false
}

func copyBuffer(dst io.Writer, src io.Reader, buf []byte, op string) (Stats, error) {
	start := time.Now()

	var written int64
	defer func() {
		metrics.AddBytesCopied(written)
	}()

	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return Stats{written, time.Since(start)}, newTransferError(KindFatal, op, werr)
			}
			if nw != nr {
				return Stats{written, time.Since(start)}, newTransferError(KindFatal, op, io.ErrShortWrite)
			}
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			if errors.Is(rerr, io.ErrUnexpectedEOF) {
				return Stats{written, time.Since(start)}, newTransferError(KindFatal, op,
					fmt.Errorf("%w: %w", ErrMalformedStream, rerr))
			}

			return Stats{written, time.Since(start)}, newTransferError(KindExpected, op, rerr)
		}
	}

	return Stats{written, time.Since(start)}, nil
}

func newTransferError(kind Kind, op string, err error) *TransferError {
	metrics.RecordCopyFailure(kind.String())

	return &TransferError{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}
