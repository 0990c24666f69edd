package fileutil

import (
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"time"

	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/internal/telemetry"
	"github.com/marmos91/safefs/pkg/bufpool"
)

// Progress is one step of CopyWithProgress.
type Progress struct {
	Block  int   // bytes written by this step
	Copied int64 // bytes written so far
}

// CopyWithProgress copies src to dst one block at a time.
//
// Nothing happens until the caller ranges over the returned sequence. Each
// iteration reads and writes one block and then yields; breaking out of the
// loop, or cancelling ctx, stops the copy immediately and leaves a partial
// dst that the caller is responsible for removing. An error is yielded at
// most once, as the final element.
//
// dst is created or truncated, and opened with O_SYNC unless sync writes
// are disabled.
func (f *FS) CopyWithProgress(ctx context.Context, src, dst string) iter.Seq2[Progress, error] {
	return func(yield func(Progress, error) bool) {
		if err := ValidatePath("copy", src); err != nil {
			yield(Progress{}, err)
			return
		}
		if err := ValidatePath("copy", dst); err != nil {
			yield(Progress{}, err)
			return
		}

		ctx, span := telemetry.StartFileSpan(ctx, telemetry.SpanCopy, src,
			telemetry.Dest(dst), telemetry.BlockSize(f.blockSize))
		defer span.End()

		var copied int64
		result := CopyResultError
		start := time.Now()
		defer func() {
			span.SetAttributes(telemetry.Bytes(copied), telemetry.Cancelled(result == CopyResultCancelled))
			if f.metrics != nil {
				f.metrics.ObserveCopy(copied, time.Since(start), result)
			}
		}()

		fail := func(err error) {
			telemetry.RecordError(ctx, err)
			yield(Progress{Copied: copied}, err)
		}

		in, err := f.fs.Open(f.Expand(src))
		if err != nil {
			fail(err)
			return
		}
		defer func() { _ = in.Close() }()

		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if f.syncWrites {
			flags |= os.O_SYNC
		}
		out, err := f.fs.OpenFile(f.Expand(dst), flags, 0o644)
		if err != nil {
			fail(err)
			return
		}
		closed := false
		defer func() {
			if !closed {
				_ = out.Close()
			}
		}()

		buf := bufpool.Get(f.blockSize)
		defer bufpool.Put(buf)

		for {
			if err := ctx.Err(); err != nil {
				result = CopyResultCancelled
				yield(Progress{Copied: copied}, err)
				return
			}

			n, readErr := io.ReadFull(in, buf)
			if n > 0 {
				if _, err := out.Write(buf[:n]); err != nil {
					fail(err)
					return
				}
				copied += int64(n)
				if !yield(Progress{Block: n, Copied: copied}, nil) {
					result = CopyResultCancelled
					logger.Debug("copy cancelled", logger.Path(src), logger.Dest(dst), logger.Bytes(copied))
					return
				}
			}
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				break
			}
			if readErr != nil {
				fail(readErr)
				return
			}
		}

		closed = true
		if err := out.Close(); err != nil {
			fail(err)
			return
		}
		result = CopyResultOK
	}
}
