// Package upload implements the streaming multipart upload engine: it reads
// a child process's stdout in bounded chunks, fans part uploads out across a
// pool of senders, and finalizes or aborts the multipart upload depending on
// how the stream ends.
package upload

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andaag/zfs-to-glacier/internal/logger"
	"github.com/andaag/zfs-to-glacier/internal/metrics"
	"github.com/andaag/zfs-to-glacier/internal/objectstore"
	"github.com/andaag/zfs-to-glacier/internal/zfscmd"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v4"
)

// Store is the subset of *s3.Client the engine needs, narrowed so tests can
// substitute an in-memory fake.
type Store interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// ProgressFunc receives the cumulative bytes-sent count. It must be cheap
// and non-blocking; the reader calls it inline after submitting each part.
type ProgressFunc func(bytesSent uint64)

// Request describes one BackupAction's worth of work for the engine.
type Request struct {
	Bucket        string
	Key           string
	StorageClass  string
	EstimatedSize uint64
	Tags          Tags
	Process       zfscmd.ProcessHandle
	Progress      ProgressFunc
}

// Engine streams a child process's stdout into the object store as a single
// multipart upload.
type Engine struct {
	store Store

	// retryPolicy builds the backoff used for one store operation. Tests
	// substitute a fast policy; production always goes through
	// objectstore.NewRetryPolicy via New.
	retryPolicy func() backoff.BackOff

	metrics metrics.BackupMetrics

	// minPartSize overrides the part-size doubling search's starting floor.
	// Zero (the default from New) means MinPartSize.
	minPartSize int64
}

// New builds an Engine backed by store.
func New(store Store) *Engine {
	return &Engine{store: store, retryPolicy: objectstore.NewRetryPolicy}
}

// SetMinPartSize overrides the starting floor for part-size selection. See
// ChoosePartSizeFrom.
func (e *Engine) SetMinPartSize(minPartSize int64) {
	e.minPartSize = minPartSize
}

// SetMetrics attaches a metrics sink. A nil sink (the default) makes every
// recording call on this engine a no-op.
func (e *Engine) SetMetrics(m metrics.BackupMetrics) {
	e.metrics = m
}

type part struct {
	number int32
	data   []byte
}

type completion struct {
	part types.CompletedPart
	err  error
}

// Upload runs the full create/stream/complete-or-abort protocol for req and
// returns the total bytes sent.
func (e *Engine) Upload(ctx context.Context, req Request) (uint64, error) {
	bufSize := ChoosePartSizeFrom(e.minPartSize, req.EstimatedSize)
	tags := req.Tags.With("buffer_size", fmt.Sprintf("%d", bufSize))

	uploadID, err := e.createMultipartUpload(ctx, req, tags)
	if err != nil {
		return 0, err
	}

	bytesSent, completed, runErr := e.runPipeline(ctx, req, bufSize, uploadID)
	if runErr != nil {
		e.abort(ctx, req.Bucket, req.Key, uploadID)
		metrics.RecordUploadOutcome(e.metrics, "aborted")
		return bytesSent, runErr
	}

	sort.Slice(completed, func(i, j int) bool {
		return aws.ToInt32(completed[i].PartNumber) < aws.ToInt32(completed[j].PartNumber)
	})

	if err := e.completeMultipartUpload(ctx, req.Bucket, req.Key, uploadID, completed); err != nil {
		e.abort(ctx, req.Bucket, req.Key, uploadID)
		metrics.RecordUploadOutcome(e.metrics, "aborted")
		return bytesSent, err
	}

	metrics.RecordBytesSent(e.metrics, req.Bucket, int64(bytesSent))
	metrics.RecordPartNumber(e.metrics, len(completed))
	metrics.RecordUploadOutcome(e.metrics, "completed")
	return bytesSent, nil
}

// runPipeline drives the reader/sender-pool/collector pipeline and awaits
// the child's exit status, returning the fatal error (if any) that should
// trigger an abort.
func (e *Engine) runPipeline(ctx context.Context, req Request, bufSize int64, uploadID string) (uint64, []types.CompletedPart, error) {
	partsCh := make(chan part, 2)
	completionCh := make(chan completion, MaxPartCount)

	var bytesSent uint64
	numSenders := runtime.NumCPU()
	if numSenders < 1 {
		numSenders = 1
	}

	var wg sync.WaitGroup
	wg.Add(numSenders)
	for i := 0; i < numSenders; i++ {
		go func() {
			defer wg.Done()
			e.sendParts(ctx, req.Bucket, req.Key, uploadID, partsCh, completionCh, &bytesSent)
		}()
	}

	var completed []types.CompletedPart
	var firstErr error
	drainNonBlocking := func() {
		for {
			select {
			case c := <-completionCh:
				if c.err != nil {
					if firstErr == nil {
						firstErr = c.err
					}
					continue
				}
				completed = append(completed, c.part)
			default:
				return
			}
		}
	}

	readErr := e.readLoop(ctx, req, bufSize, partsCh, func() {
		if req.Progress != nil {
			req.Progress(atomic.LoadUint64(&bytesSent))
		}
		drainNonBlocking()
	})

	close(partsCh)
	wg.Wait()
	close(completionCh)
	for c := range completionCh {
		if c.err != nil {
			if firstErr == nil {
				firstErr = c.err
			}
			continue
		}
		completed = append(completed, c.part)
	}

	childErr := req.Process.Wait()

	switch {
	case readErr != nil:
		return bytesSent, completed, readErr
	case firstErr != nil:
		return bytesSent, completed, firstErr
	case childErr != nil:
		return bytesSent, completed, fmt.Errorf("upload: child process failed: %w", childErr)
	}

	return bytesSent, completed, nil
}

// readLoop fills successive buffers from the child's stdout and submits
// them to partsCh as (part-number, buffer) pairs. afterSubmit is invoked
// after each submission to run the progress callback and opportunistically
// drain completions.
func (e *Engine) readLoop(ctx context.Context, req Request, bufSize int64, partsCh chan<- part, afterSubmit func()) error {
	var partNumber int32

	for {
		buf := make([]byte, bufSize)
		n, err := io.ReadFull(req.Process.Stdout(), buf)

		if n > 0 {
			partNumber++
			select {
			case partsCh <- part{number: partNumber, data: buf[:n]}:
			case <-ctx.Done():
				return ctx.Err()
			}
			afterSubmit()
		}

		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		return fmt.Errorf("upload: failed to read stream: %w", err)
	}
}

// sendParts is one sender in the pool: it uploads each part it receives
// with retries and reports the outcome on completionCh.
func (e *Engine) sendParts(ctx context.Context, bucket, key, uploadID string, partsCh <-chan part, completionCh chan<- completion, bytesSent *uint64) {
	for p := range partsCh {
		etag, err := e.uploadPart(ctx, bucket, key, uploadID, p)
		if err != nil {
			completionCh <- completion{err: err}
			continue
		}
		atomic.AddUint64(bytesSent, uint64(len(p.data)))
		completionCh <- completion{part: types.CompletedPart{
			PartNumber: aws.Int32(p.number),
			ETag:       aws.String(etag),
		}}
	}
}

func (e *Engine) uploadPart(ctx context.Context, bucket, key, uploadID string, p part) (string, error) {
	sum := md5.Sum(p.data)
	digest := base64.StdEncoding.EncodeToString(sum[:])

	var etag string
	op := func() error {
		start := time.Now()
		out, err := e.store.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(p.number),
			Body:       bytes.NewReader(p.data),
			ContentMD5: aws.String(digest),
		})
		metrics.ObserveOperation(e.metrics, "UploadPart", time.Since(start), err)
		if err != nil {
			logger.WarnCtx(ctx, "upload part failed, retrying", logger.Key(key), logger.PartNumber(p.number), logger.Err(err))
			return err
		}
		etag = aws.ToString(out.ETag)
		return nil
	}

	if err := e.retry(ctx, op); err != nil {
		return "", &StoreFatalError{Op: fmt.Sprintf("part %d upload", p.number), Err: err}
	}
	return etag, nil
}

func (e *Engine) createMultipartUpload(ctx context.Context, req Request, tags Tags) (string, error) {
	storageClass, err := objectstore.StorageClassToken(req.StorageClass)
	if err != nil {
		return "", err
	}

	var uploadID string
	op := func() error {
		start := time.Now()
		out, err := e.store.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
			Bucket:       aws.String(req.Bucket),
			Key:          aws.String(req.Key),
			StorageClass: types.StorageClass(storageClass),
			Tagging:      aws.String(tags.Encode()),
		})
		metrics.ObserveOperation(e.metrics, "CreateMultipartUpload", time.Since(start), err)
		if err != nil {
			return err
		}
		uploadID = aws.ToString(out.UploadId)
		return nil
	}

	if err := e.retry(ctx, op); err != nil {
		return "", &StoreFatalError{Op: fmt.Sprintf("create multipart upload for %q", req.Key), Err: err}
	}
	return uploadID, nil
}

func (e *Engine) completeMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []types.CompletedPart) error {
	op := func() error {
		start := time.Now()
		_, err := e.store.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
			Bucket:   aws.String(bucket),
			Key:      aws.String(key),
			UploadId: aws.String(uploadID),
			MultipartUpload: &types.CompletedMultipartUpload{
				Parts: parts,
			},
		})
		metrics.ObserveOperation(e.metrics, "CompleteMultipartUpload", time.Since(start), err)
		return err
	}

	if err := e.retry(ctx, op); err != nil {
		return &StoreFatalError{Op: fmt.Sprintf("complete multipart upload for %q", key), Err: err}
	}
	return nil
}

// abort issues AbortMultipartUpload on a best-effort basis. Its failure is
// logged, not surfaced: the original error is always what the caller sees.
func (e *Engine) abort(ctx context.Context, bucket, key, uploadID string) {
	op := func() error {
		start := time.Now()
		_, err := e.store.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(bucket),
			Key:      aws.String(key),
			UploadId: aws.String(uploadID),
		})
		metrics.ObserveOperation(e.metrics, "AbortMultipartUpload", time.Since(start), err)
		if err != nil {
			var noSuchUpload *types.NoSuchUpload
			if errors.As(err, &noSuchUpload) {
				return nil
			}
		}
		return err
	}

	if err := e.retry(ctx, op); err != nil {
		logger.ErrorCtx(ctx, "failed to abort multipart upload", logger.Bucket(bucket), logger.Key(key), logger.UploadID(uploadID), logger.Err(err))
	}
}

// retry wraps op in the engine's backoff policy, which defaults to the
// fixed-step policy shared by every store operation (spec §4.4.4): up to
// objectstore.MaxRetries attempts, sleeping attempt*2 seconds between them.
func (e *Engine) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(op, backoff.WithContext(e.retryPolicy(), ctx))
}
