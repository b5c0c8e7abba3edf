// Package storage decorates an object-storage backend with retry and a
// local-stub degrade so ingestion proceeds even when the blob store is
// down.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"office-archive-indexer/internal/core/domain"
	"office-archive-indexer/internal/core/ports"
)

const StubBucket = "local-stub"

type Resilient struct {
	inner    ports.ObjectStorage
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

func NewResilient(inner ports.ObjectStorage, attempts int, delay time.Duration, logger *slog.Logger) *Resilient {
	if attempts <= 0 {
		attempts = 3
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resilient{inner: inner, attempts: uint(attempts), delay: delay, logger: logger}
}

// Upload retries transient backend failures and, after exhaustion,
// returns a stub object instead of an error. The caller keeps going;
// the stub bucket marks the blob for later re-upload.
func (r *Resilient) Upload(ctx context.Context, key string, data io.Reader, mimeType string) (*domain.StoredObject, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("buffer upload payload: %w", err)
	}

	var stored *domain.StoredObject
	err = retry.Do(
		func() error {
			obj, err := r.inner.Upload(ctx, key, bytes.NewReader(raw), mimeType)
			if err != nil {
				return err
			}
			stored = obj
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("storage_upload_retry", "key", key, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		r.logger.Warn("storage_upload_degraded", "key", key, "error", err)
		return &domain.StoredObject{
			Key:    key,
			Bucket: StubBucket,
			URL:    "stub://" + key,
		}, nil
	}
	return stored, nil
}
