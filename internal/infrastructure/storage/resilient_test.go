package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"office-archive-indexer/internal/core/domain"
)

type flakyBackend struct {
	failures int
	calls    int
	lastBody string
}

func (f *flakyBackend) Upload(_ context.Context, key string, data io.Reader, _ string) (*domain.StoredObject, error) {
	f.calls++
	raw, _ := io.ReadAll(data)
	f.lastBody = string(raw)
	if f.calls <= f.failures {
		return nil, errors.New("backend down")
	}
	return &domain.StoredObject{Key: key, Bucket: "documents", URL: "file:///" + key}, nil
}

func TestUploadRetriesThenSucceeds(t *testing.T) {
	backend := &flakyBackend{failures: 2}
	res := NewResilient(backend, 3, time.Millisecond, nil)

	obj, err := res.Upload(context.Background(), "abc", strings.NewReader("payload"), "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if backend.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", backend.calls)
	}
	if obj.Bucket != "documents" {
		t.Fatalf("expected real bucket, got %q", obj.Bucket)
	}
	if backend.lastBody != "payload" {
		t.Fatalf("payload not replayed on retry: %q", backend.lastBody)
	}
}

func TestUploadDegradesToStubAfterExhaustion(t *testing.T) {
	backend := &flakyBackend{failures: 10}
	res := NewResilient(backend, 2, time.Millisecond, nil)

	obj, err := res.Upload(context.Background(), "abc", strings.NewReader("payload"), "application/pdf")
	if err != nil {
		t.Fatalf("degrade must not fail, got %v", err)
	}
	if obj.Bucket != StubBucket {
		t.Fatalf("expected stub bucket, got %q", obj.Bucket)
	}
	if obj.URL != "stub://abc" {
		t.Fatalf("expected stub url, got %q", obj.URL)
	}
}
