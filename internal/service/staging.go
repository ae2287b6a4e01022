package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ATenderholt/s3-virusscan/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

const scratchPrefix = "s3-virusscan-"

type StageOutcome int

const (
	// Staged means the object was copied to a ScanTarget.
	Staged StageOutcome = iota
	// Gone means the object was deleted before it could be fetched.
	Gone
	// Failed means the object could not be staged; the error says why.
	Failed
)

type StagingConfig interface {
	ScratchPath() string
}

// ObjectStager copies a remote object to a local ScanTarget.
type ObjectStager interface {
	Stage(ctx context.Context, record domain.ObjectRecord) (*ScanTarget, StageOutcome, error)
}

// ScanTarget is a scratch copy of one object. Release removes it; only the
// first call has any effect.
type ScanTarget struct {
	Path string

	remove func(string) error
	once   sync.Once
	err    error
}

func NewScanTarget(path string, remove func(string) error) *ScanTarget {
	return &ScanTarget{
		Path:   path,
		remove: remove,
	}
}

func (t *ScanTarget) Release() error {
	t.once.Do(func() {
		t.err = t.remove(t.Path)
		if errors.Is(t.err, os.ErrNotExist) {
			t.err = nil
		}
	})

	return t.err
}

type Stager struct {
	dir   string
	store ObjectStore
}

func NewStager(cfg StagingConfig, store ObjectStore) (*Stager, error) {
	dir := cfg.ScratchPath()

	logger.Debugf("Creating scratch directory %s if necessary ...", dir)
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, StageError{path: dir, base: err}
	}

	return &Stager{
		dir:   dir,
		store: store,
	}, nil
}

func (s *Stager) Stage(ctx context.Context, record domain.ObjectRecord) (*ScanTarget, StageOutcome, error) {
	output, err := s.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(record.Bucket),
		Key:    aws.String(record.Key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, Gone, nil
		}

		return nil, Failed, FetchError{bucket: record.Bucket, key: record.Key, base: err}
	}
	defer output.Body.Close()

	path := filepath.Join(s.dir, scratchPrefix+uuid.New().String())
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, Failed, StageError{path: path, base: err}
	}

	target := NewScanTarget(path, os.Remove)

	_, err = io.Copy(file, output.Body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = target.Release()
		return nil, Failed, FetchError{bucket: record.Bucket, key: record.Key, base: err}
	}

	return target, Staged, nil
}

func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}
