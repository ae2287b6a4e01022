package service

import (
	"fmt"
)

type FetchError struct {
	bucket string
	key    string
	base   error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("Unable to fetch s3://%s/%s: %v", e.bucket, e.key, e.base)
}

func (e FetchError) Unwrap() error {
	return e.base
}

type StageError struct {
	path string
	base error
}

func (e StageError) Error() string {
	return fmt.Sprintf("Unable to stage object to %s: %v", e.path, e.base)
}

func (e StageError) Unwrap() error {
	return e.base
}

type ScanError struct {
	path string
	base error
}

func (e ScanError) Error() string {
	return fmt.Sprintf("Unable to scan %s: %v", e.path, e.base)
}

func (e ScanError) Unwrap() error {
	return e.base
}

type PublishError struct {
	topic string
	uri   string
	base  error
}

func (e PublishError) Error() string {
	return fmt.Sprintf("Unable to publish alert for %s to %s: %v", e.uri, e.topic, e.base)
}

func (e PublishError) Unwrap() error {
	return e.base
}

type DeleteError struct {
	bucket string
	key    string
	base   error
}

func (e DeleteError) Error() string {
	return fmt.Sprintf("Unable to delete s3://%s/%s: %v", e.bucket, e.key, e.base)
}

func (e DeleteError) Unwrap() error {
	return e.base
}

type QueueError struct {
	queue string
	base  error
}

func (e QueueError) Error() string {
	return fmt.Sprintf("Unable to reach queue %s: %v", e.queue, e.base)
}

func (e QueueError) Unwrap() error {
	return e.base
}

// PanicError wraps a value recovered while processing a record.
type PanicError struct {
	uri   string
	value interface{}
}

func (e PanicError) Error() string {
	return fmt.Sprintf("Panic while processing %s: %v", e.uri, e.value)
}
