package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ObjectCreatedEvent prefixes the name of every event that stores new content.
const ObjectCreatedEvent = "ObjectCreated:"

// ObjectRecord addresses one storage object referenced by an event.
type ObjectRecord struct {
	Bucket string
	Key    string // decoded S3 object key
	Event  string // S3 event name (i.e. "ObjectCreated:Put")
	Size   int64
	Time   time.Time
}

type KeyError struct {
	Bucket string
	Key    string
	base   error
}

func (e KeyError) Error() string {
	return fmt.Sprintf("Unable to decode key %q in bucket %s: %v", e.Key, e.Bucket, e.base)
}

func (e KeyError) Unwrap() error {
	return e.base
}

// DecodeKey turns an event key into the real object key. Event keys are
// form encoded: '+' stands for a space and a literal '+' arrives as %2B.
func DecodeKey(key string) (string, error) {
	return url.QueryUnescape(key)
}

func NewObjectRecord(r EventRecord) (ObjectRecord, error) {
	key, err := DecodeKey(r.S3.Object.Key)
	if err != nil {
		return ObjectRecord{}, KeyError{Bucket: r.S3.Bucket.Name, Key: r.S3.Object.Key, base: err}
	}

	return ObjectRecord{
		Bucket: r.S3.Bucket.Name,
		Key:    key,
		Event:  r.EventName,
		Size:   r.S3.Object.Size,
		Time:   time.Time(r.EventTime),
	}, nil
}

// IsCreated reports whether the record announces new object content. Records
// without an event name are assumed to.
func (r ObjectRecord) IsCreated() bool {
	return r.Event == "" || strings.HasPrefix(r.Event, ObjectCreatedEvent)
}

// URI renders the record as s3://bucket/key.
func (r ObjectRecord) URI() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

func (r ObjectRecord) String() string {
	return r.URI()
}
