package service_test

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/ATenderholt/s3-virusscan/internal/domain"
	"github.com/ATenderholt/s3-virusscan/internal/service"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const testQueueURL = "https://sqs.us-west-2.amazonaws.com/271828182845/s3-virusscan"

// Journal records calls across fakes so tests can check ordering.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *Journal) Add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type objectRef struct {
	Bucket string
	Key    string
}

type FakeStore struct {
	journal *Journal
	objects map[objectRef][]byte
	getErr  error
	delErr  error

	mu      sync.Mutex
	gets    []objectRef
	deletes []objectRef
}

func NewFakeStore(journal *Journal) *FakeStore {
	return &FakeStore{
		journal: journal,
		objects: make(map[objectRef][]byte),
	}
}

func (s *FakeStore) Put(bucket, key string, body []byte) {
	s.objects[objectRef{bucket, key}] = body
}

func (s *FakeStore) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	ref := objectRef{aws.ToString(params.Bucket), aws.ToString(params.Key)}

	s.mu.Lock()
	s.gets = append(s.gets, ref)
	s.mu.Unlock()
	s.journal.Add("get " + ref.Bucket + "/" + ref.Key)

	if s.getErr != nil {
		return nil, s.getErr
	}

	body, ok := s.objects[ref]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (s *FakeStore) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	ref := objectRef{aws.ToString(params.Bucket), aws.ToString(params.Key)}

	s.mu.Lock()
	s.deletes = append(s.deletes, ref)
	s.mu.Unlock()
	s.journal.Add("delete " + ref.Bucket + "/" + ref.Key)

	if s.delErr != nil {
		return nil, s.delErr
	}

	delete(s.objects, ref)
	return &s3.DeleteObjectOutput{}, nil
}

func (s *FakeStore) Gets() []objectRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]objectRef(nil), s.gets...)
}

func (s *FakeStore) Deletes() []objectRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]objectRef(nil), s.deletes...)
}

type FakeNotifications struct {
	journal *Journal
	err     error

	mu        sync.Mutex
	published []*sns.PublishInput
}

func (n *FakeNotifications) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	n.mu.Lock()
	n.published = append(n.published, params)
	n.mu.Unlock()
	n.journal.Add("publish " + aws.ToString(params.Message))

	if n.err != nil {
		return nil, n.err
	}

	return &sns.PublishOutput{MessageId: aws.String("message-id")}, nil
}

func (n *FakeNotifications) Published() []*sns.PublishInput {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*sns.PublishInput(nil), n.published...)
}

// FakeScanner returns a fixed verdict, or panics when asked to.
type FakeScanner struct {
	journal *Journal
	verdict domain.Verdict
	err     error
	panics  bool
	hook    func(path string)

	mu    sync.Mutex
	paths []string
}

func (s *FakeScanner) Scan(_ context.Context, path string) (domain.Verdict, error) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	s.journal.Add("scan")

	if s.hook != nil {
		s.hook(path)
	}

	if s.panics {
		panic("scanner exploded")
	}

	return s.verdict, s.err
}

func (s *FakeScanner) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// CountingStager hands out in-memory targets and counts how often each is released.
type CountingStager struct {
	outcome service.StageOutcome
	err     error

	mu       sync.Mutex
	staged   int
	releases map[string]int
}

func NewCountingStager() *CountingStager {
	return &CountingStager{releases: make(map[string]int)}
}

func (s *CountingStager) Stage(_ context.Context, record domain.ObjectRecord) (*service.ScanTarget, service.StageOutcome, error) {
	if s.outcome != service.Staged || s.err != nil {
		return nil, s.outcome, s.err
	}

	s.mu.Lock()
	s.staged++
	s.mu.Unlock()

	remove := func(path string) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.releases[path]++
		return nil
	}

	return service.NewScanTarget("/scratch/"+record.Key, remove), service.Staged, nil
}

func (s *CountingStager) Releases() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.releases))
	for k, v := range s.releases {
		out[k] = v
	}
	return out
}

// FakeQueue serves queued batches once and then blocks until the receive context ends.
type FakeQueue struct {
	receiveErrs int

	mu            sync.Mutex
	batches       [][]types.Message
	deleted       []string
	visibility    []int32
	urlLookups    []string
	attributeURLs []string
	deletedCh     chan string
}

func NewFakeQueue(batches ...[]types.Message) *FakeQueue {
	return &FakeQueue{
		batches:   batches,
		deletedCh: make(chan string, 100),
	}
}

func (q *FakeQueue) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q.mu.Lock()
	if q.receiveErrs > 0 {
		q.receiveErrs--
		q.mu.Unlock()
		return nil, context.DeadlineExceeded
	}

	if len(q.batches) > 0 {
		batch := q.batches[0]
		q.batches = q.batches[1:]
		q.mu.Unlock()
		return &sqs.ReceiveMessageOutput{Messages: batch}, nil
	}
	q.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *FakeQueue) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	handle := aws.ToString(params.ReceiptHandle)

	q.mu.Lock()
	q.deleted = append(q.deleted, handle)
	q.mu.Unlock()
	q.deletedCh <- handle

	return &sqs.DeleteMessageOutput{}, nil
}

func (q *FakeQueue) ChangeMessageVisibility(_ context.Context, params *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.visibility = append(q.visibility, params.VisibilityTimeout)
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (q *FakeQueue) GetQueueUrl(_ context.Context, params *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.urlLookups = append(q.urlLookups, aws.ToString(params.QueueName))
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String(testQueueURL)}, nil
}

func (q *FakeQueue) GetQueueAttributes(_ context.Context, params *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.attributeURLs = append(q.attributeURLs, aws.ToString(params.QueueUrl))
	return &sqs.GetQueueAttributesOutput{}, nil
}

func (q *FakeQueue) Deleted() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.deleted...)
}

func (q *FakeQueue) Visibility() []int32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]int32(nil), q.visibility...)
}

type TestConfig struct {
	dir string
}

func (c TestConfig) ScratchPath() string {
	return c.dir
}
