package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ATenderholt/s3-virusscan/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/reactivex/rxgo/v2"
)

const (
	DefaultConnectTimeout = time.Minute
	maxReceiveBackoff     = time.Minute
)

type PollOptions struct {
	Workers           int
	BatchSize         int32
	WaitTime          int32
	VisibilityTimeout int32
	ConnectTimeout    time.Duration
}

// Pipeline receives S3 event notifications from the queue and drives every
// record through staging, scanning and dispatch. A message is acknowledged
// once all of its records have been handled.
type Pipeline struct {
	queue      QueueClient
	queueRef   string
	queueURL   string
	options    PollOptions
	filter     domain.Filter
	stager     ObjectStager
	scanner    Scanner
	dispatcher VerdictDispatcher
}

func NewPipeline(
	policy domain.Policy,
	options PollOptions,
	filter domain.Filter,
	queue QueueClient,
	stager ObjectStager,
	scanner Scanner,
	dispatcher VerdictDispatcher,
) *Pipeline {
	if options.Workers < 1 {
		options.Workers = 1
	}

	if options.ConnectTimeout <= 0 {
		options.ConnectTimeout = DefaultConnectTimeout
	}

	return &Pipeline{
		queue:      queue,
		queueRef:   policy.Queue,
		options:    options,
		filter:     filter,
		stager:     stager,
		scanner:    scanner,
		dispatcher: dispatcher,
	}
}

func isQueueURL(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// Connect resolves the queue URL and makes sure the queue is reachable,
// retrying with exponential backoff for up to ConnectTimeout.
func (p *Pipeline) Connect(ctx context.Context) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = p.options.ConnectTimeout

	operation := func() error {
		url := p.queueRef
		if !isQueueURL(url) {
			output, err := p.queue.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
				QueueName: aws.String(p.queueRef),
			})
			if err != nil {
				logger.Warnf("Unable to resolve queue %s, will retry: %v", p.queueRef, err)
				return err
			}
			url = aws.ToString(output.QueueUrl)
		}

		_, err := p.queue.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
			QueueUrl:       aws.String(url),
			AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
		})
		if err != nil {
			logger.Warnf("Unable to reach queue %s, will retry: %v", url, err)
			return err
		}

		p.queueURL = url
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx))
	if err != nil {
		return QueueError{queue: p.queueRef, base: err}
	}

	logger.Infof("Connected to queue %s", p.queueURL)
	return nil
}

// Run polls the queue with the configured number of receivers until ctx is
// cancelled. Messages already received are processed to completion on a
// context that is not cancelled with ctx.
func (p *Pipeline) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < p.options.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p.poll(ctx, worker)
		}(i)
	}

	wg.Wait()
}

func (p *Pipeline) poll(ctx context.Context, worker int) {
	logger.Debugf("Receiver %d started", worker)
	defer logger.Debugf("Receiver %d stopped", worker)

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 0
	expBackoff.MaxInterval = maxReceiveBackoff

	processing := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		output, err := p.queue.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(p.queueURL),
			MaxNumberOfMessages: p.options.BatchSize,
			WaitTimeSeconds:     p.options.WaitTime,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			wait := expBackoff.NextBackOff()
			logger.Errorf("Failed to receive messages from %s, retrying in %v: %v", p.queueURL, wait, err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		expBackoff.Reset()

		if len(output.Messages) > 0 {
			logger.Debugf("Receiver %d received %d messages", worker, len(output.Messages))
		}

		for _, message := range output.Messages {
			p.HandleMessage(processing, message)
		}
	}
}

// HandleMessage processes every record in the message in order and then
// deletes the message from the queue.
func (p *Pipeline) HandleMessage(ctx context.Context, message types.Message) {
	id := aws.ToString(message.MessageId)

	stop := p.keepVisible(ctx, message)
	defer stop()

	envelope, err := domain.ParseEnvelope(aws.ToString(message.Body))
	if err != nil {
		logger.Errorf("Discarding message %s: %v", id, err)
		p.acknowledge(ctx, message)
		return
	}

	if envelope.Records == nil {
		logger.Debugf("Message %s carries no records", id)
		p.acknowledge(ctx, message)
		return
	}

	records, errs := envelope.ObjectRecords()
	for _, err := range errs {
		logger.Error(err)
	}

	items := make([]interface{}, 0, len(records))
	for _, record := range records {
		items = append(items, record)
	}

	observable := rxgo.Just(items...)().Filter(func(i interface{}) bool {
		record := i.(domain.ObjectRecord)
		if record.IsCreated() {
			return true
		}

		logger.Debugf("%s has event %s, skipping", record, record.Event)
		return false
	}).Filter(func(i interface{}) bool {
		if p.filter.FilterEvents(i) {
			return true
		}

		logger.Debugf("%s does not match filters, skipping", i.(domain.ObjectRecord))
		return false
	})

	for item := range observable.Observe() {
		if item.Error() {
			logger.Error(item.E)
			continue
		}

		record := item.V.(domain.ObjectRecord)
		err := p.ProcessRecord(ctx, record)
		if err != nil {
			logger.Errorf("Failed to process %s: %v", record, err)
		}
	}

	p.acknowledge(ctx, message)
}

// ProcessRecord stages, scans and dispatches a single object. The staged
// copy is released before it returns, whatever the outcome.
func (p *Pipeline) ProcessRecord(ctx context.Context, record domain.ObjectRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PanicError{uri: record.URI(), value: r}
		}
	}()

	logger.Debugf("scanning %s (%d bytes, %s at %v)...", record, record.Size, record.Event, record.Time)

	target, outcome, err := p.stager.Stage(ctx, record)
	switch outcome {
	case Gone:
		logger.Debugf("%s no longer exists, skipping", record)
		return nil
	case Failed:
		return err
	}

	defer func() {
		if releaseErr := target.Release(); releaseErr != nil {
			logger.Warnf("Unable to remove scratch file %s: %v", target.Path, releaseErr)
		}
	}()

	verdict, err := p.scanner.Scan(ctx, target.Path)
	if err != nil {
		return err
	}

	return p.dispatcher.Dispatch(ctx, record, verdict)
}

func (p *Pipeline) acknowledge(ctx context.Context, message types.Message) {
	_, err := p.queue.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		logger.Errorf("Failed to delete message %s from queue: %v", aws.ToString(message.MessageId), err)
		return
	}

	logger.Debugf("Message %s deleted from queue", aws.ToString(message.MessageId))
}

// keepVisible extends the visibility of message every half timeout until
// the returned function is called.
func (p *Pipeline) keepVisible(ctx context.Context, message types.Message) func() {
	if p.options.VisibilityTimeout <= 0 {
		return func() {}
	}

	heartbeat, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(time.Duration(p.options.VisibilityTimeout) * time.Second / 2)
		defer ticker.Stop()

		for {
			select {
			case <-heartbeat.Done():
				return
			case <-ticker.C:
				p.extendVisibility(heartbeat, message)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (p *Pipeline) extendVisibility(ctx context.Context, message types.Message) {
	_, err := p.queue.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(p.queueURL),
		ReceiptHandle:     message.ReceiptHandle,
		VisibilityTimeout: p.options.VisibilityTimeout,
	})
	if err != nil {
		if ctx.Err() == nil {
			logger.Errorf("Failed to extend visibility of message %s: %v", aws.ToString(message.MessageId), err)
		}
		return
	}

	logger.Debugf("Extended visibility of message %s by %ds", aws.ToString(message.MessageId), p.options.VisibilityTimeout)
}
