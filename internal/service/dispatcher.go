package service

import (
	"context"

	"github.com/ATenderholt/s3-virusscan/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// VerdictDispatcher acts on the verdict for a single record.
type VerdictDispatcher interface {
	Dispatch(ctx context.Context, record domain.ObjectRecord, verdict domain.Verdict) error
}

// Dispatcher alerts on infected objects and, when the policy says so,
// removes them afterwards.
type Dispatcher struct {
	policy    domain.Policy
	store     ObjectStore
	publisher Publisher
}

func NewDispatcher(policy domain.Policy, store ObjectStore, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		policy:    policy,
		store:     store,
		publisher: publisher,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, record domain.ObjectRecord, verdict domain.Verdict) error {
	switch verdict {
	case domain.VerdictClean:
		logger.Debugf("%s was scanned without findings", record)
		return nil
	case domain.VerdictInfected:
		return d.infected(ctx, record)
	default:
		logger.Debugf("%s could not be scanned, skipping", record)
		return nil
	}
}

func (d *Dispatcher) infected(ctx context.Context, record domain.ObjectRecord) error {
	message := domain.InfectedMessage(record, d.policy.Delete)
	logger.Error(message)

	err := d.publisher.Publish(ctx, record.Bucket, record.Key, message)
	if err != nil {
		return err
	}

	if !d.policy.Delete {
		return nil
	}

	_, err = d.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(record.Bucket),
		Key:    aws.String(record.Key),
	})
	if err != nil {
		logger.Error(DeleteError{bucket: record.Bucket, key: record.Key, base: err})
		return nil
	}

	logger.Errorf("%s was deleted", record)
	return nil
}
