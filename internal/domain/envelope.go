package domain

import (
	"encoding/json"
	"fmt"
)

const snsNotificationType = "Notification"

// Envelope is the decoded body of a queue message. A nil Records slice means
// the body carried no record list, which is not an error.
type Envelope struct {
	Records []EventRecord `json:"Records"`
}

// snsEnvelope is the wrapper added when S3 notifications are fanned out
// through an SNS topic without raw message delivery.
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

type EnvelopeError struct {
	base error
}

func (e EnvelopeError) Error() string {
	return fmt.Sprintf("Unable to decode event envelope: %v", e.base)
}

func (e EnvelopeError) Unwrap() error {
	return e.base
}

// ParseEnvelope decodes a message body into an Envelope, unwrapping an SNS
// notification first when present.
func ParseEnvelope(body string) (Envelope, error) {
	var wrapper snsEnvelope
	if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
		return Envelope{}, EnvelopeError{base: err}
	}

	if wrapper.Type == snsNotificationType && wrapper.Message != "" {
		body = wrapper.Message
	}

	var envelope Envelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return Envelope{}, EnvelopeError{base: err}
	}

	return envelope, nil
}

// ObjectRecords decodes every record of the envelope in order. Records whose
// key cannot be decoded are returned as errors alongside the good ones.
func (e Envelope) ObjectRecords() ([]ObjectRecord, []error) {
	records := make([]ObjectRecord, 0, len(e.Records))
	var errs []error

	for _, r := range e.Records {
		record, err := NewObjectRecord(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, record)
	}

	return records, errs
}
