package domain

import (
	"strings"
	"time"
)

type S3Object struct {
	Key       string `json:"key"`
	Size      int64  `json:"size"`
	ETag      string `json:"eTag"`
	VersionId string `json:"versionId,omitempty"`
	Sequencer string `json:"sequencer"`
}

type S3BucketOwnerIdentity struct {
	PrincipalId string `json:"principalId"`
}

type S3Bucket struct {
	Name          string                `json:"name"`
	OwnerIdentity S3BucketOwnerIdentity `json:"ownerIdentity"`
	Arn           string                `json:"arn"`
}

type S3Record struct {
	S3SchemaVersion string   `json:"s3SchemaVersion"`
	ConfigurationId string   `json:"configurationId"`
	Bucket          S3Bucket `json:"bucket"`
	Object          S3Object `json:"object"`
}

type ResponseElements struct {
	RequestId string `json:"x-amz-request-id"`
	Id2       string `json:"x-amz-id-2"`
}

type RequestParameters struct {
	SourceIPAddress string `json:"sourceIPAddress"`
}

type UserIdentity struct {
	PrincipalId string `json:"principalId"`
}

// JsonTime accepts any RFC 3339 timestamp. A value that does not parse is
// left zero.
type JsonTime time.Time

func (t *JsonTime) UnmarshalJSON(bytes []byte) error {
	value := strings.Trim(string(bytes), "\"")
	if value == "" || value == "null" {
		return nil
	}

	newTime, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil
	}

	*t = JsonTime(newTime)
	return nil
}

// EventRecord is a single entry of the Records list in an S3 event notification.
type EventRecord struct {
	EventVersion      string            `json:"eventVersion"`
	EventSource       string            `json:"eventSource"`
	AwsRegion         string            `json:"awsRegion"`
	EventTime         JsonTime          `json:"eventTime"`
	EventName         string            `json:"eventName"`
	UserIdentity      UserIdentity      `json:"userIdentity"`
	RequestParameters RequestParameters `json:"requestParameters"`
	ResponseElements  ResponseElements  `json:"responseElements"`
	S3                S3Record          `json:"s3"`
}
