package domain

import "fmt"

const (
	AlertKeyAttribute  = "key"
	StringDataType     = "String"
	infectedMessage    = "is infected"
	infectedDeletedMsg = "is infected, deleting..."
)

type AlertAttribute struct {
	DataType    string
	StringValue string
}

// Alert is published once for every infected object.
type Alert struct {
	Subject    string
	Body       string
	Attributes map[string]AlertAttribute
}

func NewAlert(bucket, key, message string) Alert {
	return Alert{
		Subject: fmt.Sprintf("s3-virusscan s3://%s", bucket),
		Body:    message,
		Attributes: map[string]AlertAttribute{
			AlertKeyAttribute: {
				DataType:    StringDataType,
				StringValue: fmt.Sprintf("s3://%s/%s", bucket, key),
			},
		},
	}
}

// InfectedMessage is the alert body for an infected object.
func InfectedMessage(record ObjectRecord, deleting bool) string {
	if deleting {
		return record.URI() + " " + infectedDeletedMsg
	}

	return record.URI() + " " + infectedMessage
}
