package types

// S3Event is the notification body S3 (and MinIO) deliver on object creation.
// Only the fields the thumbnailer reads are kept.
type S3Event struct {
	Records []S3EventRecord `json:"Records"`
}

type S3EventRecord struct {
	EventSource string        `json:"eventSource,omitempty"`
	AwsRegion   string        `json:"awsRegion,omitempty"`
	EventTime   string        `json:"eventTime,omitempty"`
	EventName   string        `json:"eventName,omitempty"`
	S3          S3EventEntity `json:"s3"`
}

type S3EventEntity struct {
	Bucket S3EventBucket `json:"bucket"`
	Object S3EventObject `json:"object"`
}

type S3EventBucket struct {
	Name string `json:"name"`
	Arn  string `json:"arn,omitempty"`
}

type S3EventObject struct {
	// Key arrives percent-encoded.
	Key       string `json:"key"`
	Size      int64  `json:"size,omitempty"`
	ETag      string `json:"eTag,omitempty"`
	Sequencer string `json:"sequencer,omitempty"`
}
