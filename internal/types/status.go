package types

// StatusData represents the inner payload
type StatusData struct {
	ID                string `json:"id"`
	SourceBucket      string `json:"sourceBucket"`
	SourceKey         string `json:"sourceKey"`
	DestinationBucket string `json:"destinationBucket,omitempty"`
	DestinationKey    string `json:"destinationKey,omitempty"`
	Status            string `json:"status"`
	ErrorMsg          string `json:"errorMsg,omitempty"`
}

// StatusMessage represents the full message envelope
type StatusMessage struct {
	Pattern string     `json:"pattern"`
	Data    StatusData `json:"data"`
}

const PROCESSED = "PROCESSED"
const FAILED = "FAILED"
