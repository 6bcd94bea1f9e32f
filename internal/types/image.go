package types

// Location addresses an object in the store.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return "s3://" + l.Bucket + "/" + l.Key
}

// StoredObject is what the store hands back for a read.
type StoredObject struct {
	Body        []byte
	ContentType string
}

// ImageAsset lives for a single invocation only.
type ImageAsset struct {
	Data        []byte
	ContentType string
	Format      string
	Width       int
	Height      int
}
