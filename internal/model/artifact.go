package model

// Candidate is one billable document discovered in an email, before it is
// published to durable storage.
type Candidate struct {
	Name        string
	ContentType string
	Binary      []byte
}

// PublishedArtifact is a candidate after the publish step. StorageKey is the
// only value that may be persisted; SignedURL expires and is regenerated on
// every read.
type PublishedArtifact struct {
	DisplayName string
	SignedURL   string
	StorageKey  string
}
