package model

// RawAttachment is one attachment lifted out of a decoded email. The payload
// is owned by the NormalizedEmail until it is handed to the publisher.
type RawAttachment struct {
	Filename    string
	ContentType string
	Binary      []byte
}

// NormalizedEmail is the decoded form of a raw message. It is immutable once
// produced and lives only for the duration of one pipeline run.
type NormalizedEmail struct {
	FromEmail   string
	ToEmail     string
	Subject     string
	Body        string
	Attachments []RawAttachment
}
