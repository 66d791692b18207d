// Package mail turns raw message bytes into a NormalizedEmail.
package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"

	"lazy-receipt-go/internal/model"
)

const (
	defaultFilename    = "unknown"
	defaultContentType = "application/octet-stream"
)

// ErrParse reports a byte stream that is not a well-formed mail structure.
var ErrParse = fmt.Errorf("malformed email")

// Decode parses raw message bytes into a NormalizedEmail. The body is the
// first text/plain part if present, else the first text/html part, else
// empty. Decoding has no side effects.
func Decode(raw []byte) (*model.NormalizedEmail, error) {
	r, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	email := &model.NormalizedEmail{
		FromEmail: firstAddress(r, "From"),
		ToEmail:   firstAddress(r, "To"),
	}
	if subject, err := r.Header.Subject(); err == nil {
		email.Subject = subject
	}

	var plainBody, htmlBody string
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				logrus.Warnf("Unknown charset in mail part: %v", err)
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			mediaType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: reading body part: %v", ErrParse, err)
			}
			switch {
			case mediaType == "text/plain" && plainBody == "":
				plainBody = string(body)
			case mediaType == "text/html" && htmlBody == "":
				htmlBody = string(body)
			}
		case *gomail.AttachmentHeader:
			att, err := readAttachment(h, part.Body)
			if err != nil {
				return nil, err
			}
			email.Attachments = append(email.Attachments, att)
		}
	}

	email.Body = plainBody
	if email.Body == "" {
		email.Body = htmlBody
	}

	logrus.Infof("Decoded email from %s with %d attachments", email.FromEmail, len(email.Attachments))
	return email, nil
}

func readAttachment(h *gomail.AttachmentHeader, body io.Reader) (model.RawAttachment, error) {
	filename, err := h.Filename()
	if err != nil || strings.TrimSpace(filename) == "" {
		filename = defaultFilename
	}

	contentType, _, err := h.ContentType()
	if err != nil || contentType == "" {
		contentType = defaultContentType
	}

	payload, err := io.ReadAll(body)
	if err != nil {
		return model.RawAttachment{}, fmt.Errorf("%w: reading attachment %s: %v", ErrParse, filename, err)
	}

	return model.RawAttachment{
		Filename:    filename,
		ContentType: contentType,
		Binary:      payload,
	}, nil
}

func firstAddress(r *gomail.Reader, field string) string {
	addrs, err := r.Header.AddressList(field)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	return addrs[0].Address
}
