// Package mime assembles RFC 822 messages for the mail transports.
// Both the SMTP and the Gmail adapter hand the same byte form to their
// respective backends.
package mime

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// Build assembles a multipart MIME message with an HTML body and the
// message's file attachments. Attachment paths are read at build time;
// a missing file fails the whole build.
func Build(fromName, fromAddr string, msg domain.Message) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", formatAddress(fromName, fromAddr))
	fmt.Fprintf(&buf, "To: %s\r\n", formatAddress(msg.ToName, msg.To))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	fmt.Fprintf(&buf, "\r\n")

	body, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="utf-8"`},
	})
	if err != nil {
		return nil, fmt.Errorf("creating body part: %w", err)
	}
	if _, err := body.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, fmt.Errorf("writing body: %w", err)
	}

	for _, path := range msg.Attachments {
		if err := attach(writer, path); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}

// attach appends one base64-encoded file part.
func attach(writer *multipart.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading attachment %s: %w", path, err)
	}

	name := filepath.Base(path)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/octet-stream"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", name)},
	})
	if err != nil {
		return fmt.Errorf("creating attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	// Wrap base64 at 76 columns per RFC 2045.
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := fmt.Fprintf(part, "%s\r\n", encoded[:n]); err != nil {
			return fmt.Errorf("writing attachment: %w", err)
		}
		encoded = encoded[n:]
	}
	return nil
}

// formatAddress renders "Name <addr>" or a bare address when the name
// is empty.
func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), addr)
}
