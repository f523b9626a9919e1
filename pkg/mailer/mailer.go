package mailer

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Mailer sends transactional email. Implementations must be safe for
// concurrent use; every send is best-effort from the caller's view.
type Mailer interface {
	Send(to, subject, body string) error
	SendWithAttachment(to, subject, body, filename string, attachment []byte) error
}

// Client is an SMTP mailer. With DevMode set, messages are logged
// instead of sent so local environments need no mail server.
type Client struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	DevMode  bool
}

func NewClient(host, port, username, password, from string, devMode bool) *Client {
	return &Client{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		DevMode:  devMode,
	}
}

func (c *Client) Send(to, subject, body string) error {
	if c.DevMode {
		log.Printf("[mailer:dev] to=%s subject=%q\n%s", to, subject, body)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + c.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", c.Username, c.Password, c.Host)
	addr := c.Host + ":" + c.Port
	if err := smtp.SendMail(addr, auth, c.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}

// SendWithAttachment sends a message with one binary attachment as a
// multipart/mixed MIME body. Used for invoice PDFs.
func (c *Client) SendWithAttachment(to, subject, body, filename string, attachment []byte) error {
	if c.DevMode {
		log.Printf("[mailer:dev] to=%s subject=%q attachment=%s (%d bytes)", to, subject, filename, len(attachment))
		return nil
	}

	boundary := "printshop-mime-boundary"
	var b strings.Builder
	b.WriteString("From: " + c.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(body + "\r\n\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: application/pdf; name=\"" + filename + "\"\r\n")
	b.WriteString("Content-Disposition: attachment; filename=\"" + filename + "\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	encoded := base64.StdEncoding.EncodeToString(attachment)
	// RFC 2045 line length limit
	for len(encoded) > 76 {
		b.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded + "\r\n")
	b.WriteString("--" + boundary + "--\r\n")

	auth := smtp.PlainAuth("", c.Username, c.Password, c.Host)
	addr := c.Host + ":" + c.Port
	if err := smtp.SendMail(addr, auth, c.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}
