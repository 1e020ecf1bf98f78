package mail

import (
	"bytes"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"peek/internal/config"

	"github.com/rs/zerolog/log"
)

// DefaultPort is used when the configured server has no port.
const DefaultPort = "25"

// Subject returns the report subject for a job and date.
func Subject(job string, date time.Time) string {
	return fmt.Sprintf("%s %s", job, date.Format(time.DateOnly))
}

// Recipients splits a comma-separated address list.
func Recipients(to string) []string {
	var out []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Address returns host:port for the configured server.
func Address(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, DefaultPort)
}

// BuildMessage assembles an HTML message with CRLF line endings.
func BuildMessage(from string, to []string, subject, html string) []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", from)
	header("To", strings.Join(to, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="UTF-8"`)
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(html, "\r\n", "\n"), "\n", "\r\n"))
	return buf.Bytes()
}

// Send delivers the report over plain SMTP without authentication or TLS.
func Send(cfg config.EmailConfig, subject, html string) error {
	to := Recipients(cfg.To)
	if cfg.Server == "" || cfg.From == "" || len(to) == 0 {
		return fmt.Errorf("email is not configured: server, from and to are required")
	}

	addr := Address(cfg.Server)
	c, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer c.Close()

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(BuildMessage(cfg.From, to, subject, html)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}

	log.Info().Str("server", addr).Strs("to", to).Str("subject", subject).Msg("Report sent")
	return c.Quit()
}
