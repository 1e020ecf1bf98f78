package mail

import (
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"peek/internal/config"
)

func TestSubject(t *testing.T) {
	got := Subject("weekly", time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC))
	if got != "weekly 2024-03-01" {
		t.Errorf("Subject() = %q", got)
	}
}

func TestAddress(t *testing.T) {
	tests := []struct {
		server, want string
	}{
		{"localhost", "localhost:25"},
		{"mail.example.org:2525", "mail.example.org:2525"},
		{"::1", "[::1]:25"},
	}
	for _, tt := range tests {
		if got := Address(tt.server); got != tt.want {
			t.Errorf("Address(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestRecipients(t *testing.T) {
	got := Recipients(" a@example.org, ,b@example.org")
	if len(got) != 2 || got[0] != "a@example.org" || got[1] != "b@example.org" {
		t.Errorf("Recipients() = %v", got)
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(BuildMessage("peek@example.org", []string{"team@example.org"}, "weekly 2024-03-01", "<p>a</p>\n<p>b</p>"))

	for _, want := range []string{
		"From: peek@example.org\r\n",
		"To: team@example.org\r\n",
		"Subject: weekly 2024-03-01\r\n",
		"Content-Type: text/html; charset=\"UTF-8\"\r\n",
		"\r\n\r\n<p>a</p>\r\n<p>b</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message is missing %q:\n%s", want, msg)
		}
	}
}

// fakeSMTP accepts one session and hands the recipients and body to the test.
type received struct {
	rcpts []string
	body  string
}

func fakeSMTP(t *testing.T) (string, <-chan received) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	out := make(chan received, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		var got received
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch verb {
			case "EHLO", "HELO", "MAIL":
				_ = tp.PrintfLine("250 ok")
			case "RCPT":
				got.rcpts = append(got.rcpts, line)
				_ = tp.PrintfLine("250 ok")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				got.body = string(body)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				out <- got
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()
	return ln.Addr().String(), out
}

func TestSend(t *testing.T) {
	addr, out := fakeSMTP(t)
	cfg := config.EmailConfig{From: "peek@example.org", To: "a@example.org,b@example.org", Server: addr}

	if err := Send(cfg, "weekly 2024-03-01", "<p>report</p>"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case got := <-out:
		if len(got.rcpts) != 2 {
			t.Errorf("recipients = %v, want 2", got.rcpts)
		}
		if !strings.Contains(got.body, "<p>report</p>") || !strings.Contains(got.body, "Subject: weekly 2024-03-01") {
			t.Errorf("body = %q", got.body)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw QUIT")
	}
}

func TestSend_NotConfigured(t *testing.T) {
	if err := Send(config.EmailConfig{Server: "localhost"}, "s", "b"); err == nil {
		t.Error("expected an error for a missing sender and recipient")
	}
}
