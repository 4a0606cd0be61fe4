package smtp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/campus-auth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_Headers(t *testing.T) {
	msg := string(buildMessage("noreply@x.edu", "a@x.edu", "Code", "line1\nline2"))
	assert.True(t, strings.HasPrefix(msg, "From: noreply@x.edu\r\nTo: a@x.edu\r\nSubject: Code\r\n"))
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline1\r\nline2"))
}

// fakeServer speaks just enough SMTP to accept one message and records the DATA section.
func fakeServer(t *testing.T) (addr string, got <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		write("220 fake ESMTP")
		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- data.String()
					write("250 queued")
					continue
				}
				data.WriteString(line)
				continue
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				write("250 fake")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				write("250 ok")
			case cmd == "DATA":
				inData = true
				write("354 go ahead")
			case cmd == "QUIT":
				write("221 bye")
				return
			default:
				write("250 ok")
			}
		}
	}()
	return ln.Addr().String(), out
}

func TestMailer_SendDeliversMessage(t *testing.T) {
	addr, got := fakeServer(t)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	m := NewMailer(&config.Config{SMTPHost: host, SMTPPort: port, SMTPFrom: "noreply@x.edu"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Send(ctx, "a@x.edu", "UniMart Verification Code", "Your verification code is: 123456"))

	select {
	case data := <-got:
		assert.Contains(t, data, "Subject: UniMart Verification Code")
		assert.Contains(t, data, "123456")
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestMailer_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	host, port, _ := net.SplitHostPort(addr)

	m := NewMailer(&config.Config{SMTPHost: host, SMTPPort: port, SMTPFrom: "noreply@x.edu"})
	err = m.Send(context.Background(), "a@x.edu", "s", "b")
	assert.ErrorContains(t, err, "smtp dial")
}
