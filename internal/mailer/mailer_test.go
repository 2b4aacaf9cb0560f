package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSender_LogsMessage(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSender("noreply@yamdb.local", slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, s.Send(context.Background(), "alice@example.com", "Your verification token", "code-123"))
	assert.Contains(t, buf.String(), "alice@example.com")
	assert.Contains(t, buf.String(), "code-123")
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender("mail.local", 2525, "user", "pass", "noreply@yamdb.local")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "alice@example.com", "Your verification token", "code-123"))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "noreply@yamdb.local", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Your verification token\r\n")
	assert.Contains(t, string(gotMsg), "code-123")
}

func TestSMTPSender_Failures(t *testing.T) {
	s := NewSMTPSender("mail.local", 25, "", "", "noreply@yamdb.local")
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := s.Send(context.Background(), "alice@example.com", "subject", "body")
	assert.ErrorContains(t, err, "connection refused")

	err = s.Send(context.Background(), "alice@example.com\r\nBcc: x@y", "subject", "body")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "alice@example.com", "subject", "body"), context.Canceled)
}
