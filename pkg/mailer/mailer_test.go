package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/groupbuy-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSendBuildsMessage(t *testing.T) {
	fd := &fakeDialer{}
	m := &SMTPMailer{dialer: fd, from: "deals@example.com"}

	require.NoError(t, m.Send(context.Background(), "member@example.com", "Updates", "<p>hi</p>"))
	require.Len(t, fd.sent, 1)
	assert.Equal(t, []string{"member@example.com"}, fd.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"deals@example.com"}, fd.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"Updates"}, fd.sent[0].GetHeader("Subject"))
}

func TestSendWrapsTransportFailure(t *testing.T) {
	m := &SMTPMailer{dialer: &fakeDialer{err: errors.New("connection refused")}, from: "a@b.c"}

	err := m.Send(context.Background(), "member@example.com", "s", "b")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotification))
}

func TestSendRejectsEmptyRecipient(t *testing.T) {
	fd := &fakeDialer{}
	m := &SMTPMailer{dialer: fd, from: "a@b.c"}

	err := m.Send(context.Background(), "  ", "s", "b")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, fd.sent)
}

func TestNewRequiresHost(t *testing.T) {
	_, err := New(config.SMTPConfig{Port: 587, From: "a@b.c"})
	require.Error(t, err)

	m, err := New(config.SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "bot@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "bot@example.com", m.from)
}

func TestForAppRequiresSMTPOutsideDev(t *testing.T) {
	for _, env := range []string{"prod", "staging", ""} {
		sender, err := ForApp(config.AppConfig{Env: env}, config.SMTPConfig{}, nil)
		require.Error(t, err, "env %q", env)
		assert.Nil(t, sender)
	}
}

func TestForAppFallsBackToLogInDev(t *testing.T) {
	var logged []string
	sender, err := ForApp(config.AppConfig{Env: "dev"}, config.SMTPConfig{}, func(ctx context.Context, to, subject string) {
		logged = append(logged, to)
	})
	require.NoError(t, err)
	require.IsType(t, &LogMailer{}, sender)

	require.NoError(t, sender.Send(context.Background(), "member@example.com", "Updates", "<p>hi</p>"))
	assert.Equal(t, []string{"member@example.com"}, logged)
}

func TestForAppUsesSMTPWhenConfigured(t *testing.T) {
	sender, err := ForApp(config.AppConfig{Env: "prod"}, config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "deals@example.com"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, sender)
}
