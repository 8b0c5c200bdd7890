package sendmail

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/bulkmail/mail"
)

type call struct {
	args  []string
	stdin string
}

type fakeExecutor struct {
	mx     sync.Mutex
	calls  []call
	err    error
	closed bool
}

func (f *fakeExecutor) Execute(_ context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	b, _ := io.ReadAll(stdin)
	f.mx.Lock()
	defer f.mx.Unlock()
	f.calls = append(f.calls, call{args: args, stdin: string(b)})
	return nil, f.err
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return nil
}

func testConfig() Config {
	return Config{Path: "/usr/sbin/sendmail", From: "news@acme.test", FromName: "Acme", Domain: "acme.test"}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	cfg := testConfig()
	cfg.From = ""
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestNewSender_MissingBinary(t *testing.T) {
	cfg := testConfig()
	cfg.Path = filepath.Join(t.TempDir(), "sendmail")
	_, err := NewSender(cfg, nil)
	assert.ErrorContains(t, err, "sendmail is not available")
}

func TestSender_Send(t *testing.T) {
	exec := &fakeExecutor{}
	s, err := NewSender(testConfig(), &SenderOptions{Executor: exec})
	require.NoError(t, err)

	err = s.Send(context.Background(), mail.Email{
		To:      []mail.Address{{Name: "Ann", Address: "ann@example.com"}},
		Bcc:     []mail.Address{{Address: "bob@example.com"}},
		Subject: "Launch",
		Body:    "Hi",
		HTML:    "<p>Hi</p>",
	})
	require.NoError(t, err)

	require.Len(t, exec.calls, 1)
	c := exec.calls[0]
	assert.Equal(t, []string{"-i", "-f", "news@acme.test", "--", "ann@example.com", "bob@example.com"}, c.args)
	assert.Contains(t, c.stdin, `From: "Acme" <news@acme.test>`)
	assert.Contains(t, c.stdin, "@acme.test>")
	assert.NotContains(t, c.stdin, "bob@example.com")

	require.NoError(t, s.Close())
	assert.True(t, exec.closed)
}

func TestSender_Send_Failure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 67")}
	s, err := NewSender(testConfig(), &SenderOptions{Executor: exec})
	require.NoError(t, err)

	err = s.Send(context.Background(), mail.Email{To: []mail.Address{{Address: "a@example.com"}}})
	assert.EqualError(t, err, "sendmail rejected message: exit status 67")
}

func TestSender_Send_NoRecipients(t *testing.T) {
	exec := &fakeExecutor{}
	s, err := NewSender(testConfig(), &SenderOptions{Executor: exec})
	require.NoError(t, err)

	assert.Error(t, s.Send(context.Background(), mail.Email{Subject: "s"}))
	assert.Empty(t, exec.calls)
}

// A shell script stands in for the MTA and spools what it receives.
func TestSender_Send_RealProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping process test in short mode")
	}
	dir := t.TempDir()
	spool := filepath.Join(dir, "spool")
	script := filepath.Join(dir, "sendmail")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > "+spool+".args\ncat > "+spool+"\n"), 0o755))

	cfg := testConfig()
	cfg.Path = script
	s, err := NewSender(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Send(context.Background(), mail.Email{
		To:      []mail.Address{{Address: "ann@example.com"}},
		Subject: "Hello",
		Body:    "plain body",
	}))

	args, err := os.ReadFile(spool + ".args")
	require.NoError(t, err)
	assert.Equal(t, "-i -f news@acme.test -- ann@example.com\n", string(args))

	msg, err := os.ReadFile(spool)
	require.NoError(t, err)
	assert.Contains(t, string(msg), "Subject: Hello\r\n")
	assert.Contains(t, string(msg), "plain body")
}
