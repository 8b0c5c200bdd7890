package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pure-golang/bulkmail/auth"
	"github.com/pure-golang/bulkmail/batchlog/file"
	"github.com/pure-golang/bulkmail/events"
	"github.com/pure-golang/bulkmail/kv"
	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/logstore"
	"github.com/pure-golang/bulkmail/mail/noop"
	"github.com/pure-golang/bulkmail/mail/sendmail"
	"github.com/pure-golang/bulkmail/mail/smtp"
	smsnoop "github.com/pure-golang/bulkmail/sms/noop"
)

func init() {
	logger.InitDefault(logger.Config{Provider: logger.ProviderNoop, Level: logger.INFO})
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Mail:     MailConfig{Provider: MailNoop},
		SMS:      SMSConfig{Provider: SMSNoop},
		LogStore: logstore.Config{Provider: logstore.ProviderFile, File: file.Config{Path: filepath.Join(t.TempDir(), "logs.json")}},
		KV:       kv.Config{Provider: kv.ProviderMemory},
		Events:   events.Config{Provider: events.ProviderNone},
	}
}

func post(t *testing.T, h http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const batch = `{"subject":"Hi","body":"**bold**","format":"markdown","recipients":[{"email":"a@example.com","firstName":"A"},{"email":"b@example.com","firstName":"B"}]}`

func TestApp_SendAndListWithoutAuth(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	rec := post(t, a.Handler(), "/api/send-email", batch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sent struct {
		Success bool `json:"success"`
		Sent    int  `json:"sent"`
		Logged  bool `json:"logged"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
	assert.True(t, sent.Success)
	assert.Equal(t, 2, sent.Sent)
	assert.True(t, sent.Logged)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))

	req := httptest.NewRequest(http.MethodGet, "/api/email-logs?view=rows", nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var logs struct {
		Logs []map[string]any `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Len(t, logs.Logs, 2)

	rec = post(t, a.Handler(), "/api/send-sms", `{"to":"+14155550100","channel":"sms","message":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_BrokenTransportRejectsBatches(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mail = MailConfig{Provider: MailSMTP, SMTP: smtp.Config{Host: "smtp.example.com", Port: 587}}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err, "startup survives a broken transport")
	defer a.Close()

	rec := post(t, a.Handler(), "/api/send-email", batch)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "smtp credentials are not set")
}

func TestApp_AuthEnabled(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Auth = auth.Config{
		Enabled:       true,
		Secret:        strings.Repeat("k", 32),
		Emails:        []string{"ops@example.com"},
		PasswordHash:  string(hash),
		TokenTTL:      time.Hour,
		RedirectPath:  "/",
		RevokedPrefix: "revoked:",
	}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, http.StatusUnauthorized, post(t, a.Handler(), "/api/send-email", batch).Code)

	rec := post(t, a.Handler(), "/api/login", `{"email":"ops@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	assert.Equal(t, http.StatusOK, post(t, a.Handler(), "/api/send-email", batch, cookies...).Code)
}

func TestApp_InvalidAuthConfigFailsStartup(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth = auth.Config{Enabled: true, Secret: "short"}

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to init auth")
}

func TestApp_UnknownLogStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogStore.Provider = "mongo"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestApp_Run(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewMailTransport(t *testing.T) {
	tr := newMailTransport(MailConfig{Provider: MailNoop})
	assert.NoError(t, tr.Err)
	assert.IsType(t, &noop.Sender{}, tr.Sender)

	tr = newMailTransport(MailConfig{Provider: MailSendmail, Sendmail: sendmail.Config{Path: "/usr/sbin/sendmail"}})
	assert.ErrorContains(t, tr.Err, "sendmail from address is empty")
	assert.Nil(t, tr.Sender)

	tr = newMailTransport(MailConfig{Provider: "pigeon"})
	assert.ErrorContains(t, tr.Err, "unknown mail provider: pigeon")
}

func TestNewSMSSender(t *testing.T) {
	assert.Nil(t, newSMSSender(SMSConfig{}))
	assert.Nil(t, newSMSSender(SMSConfig{Provider: SMSPlivo}), "missing credentials disable sms")
	assert.Nil(t, newSMSSender(SMSConfig{Provider: "carrier-pigeon"}))
	assert.Equal(t, smsnoop.Sender{}, newSMSSender(SMSConfig{Provider: SMSNoop}))
}

func TestLoadConfig(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("MAIL_PROVIDER=noop\nLOG_STORE_PROVIDER=sqlite\nSMTP_PORT=2525\n"), 0o600))
	t.Cleanup(func() {
		// godotenv sets the process environment
		for _, k := range []string{"MAIL_PROVIDER", "LOG_STORE_PROVIDER", "SMTP_PORT"} {
			_ = os.Unsetenv(k)
		}
	})
	t.Setenv("WEBSERVER_PORT", "8081")
	t.Setenv("WHITELISTED_EMAILS", "a@example.com,b@example.com")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, MailNoop, cfg.Mail.Provider)
	assert.Equal(t, 2525, cfg.Mail.SMTP.Port)
	assert.Equal(t, logstore.ProviderSQLite, cfg.LogStore.Provider)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Auth.Emails)
	assert.Equal(t, 50, cfg.Dispatch.Concurrency)
	assert.Equal(t, "bulkmail:batch_logs", cfg.LogStore.RedisLog.Key)
	assert.Equal(t, events.ProviderNone, cfg.Events.Provider)
	assert.True(t, cfg.Auth.Enabled)
}
