package app

import (
	"github.com/pure-golang/bulkmail/auth"
	"github.com/pure-golang/bulkmail/dispatch"
	"github.com/pure-golang/bulkmail/env"
	"github.com/pure-golang/bulkmail/events"
	"github.com/pure-golang/bulkmail/httpserver/std"
	"github.com/pure-golang/bulkmail/kv"
	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/logstore"
	"github.com/pure-golang/bulkmail/mail/sendmail"
	"github.com/pure-golang/bulkmail/mail/smtp"
	"github.com/pure-golang/bulkmail/metrics"
	"github.com/pure-golang/bulkmail/render"
	"github.com/pure-golang/bulkmail/sms/plivo"
	"github.com/pure-golang/bulkmail/tracing/jaeger"
)

type MailProvider string

const (
	MailSMTP     MailProvider = "smtp"
	MailSendmail MailProvider = "sendmail"
	MailNoop     MailProvider = "noop" // accepts everything, for local runs
)

type MailConfig struct {
	Provider MailProvider `envconfig:"MAIL_PROVIDER" default:"smtp"`
	SMTP     smtp.Config
	Sendmail sendmail.Config
}

type SMSProvider string

const (
	SMSPlivo SMSProvider = "plivo"
	SMSNoop  SMSProvider = "noop"
	SMSNone  SMSProvider = "none" // endpoint answers 503
)

type SMSConfig struct {
	Provider SMSProvider `envconfig:"SMS_PROVIDER" default:"none"`
	Plivo    plivo.Config
}

// Config is the whole process configuration, read from the environment.
type Config struct {
	Logger   logger.Config
	Server   std.Config
	Metrics  metrics.Config
	Tracing  jaeger.Config
	Mail     MailConfig
	SMS      SMSConfig
	Dispatch dispatch.Config
	Render   render.Config
	Auth     auth.Config
	KV       kv.Config
	LogStore logstore.Config
	Events   events.Config
}

// LoadConfig reads files (".env" by default) and then the environment.
func LoadConfig(files ...string) (Config, error) {
	var cfg Config
	if err := env.InitConfig(&cfg, files...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
