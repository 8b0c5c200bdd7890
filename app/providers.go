package app

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/dispatch"
	"github.com/pure-golang/bulkmail/mail/noop"
	"github.com/pure-golang/bulkmail/mail/sendmail"
	"github.com/pure-golang/bulkmail/mail/smtp"
	"github.com/pure-golang/bulkmail/sms"
	smsnoop "github.com/pure-golang/bulkmail/sms/noop"
	"github.com/pure-golang/bulkmail/sms/plivo"
)

// newMailTransport never fails: a broken transport is reported by every dispatch instead.
func newMailTransport(cfg MailConfig) dispatch.Transport {
	switch cfg.Provider {
	case MailSMTP, "":
		s, err := smtp.NewSender(cfg.SMTP, nil)
		if err != nil {
			return dispatch.Transport{Err: err}
		}
		return dispatch.Transport{Sender: s}
	case MailSendmail:
		s, err := sendmail.NewSender(cfg.Sendmail, nil)
		if err != nil {
			return dispatch.Transport{Err: err}
		}
		return dispatch.Transport{Sender: s}
	case MailNoop:
		return dispatch.Transport{Sender: noop.NewSender()}
	default:
		return dispatch.Transport{Err: errors.Errorf("unknown mail provider: %s", cfg.Provider)}
	}
}

// newSMSSender returns nil when SMS is disabled or misconfigured.
func newSMSSender(cfg SMSConfig) sms.Sender {
	switch cfg.Provider {
	case SMSPlivo:
		s, err := plivo.New(cfg.Plivo)
		if err != nil {
			slog.Default().Warn("sms disabled", slog.String("reason", err.Error()))
			return nil
		}
		return s
	case SMSNoop:
		return smsnoop.Sender{}
	case SMSNone, "":
		return nil
	default:
		slog.Default().Warn("sms disabled", slog.String("reason", "unknown provider "+string(cfg.Provider)))
		return nil
	}
}
