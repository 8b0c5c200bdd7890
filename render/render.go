// Package render turns an operator's message into the per-recipient email: greeting, body,
// call to action and signature, plus a plain-text alternative.
package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Format is the markup of the operator's body.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Config describes the branding wrapped around every message.
type Config struct {
	BrandName    string `envconfig:"BRAND_NAME" default:"Bulkmail"`
	BrandURL     string `envconfig:"BRAND_URL"`
	SupportEmail string `envconfig:"BRAND_SUPPORT_EMAIL"`
	LogoURL      string `envconfig:"BRAND_LOGO_URL"`
	CTALabel     string `envconfig:"BRAND_CTA_LABEL"` // defaults to "Visit {BrandName}"
}

// Message is what the operator composed once for the whole batch.
type Message struct {
	Subject string
	Body    string
	Format  Format
}

// Body is a Message whose body is already converted to HTML.
type Body struct {
	Subject string
	HTML    template.HTML
}

// Rendered is the final message for one recipient.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer is safe for concurrent use.
type Renderer struct {
	cfg  Config
	tmpl *template.Template
	md   goldmark.Markdown
}

// New parses the wrapper template.
func New(cfg Config) (*Renderer, error) {
	if cfg.CTALabel == "" && cfg.BrandName != "" {
		cfg.CTALabel = "Visit " + cfg.BrandName
	}

	tmpl, err := template.New("email").Parse(emailTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse email template")
	}

	return &Renderer{
		cfg:  cfg,
		tmpl: tmpl,
		md:   goldmark.New(goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps())),
	}, nil
}

// Prepare converts the body to HTML once per batch.
// HTML bodies are trusted operator input and pass through as is.
// Raw HTML inside markdown is dropped by goldmark.
func (r *Renderer) Prepare(msg Message) (Body, error) {
	switch msg.Format {
	case "", FormatHTML:
		return Body{Subject: msg.Subject, HTML: template.HTML(msg.Body)}, nil // #nosec G203 -- operator content
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(msg.Body), &buf); err != nil {
			return Body{}, errors.Wrap(err, "failed to convert markdown")
		}
		return Body{Subject: msg.Subject, HTML: template.HTML(buf.String())}, nil // #nosec G203
	default:
		return Body{}, errors.Errorf("unknown body format %q", msg.Format)
	}
}

// Render personalises body for one recipient.
func (r *Renderer) Render(body Body, firstName, lastName string) (Rendered, error) {
	data := struct {
		Config
		Name string
		Body template.HTML
	}{
		Config: r.cfg,
		Name:   Greeting(firstName, lastName),
		Body:   body.HTML,
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return Rendered{}, errors.Wrap(err, "failed to render email")
	}

	return Rendered{
		Subject: body.Subject,
		HTML:    buf.String(),
		Text:    PlainText(buf.String()),
	}, nil
}

// Greeting returns the name used after "Dear", or "" when both parts are blank.
func Greeting(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}

const emailTemplate = `<div style="font-family: sans-serif; line-height: 1.6; color: #111;">
{{- if .Name}}
<p>Dear {{.Name}},</p>
{{- else}}
<p>Hello,</p>
{{- end}}
{{- if .LogoURL}}
<img src="{{.LogoURL}}" alt="{{.BrandName}} logo" width="200" />
{{- end}}
<div>{{.Body}}</div>
{{- if .BrandURL}}
<p style="margin-top: 20px;"><a href="{{.BrandURL}}" style="display: inline-block; padding: 12px 24px; background-color: #1D4ED8; color: white; text-decoration: none; border-radius: 6px; font-weight: bold;">{{.CTALabel}}</a></p>
{{- end}}
<p style="margin-top: 20px;">Regards,<br/>{{.BrandName}}{{if .SupportEmail}} &lt;{{.SupportEmail}}&gt;{{end}}</p>
</div>
`
