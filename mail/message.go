package mail

import (
	"fmt"
	"mime"
	"mime/quotedprintable"
	netmail "net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bytes builds the raw RFC 5322 message. Bcc never appears in headers;
// domain is the right-hand side of the generated Message-ID.
func (e Email) Bytes(date time.Time, domain string) []byte {
	var msg strings.Builder

	writeHeader(&msg, "From", formatAddress(e.From))
	if len(e.To) > 0 {
		writeHeader(&msg, "To", FormatAddressList(e.To))
	}
	writeHeader(&msg, "Subject", mime.QEncoding.Encode("utf-8", e.Subject))
	writeHeader(&msg, "Date", date.Format(time.RFC1123Z))
	writeHeader(&msg, "Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domain))
	writeHeader(&msg, "MIME-Version", "1.0")

	keys := make([]string, 0, len(e.Headers))
	for k := range e.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeHeader(&msg, k, e.Headers[k])
	}

	if e.HTML == "" {
		writeHeader(&msg, "Content-Type", "text/plain; charset=UTF-8")
		writeHeader(&msg, "Content-Transfer-Encoding", "quoted-printable")
		msg.WriteString("\r\n")
		writeQuotedPrintable(&msg, e.Body)
		return []byte(msg.String())
	}

	boundary := "bm_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	writeHeader(&msg, "Content-Type", "multipart/alternative; boundary="+boundary)
	msg.WriteString("\r\n")

	writePart(&msg, boundary, "text/plain; charset=UTF-8", e.Body)
	writePart(&msg, boundary, "text/html; charset=UTF-8", e.HTML)
	msg.WriteString("--" + boundary + "--\r\n")

	return []byte(msg.String())
}

// Addresses returns the bare envelope addresses, skipping empty ones.
func Addresses(addrs []Address) []string {
	result := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Address != "" {
			result = append(result, addr.Address)
		}
	}
	return result
}

func FormatAddressList(addrs []Address) string {
	formatted := make([]string, len(addrs))
	for i, addr := range addrs {
		formatted[i] = formatAddress(addr)
	}
	return strings.Join(formatted, ", ")
}

func formatAddress(addr Address) string {
	return (&netmail.Address{Name: addr.Name, Address: addr.Address}).String()
}

func writeHeader(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	// header injection guard
	b.WriteString(strings.NewReplacer("\r", "", "\n", "").Replace(value))
	b.WriteString("\r\n")
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	b.WriteString("--" + boundary + "\r\n")
	writeHeader(b, "Content-Type", contentType)
	writeHeader(b, "Content-Transfer-Encoding", "quoted-printable")
	b.WriteString("\r\n")
	writeQuotedPrintable(b, body)
}

func writeQuotedPrintable(b *strings.Builder, body string) {
	w := quotedprintable.NewWriter(b)
	_, _ = w.Write([]byte(body)) // strings.Builder never fails
	_ = w.Close()
	b.WriteString("\r\n")
}
