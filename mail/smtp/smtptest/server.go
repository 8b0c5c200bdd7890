// Package smtptest provides a minimal in-process SMTP server for tests.
package smtptest

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Message is one accepted DATA transaction.
type Message struct {
	From string
	To   []string
	Data string
}

// Server speaks just enough SMTP for net/smtp: EHLO, AUTH, MAIL, RCPT, DATA, RSET, NOOP, QUIT.
// It never offers STARTTLS.
type Server struct {
	listener net.Listener

	mx       sync.Mutex
	messages []Message
	reject   map[string]string
	authFail bool
}

// NewServer starts a server on a random loopback port.
func NewServer() (*Server, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{listener: l, reject: map[string]string{}}
	go s.serve()
	return s, nil
}

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// RejectRecipient makes RCPT TO for addr fail with a 550 reply carrying reason.
func (s *Server) RejectRecipient(addr, reason string) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.reject[strings.ToLower(addr)] = reason
}

// FailAuth makes every AUTH attempt fail.
func (s *Server) FailAuth() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.authFail = true
}

// Messages returns a copy of the accepted messages.
func (s *Server) Messages() []Message {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]Message(nil), s.messages...)
}

// Close stops accepting connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	reply := func(line string) {
		w.WriteString(line + "\r\n")
		w.Flush()
	}

	var cur Message
	reply("220 localhost ESMTP smtptest")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		cmd := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250-localhost")
			reply("250-AUTH PLAIN")
			reply("250 8BITMIME")
		case strings.HasPrefix(cmd, "AUTH"):
			s.mx.Lock()
			fail := s.authFail
			s.mx.Unlock()
			if fail {
				reply("535 5.7.8 authentication failed")
				continue
			}
			reply("235 2.7.0 authentication succeeded")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			cur = Message{From: trimPath(line[len("MAIL FROM:"):])}
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			rcpt := trimPath(line[len("RCPT TO:"):])
			s.mx.Lock()
			reason, rejected := s.reject[strings.ToLower(rcpt)]
			s.mx.Unlock()
			if rejected {
				reply("550 5.1.1 " + reason)
				continue
			}
			cur.To = append(cur.To, rcpt)
			reply("250 OK")
		case cmd == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var data strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				trimmed := strings.TrimRight(l, "\r\n")
				if trimmed == "." {
					break
				}
				if strings.HasPrefix(trimmed, "..") {
					trimmed = trimmed[1:]
				}
				data.WriteString(trimmed)
				data.WriteString("\r\n")
			}
			cur.Data = data.String()
			s.mx.Lock()
			s.messages = append(s.messages, cur)
			s.mx.Unlock()
			cur = Message{}
			reply("250 OK queued")
		case cmd == "RSET":
			cur = Message{}
			reply("250 OK")
		case cmd == "NOOP":
			reply("250 OK")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("500 unrecognized command")
		}
	}
}

func trimPath(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, "<>")
}
