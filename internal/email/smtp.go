package email

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const dialTimeout = 30 * time.Second

type SMTPService struct {
	host     string
	port     int
	username string
	password string
	from     string
	baseURL  string
}

func NewSMTPService(host string, port int, username, password, from, baseURL string) *SMTPService {
	return &SMTPService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		baseURL:  baseURL,
	}
}

func (s *SMTPService) SendVerificationEmail(to, token string) error {
	link := fmt.Sprintf("%s/api/v1/verify/%s", s.baseURL, token)
	body := fmt.Sprintf(`Hello!

Please verify your email address by clicking on the following link:

    %s

The link is valid for 7 days. If you didn't create an account, you can
safely ignore this email.

- The Car Market Team`, link)

	return s.send(to, "Verify your email", body)
}

func (s *SMTPService) send(to, subject, body string) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	if s.username != "" && s.password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("smtp MAIL: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := wc.Write(s.message(to, subject, body)); err != nil {
		wc.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}

	if err := client.Quit(); err != nil {
		slog.Warn("smtp QUIT failed", "component", "email", "error", err)
	}
	return nil
}

// connect dials the server and upgrades to TLS. Plaintext delivery is only
// tolerated on ports used by local debug servers.
func (s *SMTPService) connect() (*smtp.Client, error) {
	addr := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	} else if s.port != 25 && s.port != 1025 {
		client.Close()
		return nil, fmt.Errorf("server on port %d does not offer STARTTLS", s.port)
	}

	return client, nil
}

func (s *SMTPService) message(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
