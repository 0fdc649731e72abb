// Package mail delivers the finished report over SMTP.
package mail

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"github.com/chesscom/workreport/internal/domain"
)

// Subject is fixed for every report mail.
const Subject = "Report"

// Sender sends one HTML mail per run over an authenticated connection.
type Sender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send delivers the body to all recipients in a single message. HTML
// entities in the body are decoded before sending.
func (s Sender) Send(to []string, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", Subject)
	m.SetBody("text/html", html.UnescapeString(body))

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("%w: smtp send: %v", domain.ErrDelivery, err)
	}
	return nil
}
