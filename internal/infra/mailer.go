// README: SMTP dialer initialization for outbound notification mail.
package infra

import (
	"frete/internal/config"

	"gopkg.in/gomail.v2"
)

func NewMailer(cfg config.SMTPConfig) *gomail.Dialer {
	return gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
}
