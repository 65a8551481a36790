package mail

import (
	"fmt"

	"hangman/common/config"
	"hangman/common/log"

	"gopkg.in/gomail.v2"
)

// Mailer delivers feedback form submissions to the operator's inbox.
type Mailer struct {
	conf config.MailConf
}

func NewMailer(conf config.MailConf) *Mailer {
	return &Mailer{conf: conf}
}

// SendFeedback formats one submission and sends it over SMTP.
func (m *Mailer) SendFeedback(name, email, feedback string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.conf.Sender)
	msg.SetHeader("To", m.conf.To)
	msg.SetHeader("Subject", fmt.Sprintf("Feedback from %s", name))
	msg.SetBody("text/plain", fmt.Sprintf("From: %s <%s>\n\n%s", name, email, feedback))

	dialer := gomail.NewDialer(m.conf.Host, m.conf.Port, m.conf.Username, m.conf.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Error("feedback mail send failed: %v", err)
		return err
	}
	log.Info("feedback mail sent for %s", name)
	return nil
}
