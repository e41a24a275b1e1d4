// Package sender отправляет письма по заданиям из очередей: сброс пароля
// и уведомление о блокировке учётной записи.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zarverapp/zarver/internal/lib/sl"
	"github.com/zarverapp/zarver/internal/lib/smtp"
	"github.com/zarverapp/zarver/internal/services/admin"
	"github.com/zarverapp/zarver/internal/services/auth"
)

// SenderService потребляет почтовые задания и отправляет письма через SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendPasswordReset отправляет письмо со ссылкой сброса пароля.
func (s *SenderService) SendPasswordReset(body []byte) error {
	var job auth.PasswordResetJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal password reset job", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{job.Email}
	subject := "Şifre sıfırlama talebi"
	bodyText := fmt.Sprintf("Merhaba %s!\n\nŞifreni sıfırlamak için bu kodu kullan: %s\n\nKod bir saat boyunca geçerlidir. Bu talebi sen yapmadıysan bu e-postayı yok sayabilirsin.",
		job.Username, job.Token)

	return s.sendEmail(to, subject, bodyText)
}

// SendSuspensionNotice отправляет письмо о блокировке учётной записи.
func (s *SenderService) SendSuspensionNotice(body []byte) error {
	var job admin.SuspensionJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal suspension job", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{job.Email}
	subject := "Hesabın askıya alındı"
	until := "süresiz olarak"
	if job.Until != nil {
		until = job.Until.UTC().Format(time.RFC3339) + " tarihine kadar"
	}
	bodyText := fmt.Sprintf("Merhaba %s!\n\nHesabın %s askıya alındı.\n\nSebep: %s",
		job.Username, until, job.Reason)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.From(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.From()); err != nil {
		s.log.Error("Failed to set MAIL FROM", slog.String("from", s.transport.From()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
