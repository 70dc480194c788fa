// Package sender содержит сервис отправки email-уведомлений: подтверждение
// оплаты подписки и активация промокода. Сообщения приходят из RabbitMQ.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/smtp"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// Service отправляет письма по событиям из очередей уведомлений.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// SendPaymentConfirmed отправляет подтверждение оплаты подписки.
func (s *Service) SendPaymentConfirmed(body []byte) error {
	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal payment event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	planName := "Gói tháng"
	if event.PlanKind == "yearly" {
		planName = "Gói năm"
	}

	to := []string{event.Email}
	subject := "Vivu Travel - Thanh toán thành công"
	bodyText := fmt.Sprintf(`Xin chào %s!

Thanh toán của bạn đã được xác nhận.

Gói dịch vụ: %s
Mã đơn hàng: %s
Số tiền: %d VNĐ

Cảm ơn bạn đã đồng hành cùng Vivu Travel. Chúc bạn có những chuyến đi tuyệt vời!`,
		event.Name, planName, event.OrderID, event.Amount)

	return s.sendEmail(to, subject, bodyText)
}

// SendPromoActivated отправляет уведомление об активации промокода.
func (s *Service) SendPromoActivated(body []byte) error {
	var event models.PromoEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal promo event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{event.Email}
	subject := "Vivu Travel - Mã khuyến mãi đã được kích hoạt"
	bodyText := fmt.Sprintf(`Xin chào %s!

Mã khuyến mãi %s của bạn đã được kích hoạt thành công.

Gói Premium của bạn đã được gia hạn. Mở ứng dụng để xem chi tiết.

Chúc bạn có những chuyến đi tuyệt vời cùng Vivu Travel!`,
		event.Name, event.Code)

	return s.sendEmail(to, subject, bodyText)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to, "subject", subject)
	return nil
}
