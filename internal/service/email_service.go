package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 是否已启用并完成配置
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.Enabled && s.cfg.Host != "" && s.cfg.From != ""
}

// OrderEmailInput 订单通知邮件输入
type OrderEmailInput struct {
	OrderNumber  string
	CustomerName string
	Phone        string
	Address      string
	DeliveryDate string
	Status       string
	Total        models.Money
	Lines        []models.OrderLine
}

// SendOrderCreatedEmail 向店铺通知邮箱发送新订单提醒
func (s *EmailService) SendOrderCreatedEmail(toEmail string, input OrderEmailInput) error {
	subject, body := buildOrderCreatedContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendOrderStatusEmail 向客户发送订单状态通知
func (s *EmailService) SendOrderStatusEmail(toEmail string, input OrderEmailInput) error {
	subject, body := buildOrderStatusContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

// orderStatusLabels 订单状态的展示文案
var orderStatusLabels = map[string]string{
	constants.OrderStatusNew:        "Nowe",
	constants.OrderStatusConfirmed:  "Potwierdzone",
	constants.OrderStatusInProgress: "W realizacji",
	constants.OrderStatusCompleted:  "Zrealizowane",
	constants.OrderStatusCancelled:  "Anulowane",
}

func orderStatusLabel(status string) string {
	key := strings.ToLower(strings.TrimSpace(status))
	if label, ok := orderStatusLabels[key]; ok {
		return label
	}
	return status
}

func buildOrderCreatedContent(input OrderEmailInput) (string, string) {
	subject := fmt.Sprintf("Nowe zamówienie %s", input.OrderNumber)
	var b strings.Builder
	fmt.Fprintf(&b, "Numer zamówienia: %s\n", input.OrderNumber)
	fmt.Fprintf(&b, "Klient: %s\n", input.CustomerName)
	fmt.Fprintf(&b, "Telefon: %s\n", input.Phone)
	fmt.Fprintf(&b, "Adres: %s\n", input.Address)
	if strings.TrimSpace(input.DeliveryDate) != "" {
		fmt.Fprintf(&b, "Termin dostawy: %s\n", input.DeliveryDate)
	}
	b.WriteString("\nPozycje:\n")
	for _, line := range input.Lines {
		fmt.Fprintf(&b, "- %s x%d: %s zł\n", line.Name, line.Quantity, models.NewMoneyFromDecimal(line.Subtotal()).String())
	}
	fmt.Fprintf(&b, "\nRazem: %s zł\n", input.Total.String())
	return subject, b.String()
}

func buildOrderStatusContent(input OrderEmailInput) (string, string) {
	label := orderStatusLabel(input.Status)
	subject := fmt.Sprintf("Zamówienie %s: %s", input.OrderNumber, label)
	var body string
	switch strings.ToLower(strings.TrimSpace(input.Status)) {
	case constants.OrderStatusConfirmed:
		body = fmt.Sprintf("Dziękujemy! Zamówienie %s zostało potwierdzone.\nKwota: %s zł", input.OrderNumber, input.Total.String())
	case constants.OrderStatusCancelled:
		body = fmt.Sprintf("Zamówienie %s zostało anulowane.\nW razie pytań prosimy o kontakt.", input.OrderNumber)
	case constants.OrderStatusCompleted:
		body = fmt.Sprintf("Zamówienie %s zostało zrealizowane. Dziękujemy za zakupy!", input.OrderNumber)
	default:
		body = fmt.Sprintf("Status zamówienia %s: %s\nKwota: %s zł", input.OrderNumber, label, input.Total.String())
	}
	if strings.TrimSpace(input.CustomerName) != "" {
		body = fmt.Sprintf("Dzień dobry %s,\n\n%s", input.CustomerName, body)
	}
	return subject, body
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func authenticate(client *smtp.Client, auth smtp.Auth) error {
	if auth == nil {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		return nil
	}
	return client.Auth(auth)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
