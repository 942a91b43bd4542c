package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/config"
)

// Mailer 邮件发送接口
// Service 层依赖此接口，测试中以记录型假实现替换
type Mailer interface {
	SendBatch(ctx context.Context, recipients []string, subject, body string) error
}

// SMTPMailer 基于 SMTP 的 Mailer 实现
type SMTPMailer struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

// NewSMTPMailer 创建 SMTPMailer
func NewSMTPMailer(cfg *config.MailConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendBatch 向一批收件人发送同一封邮件
// 收件人列表为空时直接返回 nil
func (m *SMTPMailer) SendBatch(_ context.Context, recipients []string, subject, body string) error {
	if len(recipients) == 0 {
		return nil
	}
	if m.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP 未配置")
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + strings.Join(recipients, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, recipients, []byte(msg)); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	m.logger.Info("提醒邮件已发送",
		zap.Int("recipients", len(recipients)),
		zap.String("subject", subject),
	)
	return nil
}
