package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mailgun/mailgun-go/v5"

	"github.com/vachaar/vachaar-api/internal/config"
	"github.com/vachaar/vachaar-api/internal/models"
)

// EmailNotifier отправляет почтовые уведомления о бане через Mailgun.
// Отправка best-effort: ошибки логируются и не пробрасываются наверх.
type EmailNotifier struct {
	client      mailgun.Mailgun
	domain      string
	senderEmail string
	senderName  string
	enabled     bool
}

// NewEmailNotifier создает новый экземпляр EmailNotifier.
// Без настроенного Mailgun нотификатор работает в отключенном режиме.
func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	enabled := cfg.MailgunConfig.Domain != "" && cfg.MailgunConfig.APIKey != ""

	var client mailgun.Mailgun
	if enabled {
		client = mailgun.NewMailgun(cfg.MailgunConfig.APIKey)
	}

	return &EmailNotifier{
		client:      client,
		domain:      cfg.MailgunConfig.Domain,
		senderEmail: cfg.MailgunConfig.SenderEmail,
		senderName:  cfg.MailgunConfig.SenderName,
		enabled:     enabled,
	}
}

// NotifyBan уведомляет пользователя о блокировке его айтема или аккаунта
func (n *EmailNotifier) NotifyBan(user models.User, target models.ReportTarget, reason string) {
	if !n.enabled {
		log.Printf("Mailgun не настроен, уведомление о бане для %s пропущено", user.Email)
		return
	}

	if user.Email == "" {
		log.Printf("У пользователя %s не задан email, уведомление о бане пропущено", user.ID)
		return
	}

	var subject, body string
	switch target.Type {
	case models.ReportTargetItem:
		subject = "Ваше объявление заблокировано"
		body = fmt.Sprintf("Здравствуйте, %s!\n\nВаше объявление было заблокировано модерацией. Причина: %s.\n\nЕсли вы считаете это ошибкой, свяжитесь с поддержкой.", user.Username, reason)
	case models.ReportTargetUser:
		subject = "Ваш аккаунт заблокирован"
		body = fmt.Sprintf("Здравствуйте, %s!\n\nВаш аккаунт и все ваши объявления были заблокированы модерацией. Причина: %s.\n\nЕсли вы считаете это ошибкой, свяжитесь с поддержкой.", user.Username, reason)
	default:
		log.Printf("Неизвестный тип цели жалобы: %s", target.Type)
		return
	}

	message := mailgun.NewMessage(
		n.domain,
		fmt.Sprintf("%s <%s>", n.senderName, n.senderEmail),
		subject,
		body,
		user.Email,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := n.client.Send(ctx, message)
	if err != nil {
		log.Printf("Ошибка отправки уведомления о бане на %s: %v", user.Email, err)
		return
	}

	log.Printf("Уведомление о бане отправлено на %s (Message ID: %s)", user.Email, resp)
}
