package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// TelegramNotifier posts generated reports into a Telegram chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *log.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *log.Logger) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithEndpoint(token, "", http.DefaultClient, chatID, logger)
}

// NewTelegramNotifierWithEndpoint talks to a Bot API at endpoint, a format
// string taking the token and the method name. An empty endpoint means the
// public Bot API.
func NewTelegramNotifierWithEndpoint(token, endpoint string, client tgbotapi.HTTPClient, chatID int64, logger *log.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	logger.Infof("bot authorized on account %s", api.Self.UserName)
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}, nil
}

// SendReport uploads data as a document named fileName.
func (n *TelegramNotifier) SendReport(ctx context.Context, fileName string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(n.chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = "📋 " + strings.TrimSuffix(fileName, ".csv")
	if _, err := n.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	n.logger.WithFields(log.Fields{"chat_id": n.chatID, "file": fileName}).Info("report sent to telegram")
	return nil
}
