// Package notify sends value-bet alerts to Telegram.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/config"
	"github.com/martofrog/tennis-predictions/internal/models"
)

// maxBetsPerMessage keeps alerts under the Telegram message size limit
const maxBetsPerMessage = 20

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends value-bet alerts to a single chat
type TelegramNotifier struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	minEdge        float64
	logger         *logrus.Entry
}

// NewTelegramNotifier creates a notifier from the telegram config section
func NewTelegramNotifier(cfg config.TelegramConfig, logger *logrus.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, cfg, time.Second, logger)
}

func newTelegramNotifier(bot sender, cfg config.TelegramConfig, retryDelayBase time.Duration, logger *logrus.Logger) (*TelegramNotifier, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &TelegramNotifier{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		minEdge:        cfg.MinEdge,
		logger:         logger.WithField("component", "telegram"),
	}, nil
}

// Name implements service.Sink
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Publish implements service.Sink. Bets below the minimum edge are not
// alerted; nothing is sent when no bet or arbitrage remains.
func (n *TelegramNotifier) Publish(ctx context.Context, bets []models.ValueBet, arbitrage []models.ArbitrageOpportunity) error {
	alerts := make([]models.ValueBet, 0, len(bets))
	for _, vb := range bets {
		if vb.Edge >= n.minEdge {
			alerts = append(alerts, vb)
		}
	}
	if len(alerts) == 0 && len(arbitrage) == 0 {
		return nil
	}

	if err := n.sendMarkdownV2(ctx, FormatAlert(alerts, arbitrage, time.Now().UTC())); err != nil {
		return err
	}
	n.logger.WithFields(logrus.Fields{
		"value_bets": len(alerts),
		"arbitrage":  len(arbitrage),
	}).Info("Sent value-bet alert")
	return nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (n *TelegramNotifier) sendMarkdownV2(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < n.maxRetries; i++ {
		_, err := n.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == n.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", n.maxRetries, lastErr)
}

// FormatAlert renders value bets and arbitrage as a Telegram MarkdownV2 message.
func FormatAlert(bets []models.ValueBet, arbitrage []models.ArbitrageOpportunity, at time.Time) string {
	var b strings.Builder
	b.WriteString("🎾 *Tennis value bets*\n")
	b.WriteString(fmt.Sprintf("📅 %s\n\n", escapeMarkdownV2(at.Format("2006-01-02 15:04 MST"))))

	for i, vb := range bets {
		if i == maxBetsPerMessage {
			b.WriteString(escapeMarkdownV2(fmt.Sprintf("... and %d more", len(bets)-maxBetsPerMessage)))
			b.WriteString("\n")
			break
		}
		b.WriteString(fmt.Sprintf("%d\\. *%s* vs %s\n", i+1, escapeMarkdownV2(vb.Selection), escapeMarkdownV2(vb.Opponent)))
		b.WriteString(fmt.Sprintf("   %s @ %s\n",
			escapeMarkdownV2(vb.BestBookmaker), escapeMarkdownV2(fmt.Sprintf("%.2f", vb.BestPrice))))
		b.WriteString(fmt.Sprintf("   edge %s, EV %s, stake %s \\(%s\\)\n",
			escapeMarkdownV2(fmt.Sprintf("%.1f%%", vb.Edge*100)),
			escapeMarkdownV2(fmt.Sprintf("%.1f%%", vb.ExpectedValue*100)),
			escapeMarkdownV2(fmt.Sprintf("%.1f%%", vb.KellyStake*100)),
			escapeMarkdownV2(string(vb.Recommendation))))
	}

	if len(arbitrage) > 0 {
		b.WriteString("\n💰 *Arbitrage*\n")
		for _, arb := range arbitrage {
			legs := make([]string, 0, len(arb.Legs))
			for _, leg := range arb.Legs {
				legs = append(legs, fmt.Sprintf("%s %.2f @ %s", leg.Selection, leg.Price, leg.Bookmaker))
			}
			b.WriteString(fmt.Sprintf("• %s: %s\n",
				escapeMarkdownV2(strings.Join(legs, " / ")),
				escapeMarkdownV2(fmt.Sprintf("margin %.2f%%", arb.ProfitMargin*100))))
		}
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
