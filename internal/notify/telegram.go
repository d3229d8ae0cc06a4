// Package notify sends a short findings digest via the Telegram Bot API
// once a run completes. Delivery is best-effort decoration on top of the
// written report: it retries transient failures but a run is never failed
// for an undeliverable message; the caller decides how to log the error.
package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/urbanstats/nycshootings/internal/models"
)

// Findings is the material for the notification message.
type Findings struct {
	RunID          string
	GeneratedAt    time.Time
	TotalIncidents int
	PseudoR2       float64
	// LatestChanges holds each borough's most recent year-over-year rate
	// change, in borough order.
	LatestChanges []models.RateChange
}

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Send delivers the findings digest, retrying transient failures.
func (c *Client) Send(f Findings) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(f))

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage renders the findings as plain text.
func formatMessage(f Findings) string {
	var b strings.Builder

	fmt.Fprintf(&b, "NYC shooting analysis finished (run %s)\n", f.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", f.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Incidents analyzed: %d\n", f.TotalIncidents)
	fmt.Fprintf(&b, "Model pseudo-R²: %.3f\n", f.PseudoR2)

	if len(f.LatestChanges) > 0 {
		b.WriteString("\nLatest year-over-year rate change per borough:\n")
		for _, rc := range f.LatestChanges {
			if models.IsMissing(rc.Change) {
				fmt.Fprintf(&b, "  %s %d: n/a\n", rc.Borough, rc.Year)
				continue
			}
			arrow := "up"
			if rc.Change < 0 {
				arrow = "down"
			}
			fmt.Fprintf(&b, "  %s %d: %s %.4f per 1k\n", rc.Borough, rc.Year, arrow, rc.Change)
		}
	}

	return b.String()
}

// LatestChanges extracts each borough's most recent change row from the
// full change table, in borough order.
func LatestChanges(changes []models.RateChange) []models.RateChange {
	latest := make(map[models.Borough]models.RateChange)
	for _, rc := range changes {
		if cur, ok := latest[rc.Borough]; !ok || rc.Year > cur.Year {
			latest[rc.Borough] = rc
		}
	}

	out := make([]models.RateChange, 0, len(latest))
	for _, b := range models.Boroughs() {
		if rc, ok := latest[b]; ok {
			out = append(out, rc)
		}
	}
	return out
}
