package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	loginUsage   = `To log in, use: "/login [username] [password]"`
	mileageUsage = "Required parameters: [vehicle id] [period: day, week, month, year] " +
		"[start date YYYY-MM-DD] [end date YYYY-MM-DD]"
)

// Updater is the long-poll side of the chat collaborator.
type Updater interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Bot is the notifier's interactive command surface. It runs its own
// long-poll loop, concurrent with (and never blocking) the alert
// subscription loop.
type Bot struct {
	updates     Updater
	chat        ChatSender
	notifier    *Notifier
	pollTimeout time.Duration
	log         zerolog.Logger
}

func NewBot(tg *TelegramClient, notifier *Notifier, pollTimeout time.Duration, log zerolog.Logger) *Bot {
	return &Bot{
		updates:     tg,
		chat:        tg,
		notifier:    notifier,
		pollTimeout: pollTimeout,
		log:         log,
	}
}

// Run polls for commands until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := b.updates.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.log.Error().Err(err).Msg("poll for updates failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil {
				continue
			}
			b.handleCommand(ctx, u.Message.From.ID, u.Message.Chat.ID, u.Message.Text)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, userID, chatID int64, text string) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	var reply string
	switch words[0] {
	case "/start":
		if b.notifier.LoggedIn(ctx, userID) {
			reply = "You are already logged in."
		} else {
			reply = loginUsage
		}

	case "/login":
		reply = b.handleLogin(ctx, userID, words)

	case "/logout":
		if err := b.notifier.Logout(ctx, userID); err != nil {
			b.log.Error().Err(err).Int64("subscriber_id", userID).Msg("logout failed")
			reply = "Logout failed, try again."
		} else {
			reply = "You are logged out. " + loginUsage
		}

	case "/vehicle_mill":
		reply = b.handleMileage(ctx, userID, words)

	default:
		return
	}

	if err := b.chat.Send(ctx, chatID, reply); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("reply failed")
	}
}

func (b *Bot) handleLogin(ctx context.Context, userID int64, words []string) string {
	if b.notifier.LoggedIn(ctx, userID) {
		return "You are already logged in."
	}
	if len(words) != 3 {
		return "Wrong format. " + loginUsage
	}

	if err := b.notifier.Login(ctx, userID, words[1], words[2]); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return "Invalid credentials."
		}
		b.log.Error().Err(err).Int64("subscriber_id", userID).Msg("login failed")
		return "Login failed, try again."
	}
	return "You are logged in."
}

func (b *Bot) handleMileage(ctx context.Context, userID int64, words []string) string {
	if len(words) != 5 {
		return mileageUsage
	}

	report, err := b.notifier.VehicleMileageReport(ctx, userID, words[1], words[2], words[3], words[4])
	if err != nil {
		switch {
		case errors.Is(err, ErrNotLoggedIn):
			return "You are not logged in. " + loginUsage
		case errors.Is(err, ErrSessionExpired):
			return "Your session expired. " + loginUsage
		default:
			b.log.Error().Err(err).Int64("subscriber_id", userID).Msg("mileage report failed")
			return "Could not fetch the report: " + err.Error()
		}
	}
	return report
}
