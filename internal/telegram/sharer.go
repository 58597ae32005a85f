package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/mrwolf/yojeum-server/internal/sharecard"
)

// captionLimit is Telegram's maximum photo caption length in runes
const captionLimit = 1024

// Sender is the part of *tgbotapi.BotAPI the sharer needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sharer shares cards into a single Telegram chat
type Sharer struct {
	bot      Sender
	chatID   int64
	textOnly bool
	log      zerolog.Logger
}

// New builds a Sharer. textOnly makes the probe report text sharing only.
func New(bot Sender, chatID int64, textOnly bool, log zerolog.Logger) *Sharer {
	return &Sharer{bot: bot, chatID: chatID, textOnly: textOnly, log: log}
}

// Connect authenticates with the bot API
func Connect(token string, chatID int64, textOnly bool, log zerolog.Logger) (*Sharer, error) {
	if token == "" {
		return nil, errors.New("telegram: token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connecting: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Int64("chat", chatID).Msg("telegram sharing enabled")
	return New(bot, chatID, textOnly, log), nil
}

// CanShareFiles implements sharecard.Sharer
func (s *Sharer) CanShareFiles(mime string) bool {
	return !s.textOnly && strings.HasPrefix(mime, "image/")
}

// CanShareText implements sharecard.Sharer
func (s *Sharer) CanShareText() bool { return true }

// Share implements sharecard.Sharer
func (s *Sharer) Share(ctx context.Context, p sharecard.SharePayload) error {
	if ctx.Err() != nil {
		return fmt.Errorf("telegram: %w", sharecard.ErrShareCanceled)
	}

	var msg tgbotapi.Chattable
	if p.File != nil {
		photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileBytes{Name: p.FileName, Bytes: p.File})
		photo.Caption = caption(p)
		msg = photo
	} else {
		msg = tgbotapi.NewMessage(s.chatID, caption(p))
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		s.log.Debug().Int64("chat", s.chatID).Msg("share abandoned")
		return fmt.Errorf("telegram: %w", sharecard.ErrShareCanceled)
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}

	s.log.Info().Int64("chat", s.chatID).Bool("photo", p.File != nil).Msg("shared to telegram")
	return nil
}

func caption(p sharecard.SharePayload) string {
	text := p.Text
	if p.Title != "" {
		text = p.Title + "\n\n" + p.Text
	}
	r := []rune(text)
	if len(r) > captionLimit {
		return string(r[:captionLimit])
	}
	return text
}
