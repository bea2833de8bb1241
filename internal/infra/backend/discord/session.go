package discord

import (
	"context"
	"fmt"
	"io"

	"github.com/bwmarrin/discordgo"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

// Session — одна авторизованная сессия к Discord. Интерфейс отделяет пул от
// discordgo, чтобы пул тестировался на фейках. Реализация обязана быть
// безопасной для конкурентного использования: пул раздаёт одну сессию
// нескольким операциям одновременно.
type Session interface {
	Open(ctx context.Context) error
	Close() error
	SendFile(ctx context.Context, channelID, name string, r io.Reader) (domain.StoredSegment, error)
	Message(ctx context.Context, channelID, messageID string) (domain.AttachmentMeta, error)
	DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error
	Channel(ctx context.Context, channelID string) error
}

// dgSession — обёртка над *discordgo.Session.
type dgSession struct {
	raw *discordgo.Session
}

func newDGSession(token string) (Session, error) {
	raw, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	raw.Identify.Intents = discordgo.IntentsAll
	return &dgSession{raw: raw}, nil
}

// Open подключает gateway и ждёт события Ready (аналог ожидания Connected).
func (s *dgSession) Open(ctx context.Context) error {
	ready := make(chan struct{})
	s.raw.AddHandlerOnce(func(_ *discordgo.Session, _ *discordgo.Ready) {
		close(ready)
	})
	if err := s.raw.Open(); err != nil {
		return err
	}
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		_ = s.raw.Close()
		return ctx.Err()
	}
}

func (s *dgSession) Close() error { return s.raw.Close() }

func (s *dgSession) SendFile(ctx context.Context, channelID, name string, r io.Reader) (domain.StoredSegment, error) {
	msg, err := s.raw.ChannelFileSend(channelID, name, r, discordgo.WithContext(ctx))
	if err != nil {
		return domain.StoredSegment{}, err
	}
	if msg == nil || len(msg.Attachments) == 0 {
		return domain.StoredSegment{}, fmt.Errorf("send to channel %s: no attachment in response", channelID)
	}
	var size int64
	for _, a := range msg.Attachments {
		size += int64(a.Size)
	}
	return domain.StoredSegment{MessageID: msg.ID, Size: size}, nil
}

func (s *dgSession) Message(ctx context.Context, channelID, messageID string) (domain.AttachmentMeta, error) {
	msg, err := s.raw.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return domain.AttachmentMeta{}, err
	}
	if msg == nil || len(msg.Attachments) == 0 {
		return domain.AttachmentMeta{}, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	att := msg.Attachments[0]
	return domain.AttachmentMeta{
		MessageID: msg.ID,
		FileName:  att.Filename,
		URL:       att.URL,
	}, nil
}

func (s *dgSession) DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error {
	if len(messageIDs) == 1 {
		// bulk-delete требует минимум два сообщения
		return s.raw.ChannelMessageDelete(channelID, messageIDs[0], discordgo.WithContext(ctx))
	}
	return s.raw.ChannelMessagesBulkDelete(channelID, messageIDs, discordgo.WithContext(ctx))
}

func (s *dgSession) Channel(ctx context.Context, channelID string) error {
	_, err := s.raw.Channel(channelID, discordgo.WithContext(ctx))
	return err
}
