// Package discord — пул сессий к Discord: логин нескольких ботов, выбор
// случайной живой сессии на операцию и кеш метаданных вложений.
// Несколько идентичностей размазывают rate-limit платформы.
package discord

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

const (
	// скользящий TTL кеша message_id -> CDN-ссылка
	metaTTL = 5 * time.Minute

	// bulk-delete принимает не больше 100 сообщений за вызов
	deleteBatch = 100
)

type Config struct {
	Tokens    []string
	GuildID   string
	ChannelID string

	// Дедлайн на логин всех сессий; не успели — процесс не стартует.
	StartupTimeout time.Duration
}

type Pool struct {
	log *log.Logger
	cfg Config

	// защищает только выбор сессии, не её дальнейшее использование
	mu       sync.Mutex
	sessions []Session

	meta *gocache.Cache

	// фабрика сессий; в тестах подменяется на фейковую
	newSession func(token string) (Session, error)
}

func New(cfg Config, logger *log.Logger) *Pool {
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = time.Minute
	}
	return &Pool{
		log:        logger,
		cfg:        cfg,
		meta:       gocache.New(metaTTL, 10*time.Minute),
		newSession: newDGSession,
	}
}

// Init логинит все токены параллельно и ждёт готовности каждой сессии.
// Вызывается один раз на старте процесса; ошибка здесь фатальна для приложения.
func (p *Pool) Init(ctx context.Context) error {
	if len(p.cfg.Tokens) == 0 {
		return fmt.Errorf("no tokens configured: %w", domain.ErrBackendUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.StartupTimeout)
	defer cancel()

	sessions := make([]Session, len(p.cfg.Tokens))
	g, gctx := errgroup.WithContext(ctx)
	for i, token := range p.cfg.Tokens {
		g.Go(func() error {
			s, err := p.newSession(token)
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			if err := s.Open(gctx); err != nil {
				return fmt.Errorf("session %d login: %w", i, err)
			}
			sessions[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, s := range sessions {
			if s != nil {
				_ = s.Close()
			}
		}
		return err
	}

	p.mu.Lock()
	p.sessions = sessions
	p.mu.Unlock()
	p.log.Printf("logged in %d session(s), channel=%s", len(sessions), p.cfg.ChannelID)
	return nil
}

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		_ = s.Close()
	}
	p.sessions = nil
	p.log.Println("closed")
}

// session выбирает случайную сессию под мьютексом.
func (p *Pool) session() (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil, domain.ErrBackendUnavailable
	}
	return p.sessions[rand.IntN(len(p.sessions))], nil
}

func (p *Pool) Ping(ctx context.Context) error {
	s, err := p.session()
	if err != nil {
		return err
	}
	if err := s.Channel(ctx, p.cfg.ChannelID); err != nil {
		p.log.Printf("channel %s unreachable: %v", p.cfg.ChannelID, err)
		return fmt.Errorf("channel %s: %w", p.cfg.ChannelID, domain.ErrBackendUnavailable)
	}
	return nil
}

func (p *Pool) SendSegment(ctx context.Context, fileName string, r io.Reader) (domain.StoredSegment, error) {
	s, err := p.session()
	if err != nil {
		return domain.StoredSegment{}, err
	}
	seg, err := s.SendFile(ctx, p.cfg.ChannelID, fileName, r)
	if err != nil {
		p.log.Printf("send segment failed: %v", err)
		return domain.StoredSegment{}, err
	}
	return seg, nil
}

// Resolve возвращает метаданные вложения, кешируя их со скользящим TTL:
// повторные range-запросы к одному файлу разрешают одни и те же сегменты.
func (p *Pool) Resolve(ctx context.Context, messageID string) (domain.AttachmentMeta, error) {
	if v, ok := p.meta.Get(messageID); ok {
		meta := v.(domain.AttachmentMeta)
		p.meta.SetDefault(messageID, meta) // продлеваем окно
		return meta, nil
	}

	s, err := p.session()
	if err != nil {
		return domain.AttachmentMeta{}, err
	}
	meta, err := s.Message(ctx, p.cfg.ChannelID, messageID)
	if err != nil {
		return domain.AttachmentMeta{}, err
	}
	p.meta.SetDefault(messageID, meta)
	return meta, nil
}

// DeleteSegments — best-effort: ошибка одной пачки логируется, остальные
// пачки всё равно удаляются. Индексные строки чистятся независимо от бекенда.
func (p *Pool) DeleteSegments(ctx context.Context, messageIDs []string) error {
	s, err := p.session()
	if err != nil {
		return err
	}
	for start := 0; start < len(messageIDs); start += deleteBatch {
		end := min(start+deleteBatch, len(messageIDs))
		batch := messageIDs[start:end]
		if err := s.DeleteMessages(ctx, p.cfg.ChannelID, batch); err != nil {
			p.log.Printf("delete batch [%d:%d) failed: %v", start, end, err)
			continue
		}
		for _, id := range batch {
			p.meta.Delete(id)
		}
	}
	return nil
}
