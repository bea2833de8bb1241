// Package store — движок чтения и записи: нарезка входного потока на сегменты,
// разрешение байтовых диапазонов в набор сегментов и сборка выходного потока.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

// TTL кеша раскладки; раскладка меняется только на append/delete,
// оба пути инвалидируют ключ.
const layoutTTLSeconds = 300

type Store struct {
	log     *log.Logger
	repo    domain.SegmentsRepo
	backend domain.Backend
	cache   domain.Cache
	cdn     *http.Client

	maxSegment int64
}

func New(logger *log.Logger, repo domain.SegmentsRepo, backend domain.Backend, cache domain.Cache, maxSegment int64) *Store {
	return &Store{
		log:        logger,
		repo:       repo,
		backend:    backend,
		cache:      cache,
		cdn:        &http.Client{},
		maxSegment: maxSegment,
	}
}

// Layout возвращает отсортированную раскладку сегментов файла, через кеш.
func (s *Store) Layout(ctx context.Context, fileID string) ([]domain.SegmentRecord, error) {
	key := domain.CacheKeySegments(fileID)
	if b, err := s.cache.Get(ctx, key); err == nil && len(b) > 0 {
		var segs []domain.SegmentRecord
		if err := json.Unmarshal(b, &segs); err == nil && len(segs) > 0 {
			return segs, nil
		}
	}

	segs, err := s.repo.ListSegments(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(segs); err == nil {
		_ = s.cache.Set(ctx, key, b, layoutTTLSeconds)
	}
	return segs, nil
}

// Exists сообщает, существует ли файл (есть ли у него сегменты).
func (s *Store) Exists(ctx context.Context, fileID string) (bool, error) {
	_, err := s.Layout(ctx, fileID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResolveName возвращает исходное имя файла из вложения первого сегмента.
func (s *Store) ResolveName(ctx context.Context, segs []domain.SegmentRecord) (string, error) {
	if len(segs) == 0 {
		return "", domain.ErrNotFound
	}
	meta, err := s.backend.Resolve(ctx, segs[0].MessageID)
	if err != nil {
		return "", err
	}
	return meta.FileName, nil
}

// Delete удаляет сообщения в бекенде (best-effort) и строки индекса.
// Неизвестный fileID — no-op: удаление идемпотентно.
func (s *Store) Delete(ctx context.Context, fileID string) error {
	segs, err := s.repo.ListSegments(ctx, fileID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	ids := make([]string, len(segs))
	for i, seg := range segs {
		ids[i] = seg.MessageID
	}
	// ошибка бекенда не блокирует чистку индекса: лучше осиротевшее сообщение,
	// чем неудаляемая строка индекса
	if err := s.backend.DeleteSegments(ctx, ids); err != nil {
		s.log.Printf("backend delete for %s failed: %v (index cleanup proceeds)", fileID, err)
	}

	if err := s.repo.DeleteFile(ctx, fileID); err != nil {
		return err
	}
	_ = s.cache.Del(ctx, domain.CacheKeySegments(fileID))
	return nil
}
