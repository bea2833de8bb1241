package store

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

// StreamAll отдаёт файл целиком: сегменты по возрастанию StartByte, каждый
// полностью. В памяти держится не больше одного сегмента данных.
func (s *Store) StreamAll(ctx context.Context, segs []domain.SegmentRecord, w io.Writer) error {
	for _, seg := range segs {
		meta, err := s.backend.Resolve(ctx, seg.MessageID)
		if err != nil {
			return err
		}
		if err := s.fetch(ctx, meta.URL, 0, seg.Size-1, false, w); err != nil {
			return err
		}
	}
	return nil
}

// StreamRange отдаёт уже разрешённый (ResolveRange) диапазон: для каждого
// выбранного сегмента считается локальное окно, и только оно уезжает в sink.
func (s *Store) StreamRange(ctx context.Context, sel []domain.SegmentRecord, rng ByteRange, w io.Writer) error {
	for _, seg := range sel {
		localStart := max(rng.Start, seg.StartByte) - seg.StartByte
		localEnd := min(rng.End, seg.EndByte) - seg.StartByte

		meta, err := s.backend.Resolve(ctx, seg.MessageID)
		if err != nil {
			return err
		}
		// строгое под-окно сегмента качаем range-запросом к CDN,
		// чтобы не тянуть все 25 MiB ради пары байт
		partial := localStart != 0 || localEnd != seg.Size-1
		if err := s.fetch(ctx, meta.URL, localStart, localEnd, partial, w); err != nil {
			return err
		}
	}
	return nil
}

// fetch качает окно [from,to] объекта по CDN-ссылке.
func (s *Store) fetch(ctx context.Context, url string, from, to int64, partial bool, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if partial {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", from, to))
	}

	resp, err := s.cdn.Do(req)
	if err != nil {
		return fmt.Errorf("cdn fetch: %v: %w", err, domain.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// CDN уже вырезал окно
		_, err = io.Copy(w, resp.Body)
	case http.StatusOK:
		// range проигнорирован — вырезаем окно сами
		if from > 0 {
			if _, err := io.CopyN(io.Discard, resp.Body, from); err != nil {
				return err
			}
		}
		_, err = io.CopyN(w, resp.Body, to-from+1)
	default:
		return fmt.Errorf("cdn status %d: %w", resp.StatusCode, domain.ErrBackendUnavailable)
	}
	return err
}
