package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

// Upload читает источник кусками не больше maxSegment, пишет каждый кусок
// как отдельное сообщение и фиксирует всю пачку сегментов одним append.
//
// Пустой fileID означает новый файл: идентификатор генерируется до записи
// данных. startByte задаёт начальное смещение (chunked-append передаёт его от
// клиента и не сверяет с индексом — документированная граница доверия).
//
// Ошибка записи в бекенд прерывает вызов целиком; уже записанные сообщения не
// откатываются и остаются сиротами без строк индекса.
func (s *Store) Upload(ctx context.Context, fileID string, startByte int64, r io.Reader, fileName string) (string, []domain.SegmentRecord, error) {
	if fileID == "" {
		fileID = domain.NewFileID()
	}

	buf := make([]byte, s.maxSegment)
	runningEnd := startByte
	var batch []domain.SegmentRecord

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			seg, sendErr := s.backend.SendSegment(ctx, fileName, bytes.NewReader(buf[:n]))
			if sendErr != nil {
				// сегменты, записанные до сбоя, осиротели — компенсации нет
				return "", nil, fmt.Errorf("segment at offset %d: %v: %w",
					runningEnd, sendErr, domain.ErrUploadFailed)
			}
			size := seg.Size
			if size <= 0 {
				size = int64(n)
			}
			batch = append(batch, domain.SegmentRecord{
				MessageID: seg.MessageID,
				FileID:    fileID,
				StartByte: runningEnd,
				EndByte:   runningEnd + size - 1,
				Size:      size,
			})
			runningEnd += size
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", nil, err
		}
	}

	if len(batch) == 0 {
		return "", nil, domain.ErrNothingUploaded
	}

	if err := s.repo.AppendSegments(ctx, batch); err != nil {
		return "", nil, err
	}
	_ = s.cache.Del(ctx, domain.CacheKeySegments(fileID))
	return fileID, batch, nil
}
