package domain

import "context"

// SegmentsRepo — индекс сегментов (упорядоченное хранилище по (file_id, start_byte)).
type SegmentsRepo interface {
	Close()
	Ping(context.Context) error

	// ListSegments возвращает сегменты файла, отсортированные по StartByte.
	// Пустой список => ErrNotFound (файла не существует).
	ListSegments(ctx context.Context, fileID string) ([]SegmentRecord, error)

	// AppendSegments — атомарная пакетная вставка: всё или ничего.
	AppendSegments(ctx context.Context, recs []SegmentRecord) error

	// DeleteFile удаляет все сегменты файла; идемпотентна (нет строк — не ошибка).
	DeleteFile(ctx context.Context, fileID string) error
}
