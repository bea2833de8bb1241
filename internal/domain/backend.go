package domain

import (
	"context"
	"io"
)

// Backend — пул авторизованных сессий к Discord.
// Сессии безопасны для конкурентного использования; синхронизирован только выбор.
type Backend interface {
	Ping(context.Context) error

	// SendSegment пишет один сегмент как новое сообщение с вложением
	// и возвращает id сообщения и фактический размер.
	SendSegment(ctx context.Context, fileName string, r io.Reader) (StoredSegment, error)

	// Resolve возвращает CDN-ссылку и имя вложения по id сообщения.
	// Результат кешируется со скользящим TTL (метаданные — отдельный круг к API).
	Resolve(ctx context.Context, messageID string) (AttachmentMeta, error)

	// DeleteSegments — best-effort пакетное удаление сообщений.
	DeleteSegments(ctx context.Context, messageIDs []string) error
}
