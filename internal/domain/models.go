package domain

// SegmentRecord — одна запись индекса: один сегмент логического файла,
// сохранённый как сообщение с вложением в Discord.
type SegmentRecord struct {
	MessageID string `json:"message_id"` // id сообщения в Discord (snowflake); первичный ключ
	FileID    string `json:"file_id"`
	StartByte int64  `json:"start_byte"`
	EndByte   int64  `json:"end_byte"` // включительно: Size == EndByte-StartByte+1
	Size      int64  `json:"size"`
}

// Инварианты для сегментов одного FileID (поддерживаются писателями индекса):
//   - сортировка по StartByte, без пересечений и без дыр:
//     seg[i].EndByte+1 == seg[i+1].StartByte
//   - Size <= MaxSegmentSize (лимит Discord на вложение)
//   - FileID без сегментов не существует как читаемый файл

// StoredSegment — результат записи одного сегмента в бекенд.
type StoredSegment struct {
	MessageID string
	Size      int64 // фактически сохранённый размер (из вложения)
}

// AttachmentMeta — метаданные вложения: CDN-ссылка и исходное имя файла.
type AttachmentMeta struct {
	MessageID string
	FileName  string
	URL       string
}

// ChunkResult — ответ chunked-загрузки (границы включительные).
type ChunkResult struct {
	FileID    string `json:"fileId"`
	StartByte int64  `json:"startByte"`
	EndByte   int64  `json:"endByte"`
	Size      int64  `json:"size"`
}

// TotalSize — полная длина файла по отсортированному списку сегментов.
func TotalSize(segs []SegmentRecord) int64 {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].EndByte + 1
}
