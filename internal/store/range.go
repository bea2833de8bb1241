package store

import (
	"strconv"
	"strings"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

// ByteRange — запрошенный диапазон, границы включительные.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 { return r.End - r.Start + 1 }

// ParseRange разбирает заголовок Range ("bytes=A-B", "bytes=A-", "bytes=-N").
// Мульти-диапазоны не поддерживаются: берётся только первый. Кривой синтаксис
// даёт ok=false — вызывающий отвечает полным телом.
func ParseRange(header string, total int64) (rng ByteRange, ok bool) {
	if !strings.HasPrefix(header, "bytes=") {
		return ByteRange{}, false
	}
	spec := strings.TrimPrefix(header, "bytes=")
	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}
	parts := strings.SplitN(strings.TrimSpace(spec), "-", 2)
	if len(parts) != 2 {
		return ByteRange{}, false
	}

	switch {
	// bytes=A-B
	case parts[0] != "" && parts[1] != "":
		a, err1 := strconv.ParseInt(parts[0], 10, 64)
		b, err2 := strconv.ParseInt(parts[1], 10, 64)
		if err1 != nil || err2 != nil || a < 0 || b < a {
			return ByteRange{}, false
		}
		return ByteRange{Start: a, End: b}, true

	// bytes=A-  (от A до конца)
	case parts[0] != "":
		a, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || a < 0 {
			return ByteRange{}, false
		}
		return ByteRange{Start: a, End: total - 1}, true

	// bytes=-N  (последние N байт)
	case parts[1] != "":
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, false
		}
		if n > total {
			n = total
		}
		return ByteRange{Start: total - n, End: total - 1}, true
	}
	return ByteRange{}, false
}

// ResolveRange прижимает End к длине файла и выбирает пересекающиеся сегменты.
// Диапазон вне [0, total) => ErrRangeNotSatisfiable.
func ResolveRange(segs []domain.SegmentRecord, rng ByteRange) (ByteRange, []domain.SegmentRecord, error) {
	total := domain.TotalSize(segs)
	if rng.Start < 0 || rng.Start >= total || rng.End < rng.Start {
		return ByteRange{}, nil, domain.ErrRangeNotSatisfiable
	}
	if rng.End >= total {
		rng.End = total - 1
	}

	var sel []domain.SegmentRecord
	for _, seg := range segs {
		if seg.StartByte <= rng.End && seg.EndByte >= rng.Start {
			sel = append(sel, seg)
		}
	}
	if len(sel) == 0 {
		return ByteRange{}, nil, domain.ErrRangeNotSatisfiable
	}
	return rng, sel, nil
}
