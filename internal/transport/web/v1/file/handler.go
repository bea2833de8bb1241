package file

import (
	"context"
	"io"
	"log"

	"github.com/SymoHTL/CloudCord/internal/domain"
	"github.com/SymoHTL/CloudCord/internal/store"
)

// Engine — движок хранилища, который нужен HTTP-слою.
type Engine interface {
	Upload(ctx context.Context, fileID string, startByte int64, r io.Reader, fileName string) (string, []domain.SegmentRecord, error)
	Layout(ctx context.Context, fileID string) ([]domain.SegmentRecord, error)
	Exists(ctx context.Context, fileID string) (bool, error)
	ResolveName(ctx context.Context, segs []domain.SegmentRecord) (string, error)
	StreamAll(ctx context.Context, segs []domain.SegmentRecord, w io.Writer) error
	StreamRange(ctx context.Context, sel []domain.SegmentRecord, rng store.ByteRange, w io.Writer) error
	Delete(ctx context.Context, fileID string) error
}

type Handler struct {
	Log   *log.Logger
	Store Engine
}
