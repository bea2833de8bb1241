package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

func (r *PGRepo) table() string {
	return fmt.Sprintf("%s.files", r.schema)
}

// ListSegments возвращает сегменты файла по возрастанию start_byte.
// Пустой результат => domain.ErrNotFound: файл без сегментов не существует.
func (r *PGRepo) ListSegments(ctx context.Context, fileID string) ([]domain.SegmentRecord, error) {
	q := r.qb().Select("message_id", "file_id", "start_byte", "end_byte", "size").
		From(r.table()).
		Where(sq.Eq{"file_id": fileID}).
		OrderBy("start_byte ASC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("ListSegments", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("ListSegments query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	var out []domain.SegmentRecord
	for rows.Next() {
		var rec domain.SegmentRecord
		if err := rows.Scan(&rec.MessageID, &rec.FileID, &rec.StartByte, &rec.EndByte, &rec.Size); err != nil {
			r.logger.Printf("ListSegments scan error: %v", err)
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		r.logger.Printf("ListSegments: no segments for file_id=%s", fileID)
		return nil, domain.ErrNotFound
	}
	r.logger.Printf("ListSegments ok in %s file_id=%s segments=%d", time.Since(start), fileID, len(out))
	return out, nil
}

// AppendSegments вставляет пачку сегментов одной транзакцией: всё или ничего.
func (r *PGRepo) AppendSegments(ctx context.Context, recs []domain.SegmentRecord) error {
	if len(recs) == 0 {
		return nil
	}

	q := r.qb().Insert(r.table()).
		Columns("message_id", "file_id", "start_byte", "end_byte", "size")
	for _, rec := range recs {
		q = q.Values(rec.MessageID, rec.FileID, rec.StartByte, rec.EndByte, rec.Size)
	}

	sqlStr, args, _ := q.ToSql()
	r.logSQL("AppendSegments", sqlStr, args)

	start := time.Now()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		r.logger.Printf("AppendSegments exec error after %s: %v", time.Since(start), err)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Printf("AppendSegments ok in %s file_id=%s segments=%d",
		time.Since(start), recs[0].FileID, len(recs))
	return nil
}

// DeleteFile удаляет все сегменты файла. Нет строк — не ошибка (идемпотентность).
func (r *PGRepo) DeleteFile(ctx context.Context, fileID string) error {
	q := r.qb().Delete(r.table()).Where(sq.Eq{"file_id": fileID})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("DeleteFile", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("DeleteFile exec error after %s: %v", time.Since(start), err)
		return err
	}
	r.logger.Printf("DeleteFile ok in %s file_id=%s rows=%d", time.Since(start), fileID, tag.RowsAffected())
	return nil
}
