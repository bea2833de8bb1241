package file

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/SymoHTL/CloudCord/internal/crypto"
	"github.com/SymoHTL/CloudCord/internal/domain"
	"github.com/SymoHTL/CloudCord/internal/store"
	"github.com/SymoHTL/CloudCord/internal/transport/web/logx"
	"github.com/SymoHTL/CloudCord/internal/transport/web/mw"
	v1 "github.com/SymoHTL/CloudCord/internal/transport/web/v1"
)

// Download godoc
// @Summary     Download file
// @Description Отдаёт файл целиком или один диапазон из заголовка Range.
// @Tags        files
// @Produce     octet-stream
// @Param       fileId path string true "file id"
// @Param       Range  header string false "bytes=start-end (только первый диапазон)"
// @Success     200 {file} []byte
// @Success     206 {file} []byte
// @Failure     404 {object} domain.APIEnvelope
// @Failure     416 {object} domain.APIEnvelope
// @Router      /api/files/{fileId} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "")
}

// DownloadSecure godoc
// @Summary     Download file with decryption
// @Description То же, что Download, но выход прозрачно расшифровывается парольной фразой из пути.
// @Tags        files
// @Produce     octet-stream
// @Param       fileId     path string true "file id"
// @Param       passphrase path string true "passphrase"
// @Success     200 {file} []byte
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/files/{fileId}/{passphrase} [get]
func (h *Handler) DownloadSecure(w http.ResponseWriter, r *http.Request) {
	pass := r.PathValue("passphrase")
	if pass == "" {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	h.stream(w, r, pass)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, passphrase string) {
	const op = "files.download"
	reqID := mw.RequestIDFromCtx(r.Context())

	fileID := r.PathValue("fileId")
	if !domain.ValidFileID(fileID) {
		logx.Error(h.Log, reqID, op, "bad file id", domain.ErrBadParams, "file_id", fileID)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	segs, err := h.Store.Layout(r.Context(), fileID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "layout", err, "file_id", fileID)
		v1.WriteDomainError(w, r, err)
		return
	}
	total := domain.TotalSize(segs)

	// имя вложения — best-effort: без него отдать файл всё равно можно
	if name, err := h.Store.ResolveName(r.Context(), segs); err == nil && name != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	} else if err != nil {
		logx.Error(h.Log, reqID, op, "resolve name", err, "file_id", fileID)
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", "application/octet-stream")

	encrypted := passphrase != ""
	var sink io.Writer = w
	if encrypted {
		sink = crypto.DecryptWriter(w, passphrase)
	}

	if rangeHdr := r.Header.Get("Range"); rangeHdr != "" {
		if rng, ok := store.ParseRange(rangeHdr, total); ok {
			h.streamRange(w, r, segs, rng, total, encrypted, sink)
			return
		}
		// кривой Range игнорируем и отвечаем полным телом
		logx.Info(h.Log, reqID, op, "malformed range ignored", "range", rangeHdr)
	}

	// полное тело; при шифровании длину не анонсируем
	if !encrypted {
		w.Header().Set("Content-Length", strconv.FormatInt(total, 10))
	}
	w.WriteHeader(http.StatusOK)
	if err := h.Store.StreamAll(r.Context(), segs, sink); err != nil {
		// заголовки уже ушли — только лог, клиент увидит оборванное тело
		logx.Error(h.Log, reqID, op, "stream aborted", err, "file_id", fileID)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "file_id", fileID, "bytes", total)
}

func (h *Handler) streamRange(w http.ResponseWriter, r *http.Request,
	segs []domain.SegmentRecord, rng store.ByteRange, total int64, encrypted bool, sink io.Writer) {
	const op = "files.download_range"
	reqID := mw.RequestIDFromCtx(r.Context())

	rng, sel, err := store.ResolveRange(segs, rng)
	if err != nil {
		logx.Error(h.Log, reqID, op, "range not satisfiable", err,
			"start", rng.Start, "end", rng.End, "total", total)
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", total))
		v1.WriteDomainError(w, r, domain.ErrRangeNotSatisfiable)
		return
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End, total))
	if !encrypted {
		w.Header().Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	}
	w.WriteHeader(http.StatusPartialContent)

	if err := h.Store.StreamRange(r.Context(), sel, rng, sink); err != nil {
		logx.Error(h.Log, reqID, op, "stream aborted", err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "start", rng.Start, "end", rng.End, "segments", len(sel))
}
