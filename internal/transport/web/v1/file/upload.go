package file

import (
	"errors"
	"io"
	"net/http"

	"github.com/SymoHTL/CloudCord/internal/crypto"
	"github.com/SymoHTL/CloudCord/internal/domain"
	"github.com/SymoHTL/CloudCord/internal/transport/web/logx"
	"github.com/SymoHTL/CloudCord/internal/transport/web/mw"
	v1 "github.com/SymoHTL/CloudCord/internal/transport/web/v1"
)

// Upload godoc
// @Summary     Upload new file
// @Description multipart: file. Тело ответа — fileId нового файла.
// @Tags        files
// @Accept      multipart/form-data
// @Produce     plain
// @Param       file formData file true "файл"
// @Success     200 {string} string "fileId"
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/files [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "")
}

// UploadSecure godoc
// @Summary     Upload new file with encryption
// @Description То же, что Upload, но поток шифруется парольной фразой из пути.
// @Tags        files
// @Accept      multipart/form-data
// @Produce     plain
// @Param       passphrase path string true "passphrase"
// @Param       file formData file true "файл"
// @Success     200 {string} string "fileId"
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/files/{passphrase} [post]
func (h *Handler) UploadSecure(w http.ResponseWriter, r *http.Request) {
	pass := r.PathValue("passphrase")
	if pass == "" {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	h.upload(w, r, pass)
}

// upload стримит часть "file" прямо в движок: тело произвольного размера
// не буферизуется ни в память, ни на диск.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request, passphrase string) {
	const op = "files.upload"
	reqID := mw.RequestIDFromCtx(r.Context())

	mr, err := r.MultipartReader()
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad multipart", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	part, err := nextFilePart(mr, "file")
	if err != nil {
		logx.Error(h.Log, reqID, op, "missing file part", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	defer part.Close()

	name := part.FileName()
	if name == "" {
		name = "file"
	}

	src := io.Reader(part)
	if passphrase != "" {
		src = crypto.EncryptReader(src, passphrase)
	}

	fileID, segs, err := h.Store.Upload(r.Context(), "", 0, src, name)
	if err != nil {
		logx.Error(h.Log, reqID, op, "upload failed", err, "name", name)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "file_id", fileID, "segments", len(segs))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, fileID)
}

// UploadChunked godoc
// @Summary     Upload one chunk
// @Description multipart: chunkFile, startByte, опционально fileId (для до-записи).
// @Description startByte клиента не сверяется с индексом — клиент отвечает за непрерывность.
// @Tags        files
// @Accept      multipart/form-data
// @Produce     json
// @Param       chunkFile formData file true "кусок"
// @Param       startByte formData integer true "смещение первого байта"
// @Param       fileId formData string false "существующий fileId"
// @Success     200 {object} domain.ChunkResult
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/files/chunked [post]
func (h *Handler) UploadChunked(w http.ResponseWriter, r *http.Request) {
	const op = "files.upload_chunked"
	reqID := mw.RequestIDFromCtx(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logx.Error(h.Log, reqID, op, "bad multipart", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	chunk, hdr, err := r.FormFile("chunkFile")
	if err != nil {
		logx.Error(h.Log, reqID, op, "missing chunkFile", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	defer chunk.Close()

	startByte, err := parseStartByte(r.FormValue("startByte"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad startByte", err, "raw", r.FormValue("startByte"))
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	fileID := r.FormValue("fileId")
	if fileID != "" {
		if !domain.ValidFileID(fileID) {
			v1.WriteDomainError(w, r, domain.ErrBadParams)
			return
		}
		ok, err := h.Store.Exists(r.Context(), fileID)
		if err != nil {
			logx.Error(h.Log, reqID, op, "exists check", err, "file_id", fileID)
			v1.WriteDomainError(w, r, domain.ErrUnexpected)
			return
		}
		if !ok {
			// до-запись возможна только в существующий файл
			v1.WriteDomainError(w, r, domain.ErrBadParams)
			return
		}
	}

	name := hdr.Filename
	if name == "" {
		name = "file"
	}

	fileID, segs, err := h.Store.Upload(r.Context(), fileID, startByte, chunk, name)
	if err != nil {
		logx.Error(h.Log, reqID, op, "upload failed", err, "file_id", fileID, "start_byte", startByte)
		v1.WriteDomainError(w, r, err)
		return
	}

	last := segs[len(segs)-1]
	res := domain.ChunkResult{
		FileID:    fileID,
		StartByte: segs[0].StartByte,
		EndByte:   last.EndByte,
		Size:      last.EndByte - segs[0].StartByte + 1,
	}
	logx.Info(h.Log, reqID, op, "ok", "file_id", fileID, "start", res.StartByte, "end", res.EndByte)
	v1.WriteJSON(w, http.StatusOK, res)
}

func parseStartByte(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("startByte is required")
	}
	n, err := parseInt64(raw)
	if err != nil || n < 0 {
		return 0, errors.New("startByte must be a non-negative integer")
	}
	return n, nil
}
