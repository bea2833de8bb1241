package file

import (
	"net/http"

	"github.com/SymoHTL/CloudCord/internal/domain"
	"github.com/SymoHTL/CloudCord/internal/transport/web/logx"
	"github.com/SymoHTL/CloudCord/internal/transport/web/mw"
	v1 "github.com/SymoHTL/CloudCord/internal/transport/web/v1"
)

// Delete godoc
// @Summary     Delete file
// @Description Удаляет сообщения в Discord (best-effort) и строки индекса.
// @Description Неизвестный fileId — тоже 200: удаление идемпотентно.
// @Tags        files
// @Produce     json
// @Param       fileId path string true "file id"
// @Success     200 {object} map[string]any
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/files/{fileId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "files.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	fileID := r.PathValue("fileId")
	if !domain.ValidFileID(fileID) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	if err := h.Store.Delete(r.Context(), fileID); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "file_id", fileID)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "file_id", fileID)
	v1.WriteJSON(w, http.StatusOK, map[string]any{
		"deleted": true,
		"fileId":  fileID,
	})
}
