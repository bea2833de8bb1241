package domain

import "errors"

// Бизнес-ошибки (маппятся на HTTP коды в v1.MapDomainError)
var (
	ErrBadParams           = errors.New("bad_params")            // 400
	ErrNotFound            = errors.New("not_found")             // 404
	ErrRangeNotSatisfiable = errors.New("range_not_satisfiable") // 416
	ErrMethodNotAllowed    = errors.New("method_not_allowed")    // 405
	ErrUploadFailed        = errors.New("upload_failed")         // 400: запись в бекенд не подтверждена
	ErrNothingUploaded     = errors.New("nothing_uploaded")      // 400: поток не дал ни одного куска
	ErrBackendUnavailable  = errors.New("backend_unavailable")   // 503: нет живой сессии
	ErrUnexpected          = errors.New("unexpected")            // 500
)

// Коды ошибок в конверте ответа
const (
	ErrCodeBadParams           = 1000
	ErrCodeNotFound            = 1001
	ErrCodeRangeNotSatisfiable = 1002
	ErrCodeMethodNotAllowed    = 1003
	ErrCodeUploadFailed        = 1004
	ErrCodeNothingUploaded     = 1005
	ErrCodeBackendUnavailable  = 1006
	ErrCodeUnexpected          = 1999
)
