// Package logx — компактный структурированный лог поверх *log.Logger:
// единый формат lvl/req_id/op/msg + пары ключ-значение.
package logx

import (
	"fmt"
	"log"
	"strings"
)

func Info(l *log.Logger, reqID, op, msg string, kv ...any) {
	l.Printf("lvl=info req_id=%s op=%s msg=%q%s", reqID, op, msg, format(kv))
}

func Error(l *log.Logger, reqID, op, msg string, err error, kv ...any) {
	l.Printf("lvl=error req_id=%s op=%s msg=%q err=%q%s", reqID, op, msg, errText(err), format(kv))
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// format собирает пары k=v; непарный хвост дописывается как extra=v
func format(kv []any) string {
	if len(kv) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		sb.WriteString(fmt.Sprintf(" %v=%v", kv[i], kv[i+1]))
	}
	if len(kv)%2 != 0 {
		sb.WriteString(fmt.Sprintf(" extra=%v", kv[len(kv)-1]))
	}
	return sb.String()
}
