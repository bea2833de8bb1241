package domain

import (
	"crypto/rand"
	"regexp"
)

const (
	fileIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	FileIDLength   = 64
)

// Внешний идентификатор файла: 60..100 алфанюмерик-символов.
var fileIDRe = regexp.MustCompile(`^[A-Za-z0-9]{60,100}$`)

// NewFileID генерирует случайный идентификатор файла (64 символа).
// Идентификатор — единственный "секрет" доступа к файлу, поэтому crypto/rand.
func NewFileID() string {
	buf := make([]byte, FileIDLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // системный ГСЧ недоступен — дальше жить нельзя
	}
	for i, b := range buf {
		buf[i] = fileIDAlphabet[int(b)%len(fileIDAlphabet)]
	}
	return string(buf)
}

func ValidFileID(s string) bool {
	return fileIDRe.MatchString(s)
}
