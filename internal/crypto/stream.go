// Package crypto — потоковое шифрование содержимого файлов по парольной фразе.
//
// Ключ и IV выводятся из SHA-512 парольной фразы: первые 32 байта — ключ
// AES-256, следующие 16 — вектор инициализации. Режим — CFB: длина шифртекста
// равна длине открытого текста, паддинга нет. Аутентификации нет: неверная
// фраза даёт мусор на выходе, а не ошибку.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"io"
)

func derive(passphrase string) (key, iv []byte) {
	sum := sha512.Sum512([]byte(passphrase))
	return sum[:32], sum[32:48]
}

// EncryptReader оборачивает источник загрузки: всё прочитанное шифруется на лету.
func EncryptReader(r io.Reader, passphrase string) io.Reader {
	key, iv := derive(passphrase)
	block, err := aes.NewCipher(key)
	if err != nil {
		// ключ всегда 32 байта, сюда не попадаем
		panic(err)
	}
	return cipher.StreamReader{S: cipher.NewCFBEncrypter(block, iv), R: r}
}

// DecryptWriter оборачивает приёмник скачивания: всё записанное расшифровывается
// на лету. Корректный результат гарантирован только при чтении с нулевого
// смещения: CFB не даёт произвольного доступа.
func DecryptWriter(w io.Writer, passphrase string) io.Writer {
	key, iv := derive(passphrase)
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	return cipher.StreamWriter{S: cipher.NewCFBDecrypter(block, iv), W: w}
}
