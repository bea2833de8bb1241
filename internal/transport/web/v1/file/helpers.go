package file

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
)

// nextFilePart ищет в multipart-потоке файловую часть с нужным именем,
// пропуская остальные части.
func nextFilePart(mr *multipart.Reader, field string) (*multipart.Part, error) {
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New("multipart: no part named " + field)
		}
		if err != nil {
			return nil, err
		}
		if p.FormName() == field {
			return p, nil
		}
		_ = p.Close()
	}
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
