package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/foodtracker/internal/model"
	"github.com/hitoshi/foodtracker/internal/storage"
)

const (
	// multipartMemory はParseMultipartFormがメモリに保持する上限。超過分は一時ファイルに書き出される。
	multipartMemory = 1 << 20
	// multipartOverhead は画像以外のフォーム項目とマルチパート境界に許容するバイト数。
	multipartOverhead = 1 << 20
	// imageField は画像ファイルのフォーム項目名。
	imageField = "image"
)

// parseMultipart はマルチパートフォームを解析する。
// ボディ全体を maxImageSize + multipartOverhead に制限する。
func parseMultipart(w http.ResponseWriter, r *http.Request, maxImageSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewImageTooLargeError(maxImageSize)
		}
		return model.NewValidationError("form", "マルチパートフォームの解析に失敗しました")
	}
	return nil
}

// formImage はフォームの画像項目を読み込む。未選択の場合はnilを返す。
// Content-Typeはクライアントの申告ではなく内容から判定する。
func formImage(r *http.Request, maxImageSize int64) (*storage.Image, error) {
	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewValidationError(imageField, "画像ファイルを読み込めません")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, model.NewValidationError(imageField, "画像ファイルを読み込めません")
	}
	if len(data) == 0 {
		return nil, nil
	}
	if int64(len(data)) > maxImageSize {
		return nil, model.NewImageTooLargeError(maxImageSize)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, model.NewInvalidImageError(contentType)
	}

	return &storage.Image{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	}, nil
}

// formBool はチェックボックス形式の値を真偽値として解釈する。
func formBool(r *http.Request, key string) bool {
	v := strings.TrimSpace(r.FormValue(key))
	if strings.EqualFold(v, "on") {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
