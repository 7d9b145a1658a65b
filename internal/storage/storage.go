// Package storage は画像オブジェクトの保存先（S3互換オブジェクトストレージ）を抽象化する。
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// ObjectStore は画像オブジェクトの保存・公開URL解決・削除を行うインターフェース。
type ObjectStore interface {
	// Upload はオブジェクトをbucketにnameで保存する。
	Upload(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error
	// PublicURL はオブジェクトの公開URLを返す。オブジェクトの存在は確認しない。
	PublicURL(bucket, name string) string
	// Remove はオブジェクトを削除する。存在しないオブジェクトの削除はエラーにしない。
	Remove(ctx context.Context, bucket, name string) error
}

// defaultObjectBase はファイル名が空の場合に使うオブジェクト名の末尾。
const defaultObjectBase = "image"

// NewObjectName はアップロード時刻（ミリ秒）と元のファイル名から
// "<unix_ms>-<filename>" 形式のオブジェクト名を生成する。
// ファイル名に含まれるディレクトリ部分は取り除く。
func NewObjectName(now time.Time, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == "/" {
		base = defaultObjectBase
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}

// publicURL は "<base>/<bucket>/<escaped name>" 形式の公開URLを組み立てる。
func publicURL(base, bucket, name string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + url.PathEscape(name)
}

// ObjectNameFromURL は公開URLの最後のパスセグメントからオブジェクト名を復元する。
// 復元できない場合はfalseを返す。
func ObjectNameFromURL(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	idx := strings.LastIndex(escaped, "/")
	segment := escaped[idx+1:]
	if segment == "" {
		return "", false
	}
	name, err := url.PathUnescape(segment)
	if err != nil {
		return "", false
	}
	return name, true
}
