package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/foodtracker/internal/metrics"
	"github.com/hitoshi/foodtracker/internal/model"
)

// Image はアップロード対象の画像ファイル。
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadedImage はアップロード済み画像のオブジェクト名と公開URL。
type UploadedImage struct {
	Name string
	URL  string
}

// ImageManager は1つのバケットに対する画像のアップロードと削除を管理する。
// テーブル書き込みとストレージ書き込みをまたぐトランザクションは存在しないため、
// 呼び出し側は「アップロード → テーブル書き込み → 旧画像の削除」の順で使用し、
// テーブル書き込みに失敗した場合はDiscardでアップロード済み画像を取り消す。
type ImageManager struct {
	store   ObjectStore
	bucket  string
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewImageManager はImageManagerを生成する。mcがnilの場合はメトリクスを記録しない。
func NewImageManager(store ObjectStore, bucket string, mc metrics.MetricsCollector) *ImageManager {
	return &ImageManager{
		store:   store,
		bucket:  bucket,
		metrics: metrics.OrNop(mc),
		now:     time.Now,
	}
}

// Upload は画像を "<unix_ms>-<filename>" の名前で保存し、公開URLを返す。
// 画像以外のContent-Typeは拒否する。
func (m *ImageManager) Upload(ctx context.Context, img *Image) (*UploadedImage, error) {
	if !strings.HasPrefix(img.ContentType, "image/") {
		return nil, model.NewInvalidImageError(img.ContentType)
	}

	name := NewObjectName(m.now(), img.Filename)
	if err := m.store.Upload(ctx, m.bucket, name, img.Body, img.Size, img.ContentType); err != nil {
		m.metrics.RecordStorageOperation(metrics.StorageUpload, metrics.ResultFailure)
		slog.Error("画像のアップロードに失敗しました",
			slog.String("bucket", m.bucket),
			slog.String("object", name),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStorageUploadFailedError()
	}
	m.metrics.RecordStorageOperation(metrics.StorageUpload, metrics.ResultSuccess)

	return &UploadedImage{Name: name, URL: m.store.PublicURL(m.bucket, name)}, nil
}

// Discard はテーブル書き込みに失敗した際に、直前にアップロードした画像を削除する。
// upがnilの場合は何もしない。削除に失敗した画像は孤立オブジェクトとして記録する。
func (m *ImageManager) Discard(ctx context.Context, up *UploadedImage) {
	if up == nil {
		return
	}
	m.metrics.RecordCompensation(m.bucket)
	m.remove(ctx, up.Name)
}

// RemoveByURL は公開URLから復元したオブジェクトをベストエフォートで削除する。
// 失敗はログに記録し、呼び出し元の処理を妨げない。
func (m *ImageManager) RemoveByURL(ctx context.Context, rawURL string) {
	name, ok := ObjectNameFromURL(rawURL)
	if !ok {
		slog.Warn("画像URLからオブジェクト名を取得できません",
			slog.String("bucket", m.bucket),
			slog.String("url", rawURL),
		)
		return
	}
	m.remove(ctx, name)
}

func (m *ImageManager) remove(ctx context.Context, name string) {
	if err := m.store.Remove(ctx, m.bucket, name); err != nil {
		m.metrics.RecordStorageOperation(metrics.StorageRemove, metrics.ResultFailure)
		m.metrics.RecordOrphanedObject(m.bucket)
		slog.Warn("画像の削除に失敗しました",
			slog.String("bucket", m.bucket),
			slog.String("object", name),
			slog.String("error", err.Error()),
		)
		return
	}
	m.metrics.RecordStorageOperation(metrics.StorageRemove, metrics.ResultSuccess)
}
