package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config はS3互換ストレージへの接続設定。
type S3Config struct {
	Region       string
	Endpoint     string // 空の場合はAWSの既定エンドポイントを使用する
	AccessKey    string // 空の場合はデフォルトの認証情報チェーンを使用する
	SecretKey    string
	UsePathStyle bool
	PublicURL    string // 公開URLのベース（例: http://localhost:9000）
}

// s3API はS3Storeが使用するS3クライアントのメソッド。
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store はaws-sdk-go-v2を使用したObjectStoreの実装。
type S3Store struct {
	client        s3API
	publicURLBase string
}

// NewS3Store はS3Configからクライアントを構築してS3Storeを生成する。
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3StoreWithClient(client, cfg.PublicURL), nil
}

func newS3StoreWithClient(client s3API, publicURLBase string) *S3Store {
	return &S3Store{client: client, publicURLBase: publicURLBase}
}

// Upload はオブジェクトをbucketに保存する。
func (s *S3Store) Upload(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(name),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload object %s/%s: %w", bucket, name, err)
	}
	return nil
}

// PublicURL はオブジェクトの公開URLを返す。
func (s *S3Store) PublicURL(bucket, name string) string {
	return publicURL(s.publicURLBase, bucket, name)
}

// Remove はオブジェクトを削除する。NoSuchKeyは成功として扱う。
func (s *S3Store) Remove(ctx context.Context, bucket, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		return fmt.Errorf("failed to remove object %s/%s: %w", bucket, name, err)
	}
	return nil
}

// compile-time interface check
var _ ObjectStore = (*S3Store)(nil)
