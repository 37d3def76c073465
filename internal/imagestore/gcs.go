package imagestore

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

// GCSStore はGoogle Cloud Storageに保存するバックエンド。
// オブジェクト名にプレフィックスを付与するため、Saveが返す名前は
// 要求したnameと異なることがある。
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore はGCSStoreを生成する。
// prefixはバケット内のオブジェクト名に前置されるパス（空可）。
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCSバケット名が指定されていません")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCSクライアントの作成に失敗しました: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Save は画像をバケットに書き込み、プレフィックス込みのオブジェクト名を返す。
func (s *GCSStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	stored := name
	if s.prefix != "" {
		stored = path.Join(s.prefix, name)
	}

	w := s.client.Bucket(s.bucket).Object(stored).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("GCSオブジェクトの書き込みに失敗しました: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("GCSオブジェクトの確定に失敗しました: %w", err)
	}
	return stored, nil
}

// Close は下層のGCSクライアントを解放する。
func (s *GCSStore) Close() error {
	return s.client.Close()
}
