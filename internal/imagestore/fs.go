// Package imagestore はバッジ画像の保存先バックエンドを提供する。
// バックエンドは最終的な保存パスの決定権を持つ。呼び出し側は
// Saveが返したファイル名を正とすること。
package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FSStore はメディアルート配下にファイルとして保存するバックエンド。
type FSStore struct {
	root string
}

// NewFSStore はFSStoreを生成し、メディアルートディレクトリを作成する。
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("メディアルートが指定されていません")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("メディアルートの作成に失敗しました: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Save は画像をメディアルート配下に保存し、保存されたファイル名を返す。
// 同名ファイルが既に存在する場合は拡張子の前にサフィックスを挿入して
// 回避するため、戻り値は要求したnameと異なることがある。
func (s *FSStore) Save(_ context.Context, name string, data []byte) (string, error) {
	stored := filepath.Base(name)

	if _, err := os.Stat(filepath.Join(s.root, stored)); err == nil {
		stored = withSuffix(stored)
	}

	if err := os.WriteFile(filepath.Join(s.root, stored), data, 0o644); err != nil {
		return "", fmt.Errorf("画像ファイルの書き込みに失敗しました: %w", err)
	}
	return stored, nil
}

// withSuffix は拡張子の前に短いランダムサフィックスを挿入する。
func withSuffix(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "_" + uuid.New().String()[:8] + ext
}
