package component

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// MediaConfig は画像の公開URL計算に必要な設定を保持する。
type MediaConfig struct {
	// MediaURL はメディアファイルのURLプレフィックス。
	// 絶対URL（http始まり）の場合はそのまま使用される。
	MediaURL string
	// HTTPOrigin はMediaURLが相対パスの場合に前置されるオリジン。
	HTTPOrigin string
}

// ImageURL は保存済み画像の絶対URLを返す。
// MediaURLが絶対URLならMediaURL + name、そうでなければ
// HTTPOrigin + MediaURL + nameを返す。
func ImageURL(cfg MediaConfig, name string) string {
	if strings.HasPrefix(cfg.MediaURL, "http") {
		return cfg.MediaURL + name
	}
	return cfg.HTTPOrigin + cfg.MediaURL + name
}

// newImageName は元ファイルの拡張子を維持したユニークな保存名を生成する。
func newImageName(original string) string {
	return "earned_badge_" + uuid.New().String() + path.Ext(original)
}
