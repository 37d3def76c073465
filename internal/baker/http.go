// Package baker はベイク済みバッジ画像の取得機能を提供する。
// ベイク処理（画像へのメタデータ埋め込み）自体は発行側で完了しており、
// 本パッケージはペイロードが指すホスト済み画像のダウンロードのみを担う。
package baker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// HTTPBaker は解析済みペイロードのimage URLからベイク済み画像を取得する。
// SSRF検証付きクライアントとレートリミッタを使用する。
type HTTPBaker struct {
	ssrfGuard   SSRFValidator
	limiter     *rate.Limiter
	timeout     time.Duration
	maxBodySize int64
}

// NewHTTPBaker はHTTPBakerの新しいインスタンスを生成する。
// ratePerSecは外部ホストへの取得リクエストの上限（リクエスト/秒）。
func NewHTTPBaker(ssrfGuard SSRFValidator, ratePerSec float64, timeout time.Duration, maxBodySize int64) *HTTPBaker {
	return &HTTPBaker{
		ssrfGuard:   ssrfGuard,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// BakedImage はペイロードのimageフィールドが指すURLから画像を取得する。
func (b *HTTPBaker) BakedImage(ctx context.Context, abi *model.AnalyzedBadge) (*model.BadgeImage, error) {
	imageURL, err := imageURLFromData(abi.Data)
	if err != nil {
		return nil, err
	}

	// SSRF検証
	if err := b.ssrfGuard.ValidateURL(imageURL); err != nil {
		return nil, fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	// 外部ホストへのリクエストレートを制限する
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レート制限待機が中断されました: %w", err)
	}

	client := b.ssrfGuard.NewSafeClient(b.timeout, b.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Badgekeeper/1.0")
	req.Header.Set("Accept", "image/png, image/svg+xml, image/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("画像の取得に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("画像の取得に失敗: HTTPステータス %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("画像の読み取りに失敗: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("画像が空です: %s", imageURL)
	}

	return &model.BadgeImage{
		Name: imageName(imageURL),
		Data: data,
	}, nil
}

// imageURLFromData はペイロードからホスト済み画像のURLを取り出す。
// 1.0形式では文字列、1.1形式では{"id": url}のネストを許容する。
func imageURLFromData(data map[string]any) (string, error) {
	switch v := data["image"].(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("ペイロードにimage URLがありません")
		}
		return v, nil
	case map[string]any:
		if id, ok := v["id"].(string); ok && id != "" {
			return id, nil
		}
		return "", fmt.Errorf("ペイロードのimageオブジェクトにidがありません")
	default:
		return "", fmt.Errorf("ペイロードにimage URLがありません")
	}
}

// imageName はURLのパス末尾からファイル名を取り出す。
// 拡張子が判別できない場合は.pngを補う。
func imageName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "baked.png"
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "baked.png"
	}
	if path.Ext(name) == "" {
		name += ".png"
	}
	return name
}
