package baker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// mockValidator はテスト用のSSRFValidatorモック。
// 検証を素通しし、通常のHTTPクライアントを返す。
type mockValidator struct {
	validateErr   error
	validateCalls int
	lastURL       string
}

func (m *mockValidator) ValidateURL(rawURL string) error {
	m.validateCalls++
	m.lastURL = rawURL
	return m.validateErr
}

func (m *mockValidator) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

// analyzedBadgeWithImage は指定のimage値を持つ解析済みペイロードを返す。
func analyzedBadgeWithImage(image any) *model.AnalyzedBadge {
	return &model.AnalyzedBadge{
		InstanceURL: "https://example.org/assertions/1",
		Valid:       true,
		Data:        map[string]any{"image": image},
	}
}

// TestBakedImage_FetchesImage は画像が正常に取得されることをテストする。
func TestBakedImage_FetchesImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Badgekeeper/") {
			t.Errorf("User-Agent = %q, want Badgekeeper prefix", ua)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-data"))
	}))
	defer server.Close()

	validator := &mockValidator{}
	b := NewHTTPBaker(validator, 100, 5*time.Second, 1024*1024)

	image, err := b.BakedImage(context.Background(), analyzedBadgeWithImage(server.URL+"/images/badge.png"))
	if err != nil {
		t.Fatalf("BakedImage returned error: %v", err)
	}
	if string(image.Data) != "png-data" {
		t.Errorf("data = %q, want %q", image.Data, "png-data")
	}
	if image.Name != "badge.png" {
		t.Errorf("name = %q, want %q", image.Name, "badge.png")
	}
	if validator.validateCalls != 1 {
		t.Errorf("validateCalls = %d, want 1", validator.validateCalls)
	}
}

// TestBakedImage_ImageAsObject は1.1形式の{"id": url}ネストからURLを取り出せることをテストする。
func TestBakedImage_ImageAsObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png-data"))
	}))
	defer server.Close()

	validator := &mockValidator{}
	b := NewHTTPBaker(validator, 100, 5*time.Second, 1024*1024)

	imageObj := map[string]any{"id": server.URL + "/badge.png"}
	image, err := b.BakedImage(context.Background(), analyzedBadgeWithImage(imageObj))
	if err != nil {
		t.Fatalf("BakedImage returned error: %v", err)
	}
	if string(image.Data) != "png-data" {
		t.Errorf("data = %q, want %q", image.Data, "png-data")
	}
}

// TestBakedImage_MissingImageURL はペイロードにimage URLがない場合にエラーが返ることをテストする。
func TestBakedImage_MissingImageURL(t *testing.T) {
	validator := &mockValidator{}
	b := NewHTTPBaker(validator, 100, 5*time.Second, 1024*1024)

	abi := &model.AnalyzedBadge{Valid: true, Data: map[string]any{}}
	if _, err := b.BakedImage(context.Background(), abi); err == nil {
		t.Error("image URLなしでエラーが返るべき")
	}
	// SSRF検証まで到達しないこと
	if validator.validateCalls != 0 {
		t.Errorf("validateCalls = %d, want 0", validator.validateCalls)
	}
}

// TestBakedImage_SSRFRejected はSSRF検証に失敗したURLの取得が拒否されることをテストする。
func TestBakedImage_SSRFRejected(t *testing.T) {
	validator := &mockValidator{validateErr: errors.New("private IP")}
	b := NewHTTPBaker(validator, 100, 5*time.Second, 1024*1024)

	_, err := b.BakedImage(context.Background(), analyzedBadgeWithImage("http://169.254.169.254/badge.png"))
	if err == nil {
		t.Fatal("SSRF検証失敗でエラーが返るべき")
	}
	if !strings.Contains(err.Error(), "SSRF") {
		t.Errorf("エラーメッセージにSSRF検証失敗が含まれるべき: %v", err)
	}
}

// TestBakedImage_Non200Status は200以外のステータスでエラーが返ることをテストする。
func TestBakedImage_Non200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	validator := &mockValidator{}
	b := NewHTTPBaker(validator, 100, 5*time.Second, 1024*1024)

	if _, err := b.BakedImage(context.Background(), analyzedBadgeWithImage(server.URL+"/missing.png")); err == nil {
		t.Error("404でエラーが返るべき")
	}
}

// TestBakedImage_EmptyBody は空レスポンスでエラーが返ることをテストする。
func TestBakedImage_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	validator := &mockValidator{}
	b := NewHTTPBaker(validator, 100, 5*time.Second, 1024*1024)

	if _, err := b.BakedImage(context.Background(), analyzedBadgeWithImage(server.URL+"/empty.png")); err == nil {
		t.Error("空レスポンスでエラーが返るべき")
	}
}

// TestBakedImage_BodySizeLimited はレスポンスが最大サイズで打ち切られることをテストする。
func TestBakedImage_BodySizeLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	validator := &mockValidator{}
	b := NewHTTPBaker(validator, 100, 5*time.Second, 512)

	image, err := b.BakedImage(context.Background(), analyzedBadgeWithImage(server.URL+"/big.png"))
	if err != nil {
		t.Fatalf("BakedImage returned error: %v", err)
	}
	if len(image.Data) != 512 {
		t.Errorf("data size = %d, want 512（最大サイズで打ち切られるべき）", len(image.Data))
	}
}

// TestBakedImage_ContextCancelled はコンテキストキャンセルで中断されることをテストする。
func TestBakedImage_ContextCancelled(t *testing.T) {
	validator := &mockValidator{}
	// レート0でトークン供給を止め、limiter.Waitでブロックさせる
	b := NewHTTPBaker(validator, 0, 5*time.Second, 1024)
	b.limiter.AllowN(time.Now(), 1) // 初期トークンを消費

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := b.BakedImage(ctx, analyzedBadgeWithImage("http://example.org/badge.png")); err == nil {
		t.Error("コンテキストキャンセルでエラーが返るべき")
	}
}

// --- ヘルパー関数 ---

// TestImageURLFromData_Variants はimageフィールドの形式ごとの取り出しをテストする。
func TestImageURLFromData_Variants(t *testing.T) {
	tests := []struct {
		name    string
		image   any
		want    string
		wantErr bool
	}{
		{"文字列URL", "https://example.org/b.png", "https://example.org/b.png", false},
		{"idネスト", map[string]any{"id": "https://example.org/b.png"}, "https://example.org/b.png", false},
		{"空文字列", "", "", true},
		{"idなしオブジェクト", map[string]any{"caption": "badge"}, "", true},
		{"フィールドなし", nil, "", true},
		{"数値", 42, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{}
			if tt.image != nil {
				data["image"] = tt.image
			}
			got, err := imageURLFromData(data)
			if tt.wantErr {
				if err == nil {
					t.Error("エラーが返るべき")
				}
				return
			}
			if err != nil {
				t.Fatalf("imageURLFromData returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestImageName_Variants はURLからのファイル名抽出をテストする。
func TestImageName_Variants(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://example.org/images/badge.png", "badge.png"},
		{"https://example.org/images/badge.svg?v=2", "badge.svg"},
		{"https://example.org/images/badge", "badge.png"},
		{"https://example.org/", "baked.png"},
		{"https://example.org", "baked.png"},
	}

	for _, tt := range tests {
		if got := imageName(tt.rawURL); got != tt.want {
			t.Errorf("imageName(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}
