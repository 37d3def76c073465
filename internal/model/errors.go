// Package model はドメインモデルを定義する。
package model

import "fmt"

// BadgeError は呼び出し元に返す統一エラーフォーマットを表す。
// 原因カテゴリと対処方法を含む。
type BadgeError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, integrity, system
	Action   string // 呼び出し元向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *BadgeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidBadgeInstance = "INVALID_BADGE_INSTANCE"
	ErrCodeIssuerRequired       = "ISSUER_REQUIRED"
	ErrCodeComponentProtected   = "COMPONENT_PROTECTED"
	ErrCodeComponentNotFound    = "COMPONENT_NOT_FOUND"
	ErrCodeBakeFailed           = "BAKE_FAILED"
)

// NewInvalidBadgeInstanceError は無効なペイロードからの保存要求エラーを生成する。
// kindには保存しようとしたコンポーネント種別（issuer等）を指定する。
func NewInvalidBadgeInstanceError(kind string) *BadgeError {
	return &BadgeError{
		Code:     ErrCodeInvalidBadgeInstance,
		Message:  fmt.Sprintf("検証を通過していないバッジインスタンスから%sを保存することはできません。", kind),
		Category: "validation",
		Action:   "アナライザの検証エラーを解消してから再度保存してください。",
	}
}

// NewIssuerRequiredError はIssuerを解決できないBadgeClassの保存要求エラーを生成する。
// BadgeClassはちょうど1つのIssuerへの参照を必須とする。
func NewIssuerRequiredError(badgeURL string) *BadgeError {
	return &BadgeError{
		Code:     ErrCodeIssuerRequired,
		Message:  fmt.Sprintf("Issuerを解決できないためBadgeClassを保存できません: %s", badgeURL),
		Category: "validation",
		Action:   "ペイロードにissuerセクションが含まれているか確認してください。",
	}
}

// NewComponentProtectedError は参照されているコンポーネントの削除要求エラーを生成する。
func NewComponentProtectedError(kind string, count int) *BadgeError {
	return &BadgeError{
		Code:     ErrCodeComponentProtected,
		Message:  fmt.Sprintf("この%sは%d件のコンポーネントから参照されているため削除できません。", kind, count),
		Category: "integrity",
		Action:   "参照しているコンポーネントを先に削除してください。",
	}
}

// NewComponentNotFoundError はコンポーネント未検出エラーを生成する。
func NewComponentNotFoundError(kind, id string) *BadgeError {
	return &BadgeError{
		Code:     ErrCodeComponentNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません: %s", kind, id),
		Category: "integrity",
		Action:   "IDを確認してください。",
	}
}

// NewBakeFailedError はベイク済み画像の取得失敗エラーを生成する。
func NewBakeFailedError(reason string) *BadgeError {
	return &BadgeError{
		Code:     ErrCodeBakeFailed,
		Message:  fmt.Sprintf("ベイク済みバッジ画像の取得に失敗しました: %s", reason),
		Category: "system",
		Action:   "ペイロードのimage URLが取得可能か確認し、しばらく待ってから再度お試しください。",
	}
}
