// Package model はドメインモデルを定義する。
package model

import "time"

// OpenBadgesContext は保存するJSONドキュメントに付与する固定の@context URI。
const OpenBadgesContext = "https://w3id.org/openbadges/v1"

// ErrorDetail はコンポーネント行に保存される構造化エラーレコードを表す。
// 呼び出し元に返すエラーではなく、行データの一部として永続化される。
type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Issuer はバッジ発行組織のローカルコンポーネントを表す。
// URLをユニークキーとして一度だけ作成され、以後は既存行がそのまま返される。
type Issuer struct {
	ID        string
	URL       string
	JSON      map[string]any
	Errors    []ErrorDetail
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BadgeClass はバッジの種類（クレデンシャルテンプレート）を表す。
// 必ず1つのIssuerを参照する。参照されているIssuerは削除できない。
type BadgeClass struct {
	ID        string
	URL       string
	IssuerID  string
	JSON      map[string]any
	Errors    []ErrorDetail
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BadgeInstance は個人に発行されたバッジを表す。
// 0.5形式のペイロードにはBadgeClass/Issuerの概念がないため、両参照はnull許容。
// issuerはbadgeclassから推移的に設定され、独立には設定されない。
type BadgeInstance struct {
	ID              string
	URL             string
	BadgeClassID    string // 空文字列 = 参照なし（0.5形式）
	IssuerID        string // 空文字列 = 参照なし（0.5形式）
	RecipientID     string // 受領者識別子（通常はメールアドレス）
	RecipientUserID string // 空文字列 = 未解決
	ImageName       string // メディアルートからの相対パス
	JSON            map[string]any
	Errors          []ErrorDetail
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BadgeImage はベイク済みバッジ画像のバイナリとファイル名を表す。
// Nameの拡張子は保存時のファイル名生成で維持される。
type BadgeImage struct {
	Name string
	Data []byte
}
