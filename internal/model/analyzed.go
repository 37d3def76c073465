// Package model はドメインモデルを定義する。
package model

// AnalyzedSection は解析済みペイロード内のissuer/badgeブロックのメタデータを表す。
// Versionが空の場合はバージョン検出に失敗したことを示し、
// VersionErrorsに検出時のエラーが格納される。
type AnalyzedSection struct {
	URL           string
	Version       string
	VersionErrors []string
}

// AnalyzedBadge は外部アナライザが検証・正規化したバッジペイロードを表す。
// 本モジュールはこの構造体からローカルコンポーネント行を導出する。
//
// IssuerとBadgeはペイロードのバージョンにその概念が存在しない場合
// （0.5形式）にnilとなる。呼び出し側はnilチェックで機能の有無を判定する。
type AnalyzedBadge struct {
	InstanceURL string
	RecipientID string
	Data        map[string]any
	Errors      []ErrorDetail
	Valid       bool
	Issuer      *AnalyzedSection
	Badge       *AnalyzedSection
}

// IsValid はペイロードが検証を通過したかを返す。
func (a *AnalyzedBadge) IsValid() bool {
	return a != nil && a.Valid
}

// AllErrors はアナライザが収集した全エラーを返す。
func (a *AnalyzedBadge) AllErrors() []ErrorDetail {
	if a == nil {
		return nil
	}
	return a.Errors
}

// IssuerBlock はペイロード内のissuer JSONブロックのコピーを返す。
// 見つからない場合はnilを返す。
func (a *AnalyzedBadge) IssuerBlock() map[string]any {
	badge, ok := a.Data["badge"].(map[string]any)
	if !ok {
		return nil
	}
	issuer, ok := badge["issuer"].(map[string]any)
	if !ok {
		return nil
	}
	return copyJSON(issuer)
}

// BadgeBlock はペイロード内のbadge JSONブロックのコピーを返す。
// 見つからない場合はnilを返す。
func (a *AnalyzedBadge) BadgeBlock() map[string]any {
	badge, ok := a.Data["badge"].(map[string]any)
	if !ok {
		return nil
	}
	return copyJSON(badge)
}

// copyJSON はトップレベルの浅いコピーを作成する。
// 保存用ドキュメントへの@context付与が元ペイロードを汚染しないようにする。
func copyJSON(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
