// Package component はローカルコンポーネント（Issuer/BadgeClass/BadgeInstance）の
// 冪等な保存処理を提供する。
package component

import (
	"context"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// RecipientResolver は受領者識別子からユーザーを解決するインターフェース。
// オプションで受領者が明示されなかった場合の外部ルックアップに使用される。
type RecipientResolver interface {
	// FindRecipientUser は識別子（通常はメールアドレス）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindRecipientUser(ctx context.Context, identifier string) (*model.User, error)
}

// Baker は解析済みペイロードからベイク済みバッジ画像を取得するインターフェース。
// ベイク処理自体は外部コラボレータの責務。
type Baker interface {
	BakedImage(ctx context.Context, abi *model.AnalyzedBadge) (*model.BadgeImage, error)
}

// ImageStore はバッジ画像の保存先バックエンドのインターフェース。
type ImageStore interface {
	// Save は画像を保存し、実際に保存されたファイル名を返す。
	// バックエンドが衝突回避等でパスを書き換える場合、戻り値は要求した
	// nameと異なることがある。
	Save(ctx context.Context, name string, data []byte) (string, error)
}
