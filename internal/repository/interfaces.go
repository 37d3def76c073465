// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// IssuerRepository はIssuerコンポーネントの永続化インターフェース。
type IssuerRepository interface {
	// FindByID は指定IDのIssuerを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Issuer, error)

	// FindByURL は正規URLでIssuerを検索する。見つからない場合はnilを返す。
	FindByURL(ctx context.Context, url string) (*model.Issuer, error)

	// Create はIssuerを作成する。
	Create(ctx context.Context, issuer *model.Issuer) error

	// DeleteByID は指定IDのIssuerを削除する。
	// 参照整合性チェックはサービス層で行う。
	DeleteByID(ctx context.Context, id string) error
}

// BadgeClassRepository はBadgeClassコンポーネントの永続化インターフェース。
type BadgeClassRepository interface {
	// FindByID は指定IDのBadgeClassを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.BadgeClass, error)

	// FindByURL は正規URLでBadgeClassを検索する。見つからない場合はnilを返す。
	FindByURL(ctx context.Context, url string) (*model.BadgeClass, error)

	// Create はBadgeClassを作成する。
	Create(ctx context.Context, badgeClass *model.BadgeClass) error

	// CountByIssuerID は指定Issuerを参照するBadgeClassの件数を返す。
	// Issuerの削除保護チェックに使用する。
	CountByIssuerID(ctx context.Context, issuerID string) (int, error)

	// DeleteByID は指定IDのBadgeClassを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// BadgeInstanceRepository はBadgeInstanceコンポーネントの永続化インターフェース。
type BadgeInstanceRepository interface {
	// FindByURL は正規URLでBadgeInstanceを検索する。見つからない場合はnilを返す。
	FindByURL(ctx context.Context, url string) (*model.BadgeInstance, error)

	// Create はBadgeInstanceを作成する。
	Create(ctx context.Context, instance *model.BadgeInstance) error

	// UpdateRecipientUser は受領者ユーザーを後付けする唯一の更新経路。
	UpdateRecipientUser(ctx context.Context, id, recipientUserID string) error

	// UpdateImage は画像名とJSONドキュメントのみを更新する。
	// 保存後にストレージバックエンドがパスを書き換えた場合に使用する。
	UpdateImage(ctx context.Context, id, imageName string, doc map[string]any) error

	// CountByBadgeClassID は指定BadgeClassを参照するBadgeInstanceの件数を返す。
	CountByBadgeClassID(ctx context.Context, badgeClassID string) (int, error)
}

// UserRepository は受領者ユーザーの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}
