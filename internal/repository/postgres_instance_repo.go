package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// PostgresBadgeInstanceRepo はPostgreSQLを使用したBadgeInstanceリポジトリ。
type PostgresBadgeInstanceRepo struct {
	db *sql.DB
}

// NewPostgresBadgeInstanceRepo はPostgresBadgeInstanceRepoを生成する。
func NewPostgresBadgeInstanceRepo(db *sql.DB) *PostgresBadgeInstanceRepo {
	return &PostgresBadgeInstanceRepo{db: db}
}

// FindByURL は正規URLでBadgeInstanceを検索する。見つからない場合はnilを返す。
func (r *PostgresBadgeInstanceRepo) FindByURL(ctx context.Context, url string) (*model.BadgeInstance, error) {
	inst := &model.BadgeInstance{}
	var badgeClassID, issuerID, recipientUserID, imageName sql.NullString
	var doc, errs []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT id, url, badge_class_id, issuer_id, recipient_id, recipient_user_id,
		        image_name, json, errors, created_at, updated_at
		 FROM badge_instances WHERE url = $1`,
		url,
	).Scan(
		&inst.ID, &inst.URL, &badgeClassID, &issuerID,
		&inst.RecipientID, &recipientUserID,
		&imageName, &doc, &errs, &inst.CreatedAt, &inst.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("URLによるBadgeInstanceの検索に失敗しました: %w", err)
	}

	inst.BadgeClassID = nullStringValue(badgeClassID)
	inst.IssuerID = nullStringValue(issuerID)
	inst.RecipientUserID = nullStringValue(recipientUserID)
	inst.ImageName = nullStringValue(imageName)

	if inst.JSON, err = unmarshalDoc(doc); err != nil {
		return nil, err
	}
	if inst.Errors, err = unmarshalErrors(errs); err != nil {
		return nil, err
	}
	return inst, nil
}

// Create はBadgeInstanceを作成する。
func (r *PostgresBadgeInstanceRepo) Create(ctx context.Context, instance *model.BadgeInstance) error {
	doc, err := marshalDoc(instance.JSON)
	if err != nil {
		return err
	}
	errs, err := marshalErrors(instance.Errors)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO badge_instances (id, url, badge_class_id, issuer_id, recipient_id,
		                              recipient_user_id, image_name, json, errors,
		                              created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		instance.ID, instance.URL,
		nullString(instance.BadgeClassID), nullString(instance.IssuerID),
		instance.RecipientID, nullString(instance.RecipientUserID),
		nullString(instance.ImageName), doc, errs,
		instance.CreatedAt, instance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("BadgeInstanceの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateRecipientUser は受領者ユーザーを後付けする唯一の更新経路。
func (r *PostgresBadgeInstanceRepo) UpdateRecipientUser(ctx context.Context, id, recipientUserID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE badge_instances SET recipient_user_id = $2, updated_at = $3 WHERE id = $1`,
		id, recipientUserID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("受領者ユーザーの更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateImage は画像名とJSONドキュメントのみを更新する。
func (r *PostgresBadgeInstanceRepo) UpdateImage(ctx context.Context, id, imageName string, doc map[string]any) error {
	data, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE badge_instances SET image_name = $2, json = $3, updated_at = $4 WHERE id = $1`,
		id, nullString(imageName), data, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("画像情報の更新に失敗しました: %w", err)
	}
	return nil
}

// CountByBadgeClassID は指定BadgeClassを参照するBadgeInstanceの件数を返す。
func (r *PostgresBadgeInstanceRepo) CountByBadgeClassID(ctx context.Context, badgeClassID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM badge_instances WHERE badge_class_id = $1`,
		badgeClassID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("BadgeInstance参照件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ BadgeInstanceRepository = (*PostgresBadgeInstanceRepo)(nil)
