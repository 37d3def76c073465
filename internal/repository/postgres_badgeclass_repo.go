package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// PostgresBadgeClassRepo はPostgreSQLを使用したBadgeClassリポジトリ。
type PostgresBadgeClassRepo struct {
	db *sql.DB
}

// NewPostgresBadgeClassRepo はPostgresBadgeClassRepoを生成する。
func NewPostgresBadgeClassRepo(db *sql.DB) *PostgresBadgeClassRepo {
	return &PostgresBadgeClassRepo{db: db}
}

// FindByID は指定IDのBadgeClassを取得する。見つからない場合はnilを返す。
func (r *PostgresBadgeClassRepo) FindByID(ctx context.Context, id string) (*model.BadgeClass, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, url, issuer_id, json, errors, created_at, updated_at
		 FROM badge_classes WHERE id = $1`,
		id,
	)
	bc, err := scanBadgeClass(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BadgeClassの取得に失敗しました: %w", err)
	}
	return bc, nil
}

// FindByURL は正規URLでBadgeClassを検索する。見つからない場合はnilを返す。
func (r *PostgresBadgeClassRepo) FindByURL(ctx context.Context, url string) (*model.BadgeClass, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, url, issuer_id, json, errors, created_at, updated_at
		 FROM badge_classes WHERE url = $1`,
		url,
	)
	bc, err := scanBadgeClass(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("URLによるBadgeClassの検索に失敗しました: %w", err)
	}
	return bc, nil
}

// Create はBadgeClassを作成する。
func (r *PostgresBadgeClassRepo) Create(ctx context.Context, badgeClass *model.BadgeClass) error {
	doc, err := marshalDoc(badgeClass.JSON)
	if err != nil {
		return err
	}
	errs, err := marshalErrors(badgeClass.Errors)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO badge_classes (id, url, issuer_id, json, errors, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		badgeClass.ID, badgeClass.URL, badgeClass.IssuerID,
		doc, errs, badgeClass.CreatedAt, badgeClass.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("BadgeClassの作成に失敗しました: %w", err)
	}
	return nil
}

// CountByIssuerID は指定Issuerを参照するBadgeClassの件数を返す。
func (r *PostgresBadgeClassRepo) CountByIssuerID(ctx context.Context, issuerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM badge_classes WHERE issuer_id = $1`,
		issuerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("BadgeClass参照件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// DeleteByID は指定IDのBadgeClassを削除する。
func (r *PostgresBadgeClassRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM badge_classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("BadgeClassの削除に失敗しました: %w", err)
	}
	return nil
}

// scanBadgeClass は1行分のBadgeClassを読み取る。
func scanBadgeClass(row *sql.Row) (*model.BadgeClass, error) {
	bc := &model.BadgeClass{}
	var doc, errs []byte

	if err := row.Scan(
		&bc.ID, &bc.URL, &bc.IssuerID, &doc, &errs,
		&bc.CreatedAt, &bc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if bc.JSON, err = unmarshalDoc(doc); err != nil {
		return nil, err
	}
	if bc.Errors, err = unmarshalErrors(errs); err != nil {
		return nil, err
	}
	return bc, nil
}

// compile-time interface check
var _ BadgeClassRepository = (*PostgresBadgeClassRepo)(nil)
