package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// PostgresIssuerRepo はPostgreSQLを使用したIssuerリポジトリ。
type PostgresIssuerRepo struct {
	db *sql.DB
}

// NewPostgresIssuerRepo はPostgresIssuerRepoを生成する。
func NewPostgresIssuerRepo(db *sql.DB) *PostgresIssuerRepo {
	return &PostgresIssuerRepo{db: db}
}

// FindByID は指定IDのIssuerを取得する。見つからない場合はnilを返す。
func (r *PostgresIssuerRepo) FindByID(ctx context.Context, id string) (*model.Issuer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, url, json, errors, created_at, updated_at
		 FROM issuers WHERE id = $1`,
		id,
	)
	issuer, err := scanIssuer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Issuerの取得に失敗しました: %w", err)
	}
	return issuer, nil
}

// FindByURL は正規URLでIssuerを検索する。見つからない場合はnilを返す。
func (r *PostgresIssuerRepo) FindByURL(ctx context.Context, url string) (*model.Issuer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, url, json, errors, created_at, updated_at
		 FROM issuers WHERE url = $1`,
		url,
	)
	issuer, err := scanIssuer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("URLによるIssuerの検索に失敗しました: %w", err)
	}
	return issuer, nil
}

// Create はIssuerを作成する。
func (r *PostgresIssuerRepo) Create(ctx context.Context, issuer *model.Issuer) error {
	doc, err := marshalDoc(issuer.JSON)
	if err != nil {
		return err
	}
	errs, err := marshalErrors(issuer.Errors)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO issuers (id, url, json, errors, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		issuer.ID, issuer.URL, doc, errs, issuer.CreatedAt, issuer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Issuerの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのIssuerを削除する。
func (r *PostgresIssuerRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM issuers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Issuerの削除に失敗しました: %w", err)
	}
	return nil
}

// scanIssuer は1行分のIssuerを読み取る。
func scanIssuer(row *sql.Row) (*model.Issuer, error) {
	issuer := &model.Issuer{}
	var doc, errs []byte

	if err := row.Scan(
		&issuer.ID, &issuer.URL, &doc, &errs,
		&issuer.CreatedAt, &issuer.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if issuer.JSON, err = unmarshalDoc(doc); err != nil {
		return nil, err
	}
	if issuer.Errors, err = unmarshalErrors(errs); err != nil {
		return nil, err
	}
	return issuer, nil
}

// compile-time interface check
var _ IssuerRepository = (*PostgresIssuerRepo)(nil)
