package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// marshalDoc はJSONドキュメントをJSONBカラム用のバイト列に変換する。
// nilマップは空オブジェクトとして保存する。
func marshalDoc(doc map[string]any) ([]byte, error) {
	if doc == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("JSONドキュメントの変換に失敗しました: %w", err)
	}
	return data, nil
}

// unmarshalDoc はJSONBカラムのバイト列をJSONドキュメントに復元する。
func unmarshalDoc(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("JSONドキュメントの復元に失敗しました: %w", err)
	}
	return doc, nil
}

// marshalErrors はエラーレコードのリストをJSONBカラム用のバイト列に変換する。
// nilスライスは空配列として保存する。
func marshalErrors(errs []model.ErrorDetail) ([]byte, error) {
	if errs == nil {
		errs = []model.ErrorDetail{}
	}
	data, err := json.Marshal(errs)
	if err != nil {
		return nil, fmt.Errorf("エラーレコードの変換に失敗しました: %w", err)
	}
	return data, nil
}

// unmarshalErrors はJSONBカラムのバイト列をエラーレコードのリストに復元する。
func unmarshalErrors(data []byte) ([]model.ErrorDetail, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var errs []model.ErrorDetail
	if err := json.Unmarshal(data, &errs); err != nil {
		return nil, fmt.Errorf("エラーレコードの復元に失敗しました: %w", err)
	}
	return errs, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
