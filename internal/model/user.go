// Package model はドメインモデルを定義する。
package model

import "time"

// User はバッジ受領者として解決されるサービス利用ユーザーを表す。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
