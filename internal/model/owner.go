// internal/model/owner.go
package model

import "gorm.io/gorm"

// Owner はデータの所有者キー。認証済みユーザーのUserIDか、
// 匿名セッションのSessionIDのどちらか一方だけを必ず持つ。
type Owner struct {
	UserID    *string `gorm:"column:user_id;index" json:"-"`
	SessionID *string `gorm:"column:session_id;index" json:"-"`
}

// AuthenticatedOwner は認証済みユーザーの所有者キーを生成します
func AuthenticatedOwner(userID string) Owner {
	return Owner{UserID: &userID}
}

// AnonymousOwner は匿名セッションの所有者キーを生成します
func AnonymousOwner(sessionID string) Owner {
	return Owner{SessionID: &sessionID}
}

// Valid はどちらか一方のIDだけが設定されているかを検証します
func (o Owner) Valid() bool {
	if o.UserID != nil && o.SessionID != nil {
		return false
	}
	if o.UserID != nil {
		return *o.UserID != ""
	}
	return o.SessionID != nil && *o.SessionID != ""
}

func (o Owner) IsAuthenticated() bool {
	return o.UserID != nil
}

// Scope は所有者によるWHERE句を付与するGORMスコープ。
// バリアントに応じて user_id / session_id のどちらかで絞り込む。
func (o Owner) Scope(db *gorm.DB) *gorm.DB {
	if o.UserID != nil {
		return db.Where("user_id = ?", *o.UserID)
	}
	if o.SessionID != nil {
		return db.Where("session_id = ?", *o.SessionID)
	}
	// 不正なOwnerは何にもマッチさせない
	return db.Where("1 = 0")
}

// String はログ出力用の表現を返します (IDそのものは含めてよい)
func (o Owner) String() string {
	if o.UserID != nil {
		return "user:" + *o.UserID
	}
	if o.SessionID != nil {
		return "session:" + *o.SessionID
	}
	return "owner:invalid"
}

type ContextKey string

const (
	OwnerKey ContextKey = "owner"
)
