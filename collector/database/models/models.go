// Package models defines the row-store schema.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Profile is one account row. Credentials are stored as entered; this is a
// hobby deployment behind a trusted network, not an identity provider.
type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	ID         string    `bun:"id,pk"`
	Username   string    `bun:"username,notnull,unique"`
	Password   string    `bun:"password,notnull"`
	Role       string    `bun:"role,notnull,default:'user'"`
	FriendCode string    `bun:"friend_code"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// UserCard is one ownership row: a user's quantity and trade policy for a
// single card. Cards with no row are unowned.
type UserCard struct {
	bun.BaseModel `bun:"table:user_cards"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      string    `bun:"user_id,notnull"`
	CardID      string    `bun:"card_id,notnull"`
	Quantity    int       `bun:"quantity,notnull"`
	MinimumKeep int       `bun:"minimum_keep_count,notnull"`
	AllowTrade  bool      `bun:"allow_trade,notnull,default:true"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
