package database

import (
	"packly/internal/bags"
	"packly/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&users.Account{},
		&users.RolePermission{},
		&bags.Bag{},
		&bags.Item{},
	)
}
