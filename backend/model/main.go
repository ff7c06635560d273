package model

import (
	"os"
	"path/filepath"

	"ferdi-server/backend/common"

	"github.com/burugo/thing"
	redisCache "github.com/burugo/thing/drivers/cache/redis"
	"github.com/burugo/thing/drivers/db/sqlite"
)

func InitDB() (err error) {
	if dir := filepath.Dir(common.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	dbAdapter, err := sqlite.NewSQLiteAdapter(common.SQLitePath)
	if err != nil {
		return err
	}
	var cacheClient thing.CacheClient
	if common.RedisEnabled && common.RDB != nil {
		cacheClient, err = redisCache.NewClient(common.RDB, nil)
		if err != nil {
			return err
		}
	}
	thing.Configure(dbAdapter, cacheClient)

	// 1. AutoMigrate all models first
	err = thing.AutoMigrate(&User{}, &Service{}, &Workspace{}, &Recipe{})
	if err != nil {
		return err
	}

	// 2. Initialize all ORM instances
	if err := UserInit(); err != nil {
		return err
	}
	if err := ServiceInit(); err != nil {
		return err
	}
	if err := WorkspaceInit(); err != nil {
		return err
	}
	if err := RecipeInit(); err != nil {
		return err
	}
	return nil
}

func CloseDB() error {
	// Thing does not need an explicit close; kept for symmetry with InitDB.
	return nil
}
