package main

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teamflow/teamflow/internal/config"
)

// One-off maintenance script. The is_online flag is a projection of live
// websocket connections; an unclean server exit can leave users marked
// online with no connection behind them. Run this after a crash to clear
// the stale flags before restarting the server.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	default:
		fmt.Printf("Unsupported database driver: %s\n", cfg.Database.Driver)
		os.Exit(1)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	res := db.Table("users").Where("is_online = ?", true).Update("is_online", false)
	if res.Error != nil {
		fmt.Printf("Failed to reset presence flags: %v\n", res.Error)
		os.Exit(1)
	}

	fmt.Printf("Cleared online flag for %d user(s)\n", res.RowsAffected)
}
