package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sovieeet/gamevault/internal/config"
	"github.com/sovieeet/gamevault/internal/database"
	"github.com/sovieeet/gamevault/internal/router"
)

func main() {
	createAdmin := flag.Bool("create-admin", false, "create an admin account and exit")
	adminUser := flag.String("admin-user", "admin", "username for -create-admin")
	adminPass := flag.String("admin-pass", "admin", "password for -create-admin")
	resetUsers := flag.Bool("reset-users", false, "drop and recreate the users table, then exit")
	dumpUsers := flag.Bool("dump-users", false, "print all user records and exit")
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// maintenance modes replace the old side scripts; run one and exit
	switch {
	case *resetUsers:
		if err := database.ResetUsers(db); err != nil {
			log.Fatalf("reset users: %v", err)
		}
		log.Println("users table has been reset")
		return
	case *createAdmin:
		if err := database.CreateAdmin(db, *adminUser, *adminPass, cfg.Security.BcryptCost); err != nil {
			log.Fatalf("create admin: %v", err)
		}
		log.Printf("admin user %q created successfully", *adminUser)
		return
	case *dumpUsers:
		users, err := database.DumpUsers(db)
		if err != nil {
			log.Fatalf("dump users: %v", err)
		}
		if len(users) == 0 {
			log.Println("no users found")
			return
		}
		for _, u := range users {
			fmt.Printf("id=%d username=%s role=%s created_at=%s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return
	}

	// setup router
	r := router.SetupRouter(cfg, db)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
