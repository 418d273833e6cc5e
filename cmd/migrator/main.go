package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"

	"github.com/IlyasAtabaev731/khata/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var configPath, dbUrl, migrationsPath, migrationsTable string
	var down bool

	flag.StringVar(&configPath, "config", "", "path to config file, used when -db-url is empty")
	flag.StringVar(&dbUrl, "db-url", "", "postgres connection url")
	flag.StringVar(&migrationsPath, "migrations-path", "./migrations", "path to migrations")
	flag.StringVar(&migrationsTable, "migrations-table", "migrations", "name of migrations table")
	flag.BoolVar(&down, "down", false, "roll back every migration instead of applying them")
	flag.Parse()

	if dbUrl == "" {
		cfg, err := config.Load(config.ResolvePath(configPath))
		if err != nil {
			panic(err)
		}
		dbUrl = cfg.Postgres.URL()
	}
	if migrationsPath == "" {
		panic("migrations path is required")
	}

	u, err := url.Parse(dbUrl)
	if err != nil {
		panic(fmt.Sprintf("invalid db url: %v", err))
	}
	q := u.Query()
	q.Set("x-migrations-table", migrationsTable)
	u.RawQuery = q.Encode()

	m, err := migrate.New("file://"+migrationsPath, u.String())
	if err != nil {
		panic(err)
	}

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")
			return
		}
		panic(err)
	}

	if down {
		fmt.Println("migrations rolled back successfully")
		return
	}
	fmt.Println("migrations applied successfully")
}
