package itf

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/brightacademy/backoffice/modules"
	"github.com/brightacademy/backoffice/pkg/application"
	"github.com/brightacademy/backoffice/pkg/configuration"
	"github.com/brightacademy/backoffice/pkg/eventbus"
)

func NewPool(dbOpts string) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	config, err := pgxpool.ParseConfig(dbOpts)
	if err != nil {
		panic(err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Minute * 5
	config.MaxConnIdleTime = time.Second * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		panic(fmt.Errorf("failed to create database pool: %w", err))
	}
	return pool
}

// PostgreSQL limits database names to 63 bytes; longer test names get a
// hash suffix for uniqueness.
const (
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

func sanitizeDBName(name string) string {
	sanitized := strings.ToLower(name)
	for _, ch := range []string{"/", " ", "-", ".", "(", ")", "[", "]"} {
		sanitized = strings.ReplaceAll(sanitized, ch, "_")
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	hasher := sha256.New()
	hasher.Write([]byte(name))
	hash := fmt.Sprintf("%x", hasher.Sum(nil))[:8]
	return sanitized[:maxDBNameLength-hashSuffixLength] + "_" + hash
}

func adminConnStr() string {
	c := configuration.Use()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=postgres password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
	)
}

// SkipIfNoDatabase skips the test when no postgres is reachable, unless CI is
// set, in which case a missing database is a failure.
func SkipIfNoDatabase(tb testing.TB) {
	tb.Helper()
	db, err := sql.Open("postgres", adminConnStr())
	if err == nil {
		err = db.Ping()
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("[WARNING] error closing probe connection: %v", closeErr)
		}
	}
	if err == nil {
		return
	}
	if os.Getenv("CI") != "" {
		tb.Fatalf("postgres is required in CI: %v", err)
	}
	tb.Skipf("postgres unavailable: %v", err)
}

func CreateDB(name string) {
	sanitizedName := sanitizeDBName(name)

	db, err := sql.Open("postgres", adminConnStr())
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("[WARNING] error closing CreateDB connection: %v", err)
		}
	}()
	if _, err := db.ExecContext(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", sanitizedName)); err != nil {
		panic(err)
	}
	if _, err := db.ExecContext(context.Background(), fmt.Sprintf("CREATE DATABASE %s", sanitizedName)); err != nil {
		panic(err)
	}
}

func DbOpts(name string) string {
	c := configuration.Use()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, sanitizeDBName(name), c.Database.Password,
	)
}

func SetupApplication(pool *pgxpool.Pool, mods ...application.Module) (application.Application, error) {
	conf := configuration.Use()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app, mods...); err != nil {
		return nil, err
	}
	if err := app.Migrations().Run(); err != nil {
		return nil, err
	}
	return app, nil
}
