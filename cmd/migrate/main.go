package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"timebank/internal/config"
	"timebank/internal/db"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding .sql migration files")
	status := flag.Bool("status", false, "list applied and pending migrations without running anything")
	flag.Parse()

	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		log.Fatalf("failed to ensure schema_migrations: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		log.Fatalf("failed to read migrations: %v", err)
	}
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)
		var applied bool
		if err := database.Get(&applied, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			log.Fatalf("failed to read migration state: %v", err)
		}
		if *status {
			state := "pending"
			if applied {
				state = "applied"
			}
			fmt.Printf("%-8s %s\n", state, filename)
			continue
		}
		if applied {
			continue
		}
		if err := apply(database, file, filename); err != nil {
			log.Fatalf("failed to apply %s: %v", filename, err)
		}
		fmt.Printf("applied %s\n", filename)
	}
}

// apply runs the up section of one migration file and records it, all in a
// single transaction, so a failing statement leaves no partial schema.
func apply(database *sqlx.DB, path, filename string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	up, _, _ := strings.Cut(string(content), "-- +migrate Down")
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(up) {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// splitStatements cuts a migration section into individual statements on
// semicolons, dropping comment lines. Good enough for DDL; not a SQL parser.
func splitStatements(section string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(section))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.Contains(line, ";") {
			if strings.TrimSpace(current.String()) != "" {
				statements = append(statements, current.String())
			}
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
