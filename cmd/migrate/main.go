package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/gatejohn/internal/config"
)

// Runner mínimo de migraciones: aplica *_up.sql en orden ascendente y
// *_down.sql en orden inverso. Sin tabla de versiones; los scripts son
// idempotentes (IF NOT EXISTS / IF EXISTS).
func main() {
	var (
		configPath = flag.String("config", "config.yaml", "ruta del YAML de configuración")
		dir        = flag.String("dir", "migrations/postgres", "directorio con *_up.sql / *_down.sql")
	)
	flag.Parse()
	_ = godotenv.Load()

	action := "up"
	steps := 0
	if args := flag.Args(); len(args) >= 1 {
		action = strings.ToLower(args[0])
		if len(args) >= 2 {
			if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
				steps = n
			}
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	var files []string
	switch action {
	case "up":
		files, err = listSQL(*dir, "_up.sql")
	case "down":
		files, err = listSQL(*dir, "_down.sql")
	default:
		log.Fatalf("acción desconocida %q (up | down [pasos])", action)
	}
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	sort.Strings(files)
	if action == "down" {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}
	if len(files) == 0 {
		log.Println("sin migraciones que aplicar")
		return
	}

	for _, f := range files {
		if err := execSQLFile(ctx, pool, f); err != nil {
			log.Fatalf("%s: %v", filepath.Base(f), err)
		}
	}
	log.Printf("%s completado (%d archivo(s))", action, len(files))
}

func listSQL(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func execSQLFile(ctx context.Context, pool *pgxpool.Pool, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	start := time.Now()
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	log.Printf("OK %s (%s)", filepath.Base(path), time.Since(start).Truncate(time.Millisecond))
	return nil
}
