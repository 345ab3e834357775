// Command shopping applies the shopping schema migrations.
//
//	go run ./migrations/shopping [up|down|status]
package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/ghuser/mealplanner/pkg/config"
	"github.com/ghuser/mealplanner/pkg/database"
	"github.com/ghuser/mealplanner/pkg/logger"
	"github.com/ghuser/mealplanner/pkg/migrator"
)

//go:embed *.sql
var migrationsFS embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg).With("component", "migrations", "schema", "shopping")
	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := migrator.New(db.DB(), migrationsFS, log)
	if err != nil {
		return err
	}

	switch cmd := command(os.Args[1:]); cmd {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "status":
		return m.Status(ctx)
	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", cmd)
	}
}

// command is the first positional argument, defaulting to up. Configuration
// comes from the environment, so flags are skipped.
func command(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return "up"
}
