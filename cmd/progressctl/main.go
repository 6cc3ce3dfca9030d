package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"wellness-rewards-system/config"
	"wellness-rewards-system/services"
	"wellness-rewards-system/store"
	"wellness-rewards-system/utils"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Context is handed to every command's Run.
type Context struct {
	Ctx  context.Context
	Log  *zap.SugaredLogger
	Open func() (store.Gateway, error)
}

type LevelCmd struct {
	Points int64 `arg:"" help:"Points total."`
}

func (c *LevelCmd) Run(app *Context) error {
	level := services.LevelOf(c.Points)
	if next, ok := services.NextLevelAt(level); ok {
		fmt.Printf("level %d (%d points to level %d)\n", level, next-c.Points, level+1)
		return nil
	}
	fmt.Printf("level %d (max)\n", level)
	return nil
}

type ReconcileCmd struct{}

func (c *ReconcileCmd) Run(app *Context) error {
	gw, err := app.Open()
	if err != nil {
		return err
	}
	report, err := services.NewLedgerReconciler(gw, app.Log).Reconcile(app.Ctx)
	if report != nil {
		printJSON(report)
	}
	return err
}

type RebuildHabitCmd struct {
	HabitID string `arg:"" name:"habit-id" help:"Habit to rebuild."`
}

func (c *RebuildHabitCmd) Run(app *Context) error {
	gw, err := app.Open()
	if err != nil {
		return err
	}
	engine := services.NewProgressionEngine(gw, services.NewCalendar(clockwork.NewRealClock(), nil), app.Log)
	habit, err := engine.RebuildHabit(app.Ctx, c.HabitID)
	if err != nil {
		return err
	}
	printJSON(habit)
	return nil
}

var CLI struct {
	EnvFile  string `help:"Path to a .env file." default:".env" type:"path"`
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`

	Level        LevelCmd        `cmd:"" help:"Show the level for a points total."`
	Reconcile    ReconcileCmd    `cmd:"" help:"Rewrite cached totals that drifted from the ledger."`
	RebuildHabit RebuildHabitCmd `cmd:"" help:"Re-derive a habit's streak from its completions."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("progressctl"),
		kong.Description("Maintenance commands for the wellness rewards service"),
		kong.UsageOnError(),
	)

	logger, err := utils.NewLogger("production", CLI.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := &Context{
		Ctx: context.Background(),
		Log: logger,
		Open: func() (store.Gateway, error) {
			return openGateway(CLI.EnvFile)
		},
	}
	if err := kctx.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openGateway(envFile string) (store.Gateway, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if cfg.StorageBackend != config.BackendPostgres || cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("progressctl needs STORAGE_BACKEND=postgres and DATABASE_URL")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return store.NewGormGateway(db), nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
