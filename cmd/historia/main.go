package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/historia/internal/console"
	"github.com/pavelanni/historia/internal/content"
	"github.com/pavelanni/historia/internal/handler"
	appI18n "github.com/pavelanni/historia/internal/i18n"
	"github.com/pavelanni/historia/internal/model"
	"github.com/pavelanni/historia/internal/quiz"
	"github.com/pavelanni/historia/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "historia",
		Short: "History quiz game with lives, score and a save slot",
	}

	serve := serveCmd()
	root.AddCommand(serve, playCmd(), exportCmd(), resetCmd(), draftCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `historia --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addGameFlags(cmd *cobra.Command, logLevel string) {
	f := cmd.Flags()
	f.String("db", "historia.db", "SQLite database path")
	f.StringP("catalog", "c", content.DefaultCatalog, "Catalog name (historia, extendida) or path to a JSON file")
	f.StringP("lang", "l", "es", "UI language (es, en)")
	f.Duration("advance-delay", defaultAdvanceDelay, "Pause between answer feedback and the next question")
	f.String("log-level", logLevel, "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

const defaultAdvanceDelay = 700 * time.Millisecond

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	addGameFlags(cmd, "info")
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /historia)")
	return cmd
}

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE:  runPlay,
	}
	addGameFlags(cmd, "warn")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the saved game as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "historia.db", "SQLite database path")
	f.StringP("catalog", "c", "", "Catalog used to name the saved position (default: the one recorded with the save)")
	f.StringP("lang", "l", "es", "Language for the no saved game message")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved game",
		RunE:  runReset,
	}
	f := cmd.Flags()
	f.String("db", "historia.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("HISTORIA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("historia")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/historia")
	v.AddConfigPath("/etc/historia")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openGame opens the database and the configured catalog and records the catalog
// against the save slot.
func openGame(v *viper.Viper) (*store.Store, *content.Catalog, error) {
	catalogName := v.GetString("catalog")
	catalog, err := content.Open(catalogName)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := recordCatalog(db, catalogName, catalog); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("record catalog: %w", err)
	}
	return db, catalog, nil
}

func recordCatalog(db *store.Store, name string, catalog *content.Catalog) error {
	prev, err := db.GetCatalogInfo()
	if err != nil {
		return err
	}
	fp := catalog.Fingerprint()
	if prev.Fingerprint == fp && prev.Name == name {
		return nil
	}
	_, saved, err := db.Get(quiz.SaveKey)
	if err != nil {
		return err
	}
	if saved && prev.Fingerprint != "" && prev.Fingerprint != fp {
		slog.Warn("catalog changed since the game was saved, a resumed game may point at different questions",
			"previous", prev.Name, "current", name)
	}
	return db.SetCatalogInfo(model.CatalogInfo{Name: name, Fingerprint: fp})
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, catalog, err := openGame(v)
	if err != nil {
		return err
	}
	defer db.Close()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	gameCfg := model.GameConfig{
		Catalog:      v.GetString("catalog"),
		Lang:         lang,
		AdvanceDelay: v.GetDuration("advance-delay"),
		BasePath:     basePath,
	}
	h := handler.New(quiz.NewSession(catalog, db), gameCfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"catalog", gameCfg.Catalog,
		"periods", catalog.Len(),
		"lang", lang,
		"advance_delay", gameCfg.AdvanceDelay,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runPlay(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, catalog, err := openGame(v)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx = appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(lang))

	p := console.New(quiz.NewSession(catalog, db), cmd.InOrStdin(), cmd.OutOrStdout(), v.GetDuration("advance-delay"))
	err = p.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	entry, err := db.GetEntry(quiz.SaveKey)
	if err != nil {
		return fmt.Errorf("read save slot: %w", err)
	}
	if entry == nil {
		fmt.Fprintln(cmd.OutOrStdout(), appI18n.T(cmd.Context(), "NoSavedGame"))
		return nil
	}

	info, err := db.GetCatalogInfo()
	if err != nil {
		return fmt.Errorf("read catalog info: %w", err)
	}
	catalogName := v.GetString("catalog")
	if catalogName == "" {
		catalogName = info.Name
	}
	if catalogName == "" {
		catalogName = content.DefaultCatalog
	}
	catalog, err := content.Open(catalogName)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	export, err := buildExport(entry, catalogName, catalog, db)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

// buildExport resumes the saved record into a throwaway session to resolve names and phase.
func buildExport(entry *store.Entry, catalogName string, catalog *content.Catalog, st quiz.Store) (model.SaveExport, error) {
	sess := quiz.NewSession(catalog, st)
	if _, err := sess.Resume(); err != nil {
		return model.SaveExport{}, fmt.Errorf("resume saved game: %w", err)
	}
	state := sess.State()
	status := sess.Status()

	export := model.SaveExport{
		Key:                  entry.Key,
		SavedAt:              entry.UpdatedAt,
		Catalog:              catalogName,
		CurrentPeriodIndex:   state.PeriodIndex,
		CurrentQuestionIndex: state.QuestionIndex,
		Lives:                state.Lives,
		Score:                state.Score,
		PeriodName:           status.PeriodName,
		LevelName:            status.LevelName,
		Phase:                string(status.Phase),
	}
	if p, err := catalog.Period(state.PeriodIndex); err == nil {
		export.QuestionsInLevel = len(p.Level.Questions)
	}
	return export, nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Delete(quiz.SaveKey); err != nil {
		return fmt.Errorf("delete saved game: %w", err)
	}
	slog.Info("saved game deleted", "db", v.GetString("db"))
	return nil
}
