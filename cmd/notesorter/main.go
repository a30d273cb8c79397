// notesorter — извлекает текст из заметок, отчётов и записей,
// раскладывает их по категориям и отправляет итог во внешний сервис.
//
// Использование:
//
//	notesorter run                 # полный запуск
//	notesorter run --force-refresh # переклассифицировать всё заново
//	notesorter run --tui           # прогресс в Bubble Tea интерфейсе
//	notesorter report --submit     # пересобрать отчёт из кэша
//	notesorter cache               # показать содержимое кэша
//	notesorter ls                  # файлы источника и их типы
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ilkoid/notesorter/internal/pipeline"
	"github.com/ilkoid/notesorter/internal/ui"
	"github.com/ilkoid/notesorter/pkg/cache"
	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/events"
	"github.com/ilkoid/notesorter/pkg/filekind"
	"github.com/ilkoid/notesorter/pkg/source"
	"github.com/ilkoid/notesorter/pkg/utils"
)

const (
	appTitle    = "notesorter"
	plainWidth  = 80
	previewSize = 60
)

var (
	configPath string

	forceRefresh bool
	noSubmit     bool
	useTUI       bool
	dirOverride  string

	reportSubmit bool
)

var rootCmd = &cobra.Command{
	Use:           "notesorter",
	Short:         "Extract, classify and report a folder of notes, recordings and scans",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract text from every file, classify it and submit the report",
	RunE:  runPipeline,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Rebuild the report from the cache without calling any model",
	RunE:  runReport,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Print cached entries",
	RunE:  runCache,
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List source files with their detected kind",
	RunE:  runList,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")

	runCmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "re-classify files that already have a category")
	runCmd.Flags().BoolVar(&noSubmit, "no-submit", false, "write the report but do not send it")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show progress in an interactive terminal UI")
	runCmd.Flags().StringVar(&dirOverride, "dir", "", "override source.dir (local source only)")

	reportCmd.Flags().BoolVar(&reportSubmit, "submit", false, "send the rebuilt report")

	lsCmd.Flags().StringVar(&dirOverride, "dir", "", "override source.dir (local source only)")

	rootCmd.AddCommand(runCmd, reportCmd, cacheCmd, lsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup загружает .env и config.yaml, инициализирует логгер.
//
// Возвращаемая функция снимает обработчик сигналов и закрывает лог.
func setup() (*config.AppConfig, context.Context, func(), error) {
	// .env не обязателен: ключи могут прийти из окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: .env: %v\n", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := utils.InitLogger(cfg.App.LogDir, cfg.App.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	utils.Info("Config loaded", "path", configPath, "source", cfg.Source.Type, "cache", cfg.Cache.Backend)

	ctx, shutdown := utils.SetupGracefulShutdownWithContext(context.Background())
	return cfg, ctx, shutdown, nil
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, ctx, shutdown, err := setup()
	if err != nil {
		return err
	}
	defer shutdown()

	if err := applyDirOverride(cfg); err != nil {
		return err
	}

	emitter := events.NewChanEmitter(100)
	comps, err := buildComponents(cfg, !noSubmit, emitter)
	if err != nil {
		return err
	}
	defer comps.Close()

	opts := pipeline.Options{ForceRefresh: forceRefresh, Submit: !noSubmit}
	res, err := drive(ctx, emitter, cmd.OutOrStdout(), func(ctx context.Context) (*pipeline.Result, error) {
		return comps.pipeline.Run(ctx, opts)
	})
	return finalize(res, err)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, ctx, shutdown, err := setup()
	if err != nil {
		return err
	}
	defer shutdown()

	emitter := events.NewChanEmitter(16)
	comps, err := buildReportComponents(cfg, reportSubmit, emitter)
	if err != nil {
		return err
	}
	defer comps.Close()

	opts := pipeline.Options{Submit: reportSubmit}
	res, err := drive(ctx, emitter, cmd.OutOrStdout(), func(ctx context.Context) (*pipeline.Result, error) {
		return comps.pipeline.Report(ctx, opts)
	})
	return finalize(res, err)
}

func runCache(cmd *cobra.Command, _ []string) error {
	cfg, ctx, shutdown, err := setup()
	if err != nil {
		return err
	}
	defer shutdown()

	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}
	printCache(cmd.OutOrStdout(), c, filekind.New(cfg.FileRules))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, ctx, shutdown, err := setup()
	if err != nil {
		return err
	}
	defer shutdown()

	if err := applyDirOverride(cfg); err != nil {
		return err
	}

	src, err := source.New(cfg)
	if err != nil {
		return err
	}
	files, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("list %s: %w", src, err)
	}

	printFiles(cmd.OutOrStdout(), src.String(), files, filekind.New(cfg.FileRules))
	return nil
}

func applyDirOverride(cfg *config.AppConfig) error {
	if dirOverride == "" {
		return nil
	}
	if cfg.Source.Type != config.SourceLocal {
		return fmt.Errorf("--dir requires source.type=%s", config.SourceLocal)
	}
	cfg.Source.Dir = dirOverride
	return nil
}

// drive запускает fn в отдельной горутине и показывает её события:
// в TUI при --tui, иначе построчно в out.
//
// Emitter закрывается, когда fn вернулась, и это завершает интерфейс.
func drive(ctx context.Context, emitter *events.ChanEmitter, out io.Writer, fn func(context.Context) (*pipeline.Result, error)) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		res    *pipeline.Result
		runErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer emitter.Close()
		res, runErr = fn(ctx)
	}()

	sub := emitter.Subscribe()
	if useTUI {
		if err := ui.Run(appTitle, sub, cancel); err != nil {
			// Интерфейс упал: останавливаем пайплайн и дочитываем канал
			utils.Error("TUI failed", "error", err)
			cancel()
			for range sub.Events() {
			}
		}
	} else {
		ui.Plain(out, sub, plainWidth)
	}

	wg.Wait()
	return res, runErr
}

// finalize превращает результат запуска в код выхода.
func finalize(res *pipeline.Result, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			utils.Warn("Run interrupted, cache keeps the progress")
			return fmt.Errorf("interrupted")
		}
		utils.Error("Run failed", "error", err)
		return err
	}

	for _, f := range res.Failures {
		fmt.Fprintf(os.Stderr, "%s\n", f.Error())
	}
	utils.Info("Run finished",
		"run_id", res.RunID,
		"files", res.Files,
		"failed", len(res.Failures),
		"report", res.ReportPath,
		"submitted", res.Submitted)
	return nil
}

func printFiles(w io.Writer, origin string, files []source.File, detector *filekind.Detector) {
	fmt.Fprintf(w, "%s: %d files\n", origin, len(files))
	for _, f := range files {
		fmt.Fprintf(w, "%-24s %-8s %d\n", f.Name, detector.Detect(f.Name), f.Size)
	}
}

// printCache печатает по строке на файл: имя, тип, категория, начало текста.
func printCache(w io.Writer, c cache.Cache, detector *filekind.Detector) {
	if len(c) == 0 {
		fmt.Fprintln(w, "cache is empty")
		return
	}
	for _, key := range c.Keys() {
		rec := c[key]
		category := rec.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%-24s %-8s %-12s %s\n", key, detector.Detect(key), category, utils.Preview(rec.Content, previewSize))
	}
}
