// Command echosoul is a local command-line interface to the EchoSoul memory
// core: store and retrieve memories, inspect the vault and the emotional
// timeline, and run conversation turns against a user's profile.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/echosoul/echosoul/internal/backup"
	"github.com/echosoul/echosoul/internal/config"
	"github.com/echosoul/echosoul/internal/crypto"
	"github.com/echosoul/echosoul/internal/emotion"
	"github.com/echosoul/echosoul/internal/engine"
	"github.com/echosoul/echosoul/internal/importer"
	"github.com/echosoul/echosoul/internal/llm"
	"github.com/echosoul/echosoul/internal/logger"
	"github.com/echosoul/echosoul/internal/notify"
	"github.com/echosoul/echosoul/internal/storage"
	"github.com/echosoul/echosoul/internal/storage/postgres"
	"github.com/echosoul/echosoul/internal/storage/sqlite"
	"github.com/echosoul/echosoul/pkg/types"
)

const usage = `Usage: echosoul [flags] <command> [command flags]

Commands:
  store      store a memory (plain or vault)
  retrieve   similarity search over stored memories
  timeline   list memories in a time range
  vault      list decrypted vault memories
  stats      emotional statistics and insights over a time range
  turn       process one conversation turn
  count      number of stored plain memories
  profile    show the personality profile
  set-trait  overwrite one personality trait
  reindex    rebuild missing index entries (use -watch to keep running)
  import     bulk-load memories from a JSON export file
  backup     snapshot the sqlite database (and prune old snapshots)
  restore    restore the sqlite database from a snapshot

Flags:
  -user      user ID (required)
  -config    path to a YAML config file (optional, env vars otherwise)
`

func main() {
	userID := flag.String("user", "", "user ID")
	configPath := flag.String("config", "", "path to config file (optional, uses env vars by default)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *userID == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFile(*configPath)
		if err != nil {
			fatal(err)
		}
	} else {
		cfg = config.LoadConfig()
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	log := logger.New("echosoul", cfg.Logging.Level, cfg.Logging.Pretty)

	app, err := openApp(cfg, *userID, log)
	if err != nil {
		fatal(err)
	}
	defer app.close()

	ctx := context.Background()
	if err := app.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "echosoul: %v\n", err)
	os.Exit(1)
}

// app holds the wired-up core for one invocation.
type app struct {
	engine  *engine.Engine
	store   storage.MemoryStore
	markers *notify.Markers
	dbPath  string // empty for the postgres engine
	log     zerolog.Logger
	close   func()
}

func openApp(cfg *config.Config, userID string, log zerolog.Logger) (*app, error) {
	embedder, err := llm.NewEmbeddingGenerator(cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}

	// The classifier is optional: without one every memory reads neutral.
	var classifier llm.TextClassifier
	if cfg.LLM.ClassifierURL != "" {
		classifier, err = llm.NewTextClassifier(cfg.ProviderConfig())
		if err != nil {
			return nil, err
		}
	}
	analyzer := emotion.NewAnalyzer(classifier, log)

	cipher, err := crypto.New(userID, cfg.Security.EncryptionSecret)
	if err != nil {
		return nil, err
	}

	var (
		store    storage.MemoryStore
		profiles storage.ProfileStore
		markers  *notify.Markers
		dbPath   string
		closer   func()
	)
	switch cfg.Storage.Engine {
	case "postgres":
		db, err := postgres.Open(cfg.Storage.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		store = postgres.NewMemoryStore(db, userID, embedder, cipher, log)
		profiles = postgres.NewProfileStore(db)
		closer = func() { db.Close() }
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
			return nil, err
		}
		dbPath = filepath.Join(cfg.Storage.DataPath, "echosoul.db")
		db, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, err
		}
		markers, err = notify.NewMarkers(cfg.Storage.DataPath)
		if err != nil {
			db.Close()
			return nil, err
		}
		store = sqlite.NewMemoryStore(db, userID, embedder, cipher, markers, log)
		profiles = sqlite.NewProfileStore(db)
		closer = func() { db.Close() }
	}

	return &app{
		engine:  engine.New(userID, store, profiles, analyzer, log),
		store:   store,
		markers: markers,
		dbPath:  dbPath,
		log:     log,
		close:   closer,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "store":
		return a.cmdStore(ctx, args)
	case "retrieve":
		return a.cmdRetrieve(ctx, args)
	case "timeline":
		return a.cmdTimeline(ctx, args)
	case "vault":
		return a.cmdVault(ctx)
	case "stats":
		return a.cmdStats(ctx, args)
	case "turn":
		return a.cmdTurn(ctx, args)
	case "count":
		return a.cmdCount(ctx)
	case "profile":
		return a.cmdProfile(ctx)
	case "set-trait":
		return a.cmdSetTrait(ctx, args)
	case "reindex":
		return a.cmdReindex(ctx, args)
	case "import":
		return a.cmdImport(ctx, args)
	case "backup":
		return a.cmdBackup(args)
	case "restore":
		return a.cmdRestore(args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdStore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	kind := fs.String("kind", "", "memory kind (conversation, event, journal, vault-*)")
	title := fs.String("title", "", "memory title")
	content := fs.String("content", "", "memory content (required)")
	tags := fs.String("tags", "", "comma-separated tags")
	fs.Parse(args)

	if *content == "" {
		return fmt.Errorf("store: -content is required")
	}

	memory := &types.Memory{
		Kind:    types.MemoryKind(*kind),
		Title:   *title,
		Content: *content,
	}
	if *tags != "" {
		memory.Tags = strings.Split(*tags, ",")
	}

	id, err := a.engine.StoreMemory(ctx, memory, memory.Kind.IsVault())
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func (a *app) cmdRetrieve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	query := fs.String("query", "", "search query (required)")
	limit := fs.Int("limit", 5, "maximum results")
	kind := fs.String("kind", "", "restrict to one memory kind")
	fs.Parse(args)

	results, err := a.engine.RetrieveMemories(ctx, *query, storage.RetrieveOptions{
		Limit: *limit,
		Kind:  types.MemoryKind(*kind),
	})
	if err != nil {
		return err
	}
	return printJSON(results)
}

func (a *app) cmdTimeline(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ExitOnError)
	from := fs.String("from", "", "start date (RFC 3339 or 2006-01-02)")
	to := fs.String("to", "", "end date (RFC 3339 or 2006-01-02)")
	fs.Parse(args)

	r, err := parseRange(*from, *to)
	if err != nil {
		return err
	}
	memories, err := a.engine.ListTimeline(ctx, r)
	if err != nil {
		return err
	}
	return printJSON(memories)
}

func (a *app) cmdVault(ctx context.Context) error {
	memories, err := a.engine.ListVaultMemories(ctx)
	if err != nil {
		return err
	}
	return printJSON(memories)
}

func (a *app) cmdStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	from := fs.String("from", "", "start date (RFC 3339 or 2006-01-02)")
	to := fs.String("to", "", "end date (RFC 3339 or 2006-01-02)")
	fs.Parse(args)

	r, err := parseRange(*from, *to)
	if err != nil {
		return err
	}
	stats, err := a.engine.ComputeTimelineStatistics(ctx, r)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func (a *app) cmdTurn(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("turn", flag.ExitOnError)
	text := fs.String("text", "", "the utterance to process (required)")
	fs.Parse(args)

	result, err := a.engine.ProcessTurn(ctx, *text)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) cmdCount(ctx context.Context) error {
	n, err := a.engine.CountMemories(ctx)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func (a *app) cmdProfile(ctx context.Context) error {
	prof, err := a.engine.GetOrCreateProfile(ctx)
	if err != nil {
		return err
	}
	return printJSON(prof)
}

func (a *app) cmdSetTrait(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-trait", flag.ExitOnError)
	name := fs.String("name", "", "trait name (required)")
	level := fs.String("level", "", "enumerated level value")
	freq := fs.Float64("freq", 0, "numeric frequency value")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("set-trait: -name is required")
	}
	value := types.LevelTrait(*level)
	if *level == "" {
		value = types.FrequencyTrait(*freq)
	}
	return a.engine.SetTrait(ctx, *name, value)
}

func (a *app) cmdReindex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	watch := fs.Bool("watch", false, "keep running and re-index as markers appear")
	fs.Parse(args)

	n, err := a.store.ReindexPending(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("reindexed %d\n", n)

	if !*watch {
		return nil
	}
	if a.markers == nil {
		return fmt.Errorf("reindex: -watch requires the sqlite engine")
	}

	watcher := notify.NewWatcher(a.markers, func() {
		if _, err := a.store.ReindexPending(context.Background()); err != nil {
			a.log.Warn().Err(err).Msg("re-index sweep failed")
		}
	}, a.log)
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "JSON export file (required)")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("import: -file is required")
	}
	result, err := importer.New(a.engine, a.log).ImportFile(ctx, *file)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) cmdBackup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dir := fs.String("dir", "", "snapshot directory (default {data}/snapshots)")
	keep := fs.Int("keep", 7, "snapshots to keep after pruning")
	fs.Parse(args)

	s, err := a.snapshotter(*dir)
	if err != nil {
		return err
	}
	path, err := s.Create()
	if err != nil {
		return err
	}
	if _, err := s.Prune(*keep); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func (a *app) cmdRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	file := fs.String("file", "", "snapshot file (required)")
	dir := fs.String("dir", "", "snapshot directory (default {data}/snapshots)")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("restore: -file is required")
	}
	s, err := a.snapshotter(*dir)
	if err != nil {
		return err
	}
	// The live handle must be closed before the file is overwritten.
	a.close()
	a.close = func() {}
	return s.Restore(*file)
}

func (a *app) snapshotter(dir string) (*backup.Snapshotter, error) {
	if a.dbPath == "" {
		return nil, fmt.Errorf("snapshots require the sqlite engine")
	}
	if dir == "" {
		dir = filepath.Join(filepath.Dir(a.dbPath), "snapshots")
	}
	return backup.NewSnapshotter(a.dbPath, dir, a.log)
}

func parseRange(from, to string) (storage.TimelineRange, error) {
	var r storage.TimelineRange
	if from != "" {
		t, err := parseTime(from)
		if err != nil {
			return r, fmt.Errorf("bad -from: %w", err)
		}
		r.Start = &t
	}
	if to != "" {
		t, err := parseTime(to)
		if err != nil {
			return r, fmt.Errorf("bad -to: %w", err)
		}
		r.End = &t
	}
	return r, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
