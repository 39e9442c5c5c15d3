// Package main is the yowyob CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/api"
	"github.com/hyperjump/yowyob/internal/auth"
	"github.com/hyperjump/yowyob/internal/cli"
	"github.com/hyperjump/yowyob/internal/config"
	"github.com/hyperjump/yowyob/internal/fallback"
	"github.com/hyperjump/yowyob/internal/geoip"
	"github.com/hyperjump/yowyob/internal/mapper"
	"github.com/hyperjump/yowyob/internal/models"
	"github.com/hyperjump/yowyob/internal/search"
	"github.com/hyperjump/yowyob/internal/server"
	"github.com/hyperjump/yowyob/internal/storage"
	"github.com/hyperjump/yowyob/internal/store"
	"github.com/hyperjump/yowyob/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/yowyob/config.yaml"

// cliSessionID keys the terminal user's auth session in storage.
const cliSessionID = "cli"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When the default path does not exist either, built-in defaults and YOWYOB_* environment
// overrides are used so the client works without any config file.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallbackPath := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallbackPath); statErr == nil {
				cfg, loadErr := config.Load(fallbackPath)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallbackPath, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyEnv(cfg)
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "search":
		runSearch(args)
	case "suggest":
		runSuggest(args)
	case "history":
		runHistory(args)
	case "login":
		runLogin(args)
	case "register":
		runRegister(args)
	case "google":
		runGoogle(args)
	case "logout":
		runLogout(args)
	case "profile":
		runProfile(args)
	case "listings":
		runListings(args)
	case "status":
		runStatus(args)
	case "ip":
		runIP(args)
	case "hash-password":
		runHashPassword(args)
	case "version", "--version", "-v":
		fmt.Printf("yowyob version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Storage  storage.Storage
	Client   *api.Client
	Resolver *geoip.Resolver
	Dataset  *fallback.Dataset
	Index    *fallback.SuggestionIndex
	Engine   *search.Engine
	Auth     *auth.Service
}

func (c *Components) Close() {
	if c.Resolver != nil {
		c.Resolver.Wait()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Config: cfg, Logger: logger, Storage: st}

	c.Client = api.NewClient(cfg.API, api.WithLogger(logger))

	c.Dataset, err = fallback.Open(cfg.Fallback.DatasetPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load fallback dataset: %w", err)
	}
	c.Index, err = fallback.NewSuggestionIndex(cfg.Fallback.IndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize suggestion index: %w", err)
	}
	if err := c.Index.Rebuild(c.Dataset.Records()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to build suggestion index: %w", err)
	}

	engineOpts := []search.EngineOption{
		search.WithProximityPhrases(cfg.Search.NearMePhrases),
		search.WithLogger(logger),
	}
	if cfg.Geo.EnabledOrDefault() {
		c.Resolver = geoip.NewResolver(cfg.Geo.IPServiceURL, cfg.Geo.CacheTTL, st, geoip.WithLogger(logger))
		engineOpts = append(engineOpts, search.WithIPSource(c.Resolver))
	}
	m := mapper.New(mapper.DefaultsFromConfig(&cfg.Search),
		mapper.WithStrict(cfg.Search.StrictRecords),
		mapper.WithLogger(logger))
	c.Engine = search.NewEngine(c.Client, c.Dataset, m, engineOpts...)
	c.Auth = auth.NewService(c.Client, st, cfg.Auth, auth.WithLogger(logger))

	logger.Debug("components initialized",
		zap.String("api", c.Client.BaseURL()),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Int("fallback_records", c.Dataset.Len()),
		zap.Bool("near_me", c.Resolver != nil))
	return c, nil
}

// setup parses fs, loads the config and initializes components for a client command.
func setup(fs *flag.FlagSet, args []string) (*Components, error) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return initializeComponents(context.Background(), cfg, logger)
}

func mustSetup(fs *flag.FlagSet, args []string) *Components {
	c, err := setup(fs, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return c
}

func fail(c *Components, format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	c.Close()
	os.Exit(1)
}

// openState opens the terminal user's persisted search state.
func openState(ctx context.Context, c *Components) (*store.State, error) {
	return store.Open(ctx, c.Storage, c.Config.Storage.StateKey,
		store.WithHistoryLimit(c.Config.Search.HistoryLimit),
		store.WithLogger(c.Logger))
}

// authed returns ctx carrying the stored access token, if any.
func authed(ctx context.Context, c *Components) context.Context {
	return api.WithToken(ctx, c.Auth.Token(ctx, cliSessionID))
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (searches, sessions, dataset reloads)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Fallback.Watch && components.Dataset.Path() != "" {
		w := fallback.NewWatcher(components.Dataset.Path(),
			fallback.ReloadOnChange(components.Dataset, components.Index, logger),
			fallback.WithWatchLogger(logger))
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start dataset watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	if components.Resolver != nil {
		components.Resolver.Warm(watchCtx)
	}

	srv := server.NewServer(
		components.Client,
		components.Engine,
		components.Auth,
		components.Storage,
		components.Dataset,
		components.Index,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: yowyob search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Queries such as "pizza près de moi" search around your current location.
When the marketplace API is unreachable, results come from the offline dataset.

Examples:
  yowyob search burger
  yowyob search --tab shop garage
  yowyob search pizza près de moi --output json
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "yowyob search burger --tab shop"
// would otherwise leave --tab unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	tab := fs.String("tab", "all", "result tab: all, products, services or shop")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	noHistory := fs.Bool("no-history", false, "do not record the query in recent searches")
	fs.Usage = func() { printSearchUsage(fs) }
	c := mustSetup(fs, searchArgsReorder(args))
	defer c.Close()

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fail(c, "%v", err)
	}
	t, err := models.ParseTab(*tab)
	if err != nil {
		fail(c, "%v", err)
	}
	query := &models.SearchQuery{Query: buildSearchQuery(fs.Args()), Tab: t}

	ctx := authed(context.Background(), c)
	response, err := c.Engine.Search(ctx, query)
	if err != nil {
		fail(c, "Search failed: %v", err)
	}
	if query.Query != "" && !*noHistory {
		if st, err := openState(ctx, c); err != nil {
			c.Logger.Warn("failed to open search state", zap.Error(err))
		} else if err := st.AddToHistory(ctx, query.Query); err != nil {
			c.Logger.Warn("failed to record history", zap.Error(err))
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fail(c, "Output failed: %v", err)
	}
}

func runSuggest(args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	c := mustSetup(fs, searchArgsReorder(args))
	defer c.Close()

	ctx := authed(context.Background(), c)
	var history []string
	if st, err := openState(ctx, c); err == nil {
		history = st.History()
	}
	s := search.NewSuggester(c.Client,
		search.WithLocalSuggester(c.Index),
		search.WithSuggestionLimits(c.Config.Search.SuggestionMinLength, c.Config.Search.MaxSuggestions),
		search.WithSuggesterLogger(c.Logger))
	for _, item := range s.Suggest(ctx, buildSearchQuery(fs.Args()), history).Items {
		fmt.Println(item)
	}
}

func runHistory(args []string) {
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	c := mustSetup(fs, searchArgsReorder(args))
	defer c.Close()

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fail(c, "%v", err)
	}
	ctx := context.Background()
	st, err := openState(ctx, c)
	if err != nil {
		fail(c, "Failed to open search state: %v", err)
	}
	switch sub {
	case "list":
	case "remove":
		if fs.NArg() < 1 {
			fail(c, "Usage: yowyob history remove <query>")
		}
		err = st.RemoveFromHistory(ctx, buildSearchQuery(fs.Args()))
	case "clear":
		err = st.ClearHistory(ctx)
	default:
		fail(c, "Unknown history subcommand: %s", sub)
	}
	if err != nil {
		fail(c, "History update failed: %v", err)
	}
	if err := cli.WriteHistory(os.Stdout, st.History(), format); err != nil {
		fail(c, "Output failed: %v", err)
	}
}

func printSession(sess *models.Session) {
	if sess == nil {
		fmt.Println("Account created. Sign in with yowyob login.")
		return
	}
	suffix := ""
	if sess.Local {
		suffix = " (offline account)"
	}
	fmt.Printf("Signed in as %s <%s>%s\n", sess.Name, sess.Email, suffix)
}

func runLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("YOWYOB_PASSWORD"), "account password (default $YOWYOB_PASSWORD)")
	c := mustSetup(fs, args)
	defer c.Close()

	sess, err := c.Auth.Login(context.Background(), cliSessionID, models.Credentials{Email: *email, Password: *password})
	if err != nil {
		fail(c, "Login failed: %v", err)
	}
	printSession(sess)
}

func runRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (at least 6 characters)")
	confirm := fs.String("confirm", "", "password confirmation")
	c := mustSetup(fs, args)
	defer c.Close()

	sess, err := c.Auth.Register(context.Background(), cliSessionID, models.Registration{
		Name:            *name,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *confirm,
	})
	if err != nil {
		fail(c, "Registration failed: %v", err)
	}
	printSession(sess)
}

func runGoogle(args []string) {
	fs := flag.NewFlagSet("google", flag.ExitOnError)
	code := fs.String("code", "", "authorization code returned by Google")
	redirectURI := fs.String("redirect-uri", "", "redirect URI used for the authorization request")
	c := mustSetup(fs, args)
	defer c.Close()

	sess, err := c.Auth.Google(context.Background(), cliSessionID, *code, *redirectURI)
	if err != nil {
		fail(c, "Google sign-in failed: %v", err)
	}
	printSession(sess)
}

func runLogout(args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	c := mustSetup(fs, args)
	defer c.Close()

	if err := c.Auth.Logout(context.Background(), cliSessionID); err != nil {
		fail(c, "Logout failed: %v", err)
	}
	fmt.Println("Signed out.")
}

// optionalString returns nil when the flag named name was not set on fs.
func optionalString(fs *flag.FlagSet, name string, v *string) *string {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	if !set {
		return nil
	}
	return v
}

func runProfile(args []string) {
	sub := "get"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "new display name (update only)")
	phone := fs.String("phone", "", "new phone number (update only)")
	avatar := fs.String("avatar", "", "new avatar URL (update only)")
	c := mustSetup(fs, args)
	defer c.Close()

	ctx := context.Background()
	sess, err := c.Auth.Session(ctx, cliSessionID)
	if err != nil {
		fail(c, "Not signed in: %v", err)
	}
	ctx = api.WithToken(ctx, sess.AccessToken)

	var user *models.User
	switch sub {
	case "get":
		if sess.Local {
			user = &models.User{ID: sess.UserID, Email: sess.Email, Name: sess.Name, Role: sess.Role}
			break
		}
		user, err = c.Client.Profile(ctx)
	case "update":
		upd := models.ProfileUpdate{
			Name:      optionalString(fs, "name", name),
			Phone:     optionalString(fs, "phone", phone),
			AvatarURL: optionalString(fs, "avatar", avatar),
		}
		if err = models.Validate(upd); err == nil {
			user, err = c.Client.UpdateProfile(ctx, upd)
		}
	default:
		fail(c, "Unknown profile subcommand: %s", sub)
	}
	if err != nil {
		fail(c, "Profile request failed: %v", err)
	}
	fmt.Printf("id:     %s\nname:   %s\nemail:  %s\nrole:   %s\n", user.ID, user.Name, user.Email, user.Role)
	if user.Phone != "" {
		fmt.Printf("phone:  %s\n", user.Phone)
	}
}

func runListings(args []string) {
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("listings", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text, compact or json (list only)")
	out := fs.String("out", "listings.xlsx", "output workbook (export only)")
	title := fs.String("title", "", "listing title (create only)")
	description := fs.String("description", "", "listing description (create only)")
	price := fs.Float64("price", 0, "price in FCFA (create only)")
	category := fs.String("category", "", "category (create only)")
	address := fs.String("address", "", "address (create only)")
	lat := fs.Float64("lat", 0, "latitude (create only)")
	lng := fs.Float64("lng", 0, "longitude (create only)")
	c := mustSetup(fs, searchArgsReorder(args))
	defer c.Close()

	ctx := context.Background()
	sess, err := c.Auth.Session(ctx, cliSessionID)
	if err != nil {
		fail(c, "Not signed in: %v", err)
	}
	ctx = api.WithToken(ctx, sess.AccessToken)

	switch sub {
	case "list", "export":
		listings, err := c.Client.ListingsBySeller(ctx, sess.UserID)
		if err != nil {
			fail(c, "Failed to fetch listings: %v", err)
		}
		if sub == "list" {
			format, err := cli.ParseOutputFormat(*outputFormat)
			if err != nil {
				fail(c, "%v", err)
			}
			if err := cli.WriteListings(os.Stdout, listings, format); err != nil {
				fail(c, "Output failed: %v", err)
			}
			return
		}
		f, err := os.Create(*out)
		if err != nil {
			fail(c, "Failed to create %s: %v", *out, err)
		}
		if err := cli.ExportListings(f, listings); err != nil {
			_ = f.Close()
			fail(c, "Export failed: %v", err)
		}
		if err := f.Close(); err != nil {
			fail(c, "Export failed: %v", err)
		}
		fmt.Printf("Exported %d listings to %s\n", len(listings), *out)
	case "create":
		in := models.ListingInput{
			Title:       *title,
			Description: *description,
			Price:       *price,
			Category:    *category,
			SellerID:    sess.UserID,
			Address:     *address,
			Latitude:    *lat,
			Longitude:   *lng,
		}
		createListings(ctx, c, []models.ListingInput{in})
	case "import":
		if fs.NArg() < 1 {
			fail(c, "Usage: yowyob listings import <file.xlsx>")
		}
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fail(c, "Failed to open %s: %v", fs.Arg(0), err)
		}
		inputs, err := cli.ImportListings(f, sess.UserID)
		_ = f.Close()
		if err != nil {
			fail(c, "Import failed: %v", err)
		}
		createListings(ctx, c, inputs)
	case "delete":
		if fs.NArg() < 1 {
			fail(c, "Usage: yowyob listings delete <id>")
		}
		if err := c.Client.DeleteListing(ctx, fs.Arg(0)); err != nil {
			fail(c, "Delete failed: %v", err)
		}
		fmt.Printf("Listing deleted: %s\n", fs.Arg(0))
	default:
		fail(c, "Unknown listings subcommand: %s", sub)
	}
}

// createListings validates every input before sending any of them.
func createListings(ctx context.Context, c *Components, inputs []models.ListingInput) {
	for i, in := range inputs {
		if err := models.Validate(in); err != nil {
			fail(c, "Listing %d (%s): %v", i+1, in.Title, err)
		}
	}
	for _, in := range inputs {
		l, err := c.Client.CreateListing(ctx, in)
		if err != nil {
			fail(c, "Create %q failed: %v", in.Title, err)
		}
		fmt.Printf("Listing created: %s (%s)\n", l.ID, l.Title)
	}
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	c := mustSetup(fs, args)
	defer c.Close()

	fmt.Printf("api_base_url:       %s\n", c.Client.BaseURL())
	fmt.Printf("storage_driver:     %s\n", c.Config.Storage.Driver)
	fmt.Printf("fallback_records:   %d   # offline dataset size\n", c.Dataset.Len())
	if n, err := c.Index.DocCount(); err == nil {
		fmt.Printf("suggestion_docs:    %d   # offline autocomplete index\n", n)
	}
	if c.Config.Storage.Driver == "sqlite" {
		if n, err := storage.DiskUsageBytes(c.Config.Storage.DatabasePath, c.Config.Fallback.IndexPath); err == nil {
			fmt.Printf("disk_usage_bytes:   %d   # state database + index on disk\n", n)
		}
	}
	if sess, err := c.Auth.Session(context.Background(), cliSessionID); err == nil {
		fmt.Printf("signed_in_as:       %s\n", sess.Email)
	}
}

func runIP(args []string) {
	fs := flag.NewFlagSet("ip", flag.ExitOnError)
	forget := fs.Bool("forget", false, "drop the cached address before resolving")
	c := mustSetup(fs, args)
	defer c.Close()

	if c.Resolver == nil {
		fail(c, "Location lookup is disabled (geo.enabled: false)")
	}
	ctx := context.Background()
	if *forget {
		if err := c.Resolver.Forget(ctx); err != nil {
			fail(c, "Failed to clear cached address: %v", err)
		}
	}
	ip, err := c.Resolver.ClientIP(ctx)
	if err != nil {
		fail(c, "Lookup failed: %v", err)
	}
	fmt.Println(ip)
}

func runHashPassword(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: yowyob hash-password <password>")
		os.Exit(1)
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hash failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func printUsage() {
	fmt.Println(`yowyob - Local marketplace search client

Usage:
  yowyob server [flags]                 Start the HTTP server for web front ends
  yowyob search [flags] <query>         Search products, services and shops
  yowyob suggest <prefix>               Autocomplete a query
  yowyob history [list|remove|clear]    Manage recent searches
  yowyob login --email E --password P   Sign in
  yowyob register [flags]               Create an account
  yowyob google --code C                Sign in with a Google authorization code
  yowyob logout                         Sign out
  yowyob profile [get|update] [flags]   Show or edit your profile
  yowyob listings [list|create|delete|export|import]
                                        Manage your merchant listings
  yowyob status                         Show client configuration and offline data
  yowyob ip [--forget]                  Show the public address used for near-me searches
  yowyob hash-password <password>       Hash a password for auth.local_users
  yowyob version                        Show version
  yowyob help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/yowyob/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --tab string       all, products, services or shop (default: all)
  --output string    text, compact or json (default: text)
  --no-history       Do not record the query in recent searches

Examples:
  yowyob server
  yowyob search burger
  yowyob search --tab shop garage
  yowyob search pizza près de moi --output json
  yowyob history remove burger
  yowyob listings create --title "Table en bois" --price 20000 --category Maison
  yowyob listings export --out mes-annonces.xlsx`)
}
