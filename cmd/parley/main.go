package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alienxp03/parley/internal/catalog"
	"github.com/alienxp03/parley/internal/config"
	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/engine"
	"github.com/alienxp03/parley/internal/export"
	"github.com/alienxp03/parley/internal/storage"
	"github.com/alienxp03/parley/web/handlers"
)

var (
	dbPath    string
	cfgPath   string
	debug     bool
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Argumentation-based negotiation between two agents",
	Long: `parley runs negotiations between two software agents over a catalog
of alternatives. Each agent ranks the decision criteria differently, proposes
its preferred alternatives and defends or attacks them with arguments until
both commit to the same alternative or the round limit is reached.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := appConfig.LogLevel()
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.parley/parley.db)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.parley/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

func getStorage() (storage.Storage, error) {
	path := dbPath
	if path == "" && appConfig != nil {
		path = appConfig.Storage.Path
	}
	if path == "" {
		path = storage.DefaultDBPath()
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

func getEngine(store storage.Storage) (*engine.Engine, error) {
	if appConfig == nil {
		return engine.New(store), nil
	}
	opts, err := engine.OptionsFromConfig(appConfig)
	if err != nil {
		return nil, err
	}
	return engine.New(store, opts...), nil
}

// ============================================================================
// RUN COMMAND
// ============================================================================

var (
	runPartyA     string
	runPartyB     string
	runTitle      string
	runRounds     int
	runSeed       int64
	runCorpusSize int
	runCatalog    string
	runQuiet      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create and run a negotiation",
	Long: `Create a negotiation between two parties and run it to completion.

Parties are given as name[:profile], for example:
  parley run -a alice:economist -b bob:ecologist
  parley run -a :engineer --rounds 20 --seed 42
  parley run --catalog engines.yaml`,
	RunE: runNegotiation,
}

func init() {
	runCmd.Flags().StringVarP(&runPartyA, "party-a", "a", "", "First party as name[:profile]")
	runCmd.Flags().StringVarP(&runPartyB, "party-b", "b", "", "Second party as name[:profile]")
	runCmd.Flags().StringVarP(&runTitle, "title", "t", "", "Negotiation title")
	runCmd.Flags().IntVarP(&runRounds, "rounds", "r", 0, "Round limit (default from config)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Random seed (0 picks one)")
	runCmd.Flags().IntVar(&runCorpusSize, "corpus-size", 0, "Size of the generated catalog")
	runCmd.Flags().StringVar(&runCatalog, "catalog", "", "YAML catalog file")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Only print the outcome")
}

func parseParty(flag, value string) (core.PartySpec, error) {
	if value == "" {
		return core.PartySpec{}, nil
	}
	spec, err := core.ParsePartySpec(value)
	if err != nil {
		return core.PartySpec{}, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return spec, nil
}

func runNegotiation(cmd *cobra.Command, args []string) error {
	partyA, err := parseParty("party-a", runPartyA)
	if err != nil {
		return err
	}
	partyB, err := parseParty("party-b", runPartyB)
	if err != nil {
		return err
	}

	var alternatives []core.Alternative
	switch {
	case runCatalog != "":
		alternatives, err = catalog.LoadFile(runCatalog)
	case runCorpusSize > 0:
		alternatives, err = catalog.Generate(runCorpusSize)
	}
	if err != nil {
		return err
	}

	store, err := getStorage()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	eng, err := getEngine(store)
	if err != nil {
		return err
	}

	n, err := eng.CreateNegotiation(cmd.Context(), core.NewNegotiationConfig{
		Title:     runTitle,
		PartyA:    partyA,
		PartyB:    partyB,
		Catalog:   alternatives,
		Seed:      runSeed,
		MaxRounds: runRounds,
	})
	if err != nil {
		return fmt.Errorf("failed to create negotiation: %w", err)
	}

	fmt.Printf("\n🤝 %s\n", n.Title)
	fmt.Printf("   ID: %s  Seed: %d  Round limit: %d\n", n.ID[:8], n.Seed, n.MaxRounds)
	printParty("A", n.PartyA)
	printParty("B", n.PartyB)
	fmt.Println(strings.Repeat("─", 60))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\n\nInterrupted. Stopping negotiation...")
			cancel()
		case <-ctx.Done():
		}
	}()

	round := 0
	outcome, err := eng.RunNegotiation(ctx, n.ID, func(turn *core.Turn, _ *core.Negotiation) {
		if runQuiet {
			return
		}
		if turn.Round != round {
			round = turn.Round
			fmt.Printf("\nRound %d\n", round)
		}
		fmt.Printf("  %3d. %s → %s  %-8s %s\n", turn.Number, turn.Sender, turn.Receiver, turn.Performative, turn.Content)
	})
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nNegotiation cancelled. Inspect it with: parley show " + n.ID[:8])
			return nil
		}
		return fmt.Errorf("negotiation failed: %w", err)
	}

	showOutcome(outcome)
	return nil
}

func printParty(label string, p core.Party) {
	ranking := make([]string, len(p.Ranking))
	for i, c := range p.Ranking {
		ranking[i] = c.String()
	}
	fmt.Printf("   %s: %s (%s) %s\n", label, p.Name, p.Profile, strings.Join(ranking, " > "))
}

func showOutcome(o *core.Outcome) {
	fmt.Printf("\n%s\n", strings.Repeat("═", 60))
	if o == nil {
		fmt.Println("No outcome recorded")
		return
	}
	if o.Agreed {
		fmt.Printf("✅ Agreed on %s after %d rounds\n", o.Alternative, o.Rounds)
		fmt.Printf("   Rank A: %d  Rank B: %d  Score: %.3f\n", o.RankA, o.RankB, o.Score)
	} else {
		fmt.Printf("❌ No agreement after %d rounds (%s)\n", o.Rounds, o.Reason)
	}
	fmt.Println(strings.Repeat("═", 60))
}

// ============================================================================
// EXPERIMENT COMMAND
// ============================================================================

var (
	expSizes  []int
	expRuns   int
	expSeed   int64
	expRounds int
	expPartyA string
	expPartyB string
	expKeep   bool
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Measure agreement rate and score over corpus sizes",
	Long: `Run many negotiations per generated corpus size and report, for each
size, how often the parties agreed and the mean score of the outcomes.
Runs without an agreement count as score 0.

Examples:
  parley experiment --runs 100
  parley experiment --sizes 10,20,50 --runs 20 --seed 7
  parley experiment -a :economist -b :ecologist --keep`,
	RunE: runExperiment,
}

func init() {
	experimentCmd.Flags().IntSliceVar(&expSizes, "sizes", engine.DefaultExperimentSizes, "Corpus sizes to sweep")
	experimentCmd.Flags().IntVar(&expRuns, "runs", 10, "Negotiations per corpus size")
	experimentCmd.Flags().Int64Var(&expSeed, "seed", 0, "Seed of the first run (0 picks one)")
	experimentCmd.Flags().IntVarP(&expRounds, "rounds", "r", 0, "Round limit (default from config)")
	experimentCmd.Flags().StringVarP(&expPartyA, "party-a", "a", "", "First party as name[:profile]")
	experimentCmd.Flags().StringVarP(&expPartyB, "party-b", "b", "", "Second party as name[:profile]")
	experimentCmd.Flags().BoolVar(&expKeep, "keep", false, "Keep the negotiations in the database")
}

func runExperiment(cmd *cobra.Command, args []string) error {
	partyA, err := parseParty("party-a", expPartyA)
	if err != nil {
		return err
	}
	partyB, err := parseParty("party-b", expPartyB)
	if err != nil {
		return err
	}

	store, err := getStorage()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	eng, err := getEngine(store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total := len(expSizes) * expRuns
	done := 0
	results, err := eng.RunExperiment(ctx, engine.ExperimentConfig{
		Sizes:     expSizes,
		Runs:      expRuns,
		Seed:      expSeed,
		MaxRounds: expRounds,
		PartyA:    partyA,
		PartyB:    partyB,
		Keep:      expKeep,
		Progress: func(size, run int, _ *core.Outcome) {
			done++
			fmt.Fprintf(os.Stderr, "\r  %d/%d negotiations", done, total)
		},
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tRUNS\tAGREED\tRATE\tMEAN SCORE\tMEAN ROUNDS")
	fmt.Fprintln(w, "────\t────\t──────\t────\t──────────\t───────────")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.0f%%\t%.3f\t%.1f\n",
			r.Size, r.Runs, r.Agreements, r.AgreementRate*100, r.MeanScore, r.MeanRounds)
	}
	return w.Flush()
}

// ============================================================================
// LIST COMMAND
// ============================================================================

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List negotiations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		eng := engine.New(store)
		negotiations, err := eng.ListNegotiations(listLimit, 0)
		if err != nil {
			return err
		}

		if len(negotiations) == 0 {
			fmt.Println("No negotiations found. Start one with: parley run")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPARTIES\tSTATUS\tALTERNATIVES\tTURNS\tAGREEMENT\tCREATED")
		fmt.Fprintln(w, "──\t───────\t──────\t────────────\t─────\t─────────\t───────")

		for _, n := range negotiations {
			agreement := n.Agreement
			if agreement == "" {
				agreement = "-"
			}
			fmt.Fprintf(w, "%s\t%s vs %s\t%s\t%d\t%d\t%s\t%s\n",
				n.ID[:8],
				n.PartyA,
				n.PartyB,
				n.Status,
				n.CatalogSize,
				n.TurnCount,
				agreement,
				n.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		w.Flush()

		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum number of negotiations")
}

// ============================================================================
// SHOW COMMAND
// ============================================================================

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show negotiation details and transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		eng := engine.New(store)
		id, err := findNegotiationByPrefix(eng, args[0])
		if err != nil {
			return err
		}

		n, turns, err := eng.GetNegotiationWithTurns(id)
		if err != nil {
			return err
		}

		fmt.Printf("\n🤝 %s\n", n.Title)
		fmt.Printf("   ID: %s\n", n.ID)
		fmt.Printf("   Status: %s  Seed: %d  Round limit: %d\n", n.Status, n.Seed, n.MaxRounds)
		fmt.Printf("   Created: %s\n", n.CreatedAt.Format(time.RFC1123))
		printParty("A", n.PartyA)
		printParty("B", n.PartyB)

		fmt.Printf("\nCatalog (%d alternatives)\n", len(n.Catalog))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tPRODUCTION\tCONSUMPTION\tDURABILITY\tENVIRONMENT\tNOISE\tCOST/KM")
		for _, a := range n.Catalog {
			fmt.Fprintf(w, "  %s\t%g\t%g\t%g\t%g\t%g\t%g\n",
				a.ID, a.ProductionCost, a.Consumption, a.Durability,
				a.EnvironmentImpact, a.Noise, a.CostPerKm)
		}
		w.Flush()

		fmt.Println(strings.Repeat("─", 60))
		if len(turns) == 0 {
			fmt.Println("No messages yet.")
		}
		round := 0
		for _, t := range turns {
			if t.Round != round {
				round = t.Round
				fmt.Printf("\nRound %d\n", round)
			}
			fmt.Printf("  %3d. %s → %s  %-8s %s\n", t.Number, t.Sender, t.Receiver, t.Performative, t.Content)
		}

		if n.Status.Finished() {
			showOutcome(n.Outcome)
		}
		return nil
	},
}

// ============================================================================
// DELETE COMMAND
// ============================================================================

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a negotiation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		eng := engine.New(store)
		id, err := findNegotiationByPrefix(eng, args[0])
		if err != nil {
			return err
		}

		if err := eng.DeleteNegotiation(id); err != nil {
			return err
		}

		fmt.Printf("Deleted negotiation: %s\n", id[:8])
		return nil
	},
}

// ============================================================================
// EXPORT COMMAND
// ============================================================================

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [id] [format]",
	Short: "Export a negotiation (markdown, pdf, json)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := export.FormatMarkdown
		if len(args) == 2 {
			format = export.Format(args[1])
		}
		exporter, err := export.GetExporter(format)
		if err != nil {
			return err
		}

		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		eng := engine.New(store)
		id, err := findNegotiationByPrefix(eng, args[0])
		if err != nil {
			return err
		}

		n, turns, err := eng.GetNegotiationWithTurns(id)
		if err != nil {
			return err
		}

		if exportOutput == "-" {
			return exporter.Export(n, turns, os.Stdout)
		}

		path := exportOutput
		if path == "" {
			path = export.GenerateFilename(n, exporter.FileExtension())
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := exporter.Export(n, turns, f); err != nil {
			f.Close()
			return fmt.Errorf("failed to export: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (\"-\" for stdout)")
}

// ============================================================================
// PROFILES COMMAND
// ============================================================================

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List available profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tRANKING")
		fmt.Fprintln(w, "──\t────\t───────")

		for _, p := range appConfig.AllProfiles() {
			ranking := "(random)"
			if len(p.Ranking) > 0 {
				names := make([]string, len(p.Ranking))
				for i, c := range p.Ranking {
					names[i] = c.String()
				}
				ranking = strings.Join(names, " > ")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, ranking)
		}
		w.Flush()
		return nil
	},
}

// ============================================================================
// CATALOG COMMAND
// ============================================================================

var (
	catalogSize   int
	catalogOutput string
	catalogCheck  string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Generate an engine catalog or check a catalog file",
	Long: `Print a generated engine catalog as YAML, ready to be edited and passed
to "parley run --catalog". With --check, validate an existing catalog file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if catalogCheck != "" {
			alternatives, err := catalog.LoadFile(catalogCheck)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d alternatives, OK\n", catalogCheck, len(alternatives))
			return nil
		}

		size := catalogSize
		if size == 0 {
			size = appConfig.Defaults.CorpusSize
		}
		alternatives, err := catalog.Generate(size)
		if err != nil {
			return err
		}

		data, err := catalog.Marshal(fmt.Sprintf("Engine corpus (%d)", len(alternatives)), alternatives)
		if err != nil {
			return err
		}

		if catalogOutput == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(catalogOutput, data, 0644); err != nil {
			return fmt.Errorf("failed to write catalog: %w", err)
		}
		fmt.Printf("Wrote %d alternatives to %s\n", len(alternatives), catalogOutput)
		return nil
	},
}

func init() {
	catalogCmd.Flags().IntVarP(&catalogSize, "size", "s", 0, "Corpus size (default from config)")
	catalogCmd.Flags().StringVarP(&catalogOutput, "output", "o", "", "Output file (default: stdout)")
	catalogCmd.Flags().StringVar(&catalogCheck, "check", "", "Validate a catalog file instead of generating one")
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

func configFilePath() string {
	if cfgPath != "" {
		return cfgPath
	}
	return config.DefaultConfigPath()
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file: %s\n\n", configFilePath())

		catalogFile := appConfig.Defaults.Catalog
		if catalogFile == "" {
			catalogFile = "(generated)"
		}
		dbFile := appConfig.Storage.Path
		if dbFile == "" {
			dbFile = storage.DefaultDBPath()
		}

		fmt.Println("Current settings:")
		fmt.Printf("  Round limit: %d\n", appConfig.Defaults.MaxRounds)
		fmt.Printf("  Corpus size: %d\n", appConfig.Defaults.CorpusSize)
		fmt.Printf("  Profiles: %s vs %s\n", appConfig.Defaults.ProfileA, appConfig.Defaults.ProfileB)
		fmt.Printf("  Catalog: %s\n", catalogFile)
		fmt.Printf("  Database: %s\n", dbFile)
		fmt.Printf("  Server port: %d\n", appConfig.Server.Port)
		fmt.Printf("  Log level: %s\n", appConfig.Log.Level)
		fmt.Printf("  Custom profiles: %d\n", len(appConfig.Profiles))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(config.GenerateExample()), 0644); err != nil {
			return err
		}

		fmt.Printf("Created config at: %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(configFilePath())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") && appConfig.Server.Port != 0 {
			servePort = appConfig.Server.Port
		}

		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		eng, err := getEngine(store)
		if err != nil {
			return err
		}

		fmt.Printf("\n🌐 Starting parley server on http://localhost:%d\n\n", servePort)
		fmt.Println("Available endpoints:")
		fmt.Printf("  GET  http://localhost:%d/api/negotiations      - List negotiations\n", servePort)
		fmt.Printf("  POST http://localhost:%d/api/negotiations      - Create a negotiation\n", servePort)
		fmt.Printf("  GET  http://localhost:%d/api/negotiations/:id  - View a negotiation\n", servePort)
		fmt.Printf("  GET  http://localhost:%d/metrics               - Prometheus metrics\n", servePort)
		fmt.Println("\nPress Ctrl+C to stop the server")

		return startServer(handlers.New(eng, appConfig).Routes(), servePort)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8182, "Server port")
}

func startServer(handler http.Handler, port int) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func findNegotiationByPrefix(eng *engine.Engine, prefix string) (string, error) {
	if _, err := eng.GetNegotiation(prefix); err == nil {
		return prefix, nil
	}

	negotiations, err := eng.ListNegotiations(1000, 0)
	if err != nil {
		return "", err
	}
	var match string
	for _, n := range negotiations {
		if strings.HasPrefix(n.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("ambiguous negotiation id: %s", prefix)
			}
			match = n.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("negotiation not found: %s", prefix)
	}
	return match, nil
}
