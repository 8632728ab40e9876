package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"golang.org/x/oauth2"

	"endurance/internal/analysis"
	"endurance/internal/auth"
	"endurance/internal/config"
	"endurance/internal/logger"
	"endurance/internal/metrics"
	"endurance/internal/service"
	"endurance/internal/store"
	"endurance/internal/strava"
	"endurance/internal/tui"
)

const usage = `Usage: endurance [command]

Commands:
  (none)                    open the dashboard
  sync [-v]                 import new Strava activities, -v logs debug output
  logout                    forget the stored Strava login
  import <file.fit>...      import FIT activity files
  purge [-dry-run]          delete stored activities that look implausible
  recompute                 recompute the stored training load of every activity
  compare <period> [date]   compare the week, month or year containing date
                            (YYYY-MM-DD, default today) with the one before
  fitness [days]            print fitness, fatigue and form for the last days (default 14)
  objective list            show objectives and their progress
  objective add <kind> <value> [period] [sport]
                            kind: sessions, hours, distance, totalHours, elevation
                            period: day, week, month, year
  objective rm <id>         delete an objective
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil || cfg == nil {
		return err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return fmt.Errorf("resolving log path: %w", err)
	}
	if err := logger.InitFile(logPath, cfg.Log.Level); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	dataDir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	db, err := store.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rec := metrics.NewRecorder()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := rec.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Named("metrics").Error(ctx, "metrics endpoint stopped", logger.Error(err))
			}
		}()
	}

	querySvc := service.NewQueryService(db, cfg.Athlete.UserID, cfg.Profile(),
		service.WithHRZones(cfg.HRZones()),
		service.WithDerivedReferenceSpeeds(cfg.Analytics.DerivedSpeeds),
	)
	newSyncService := func(source service.ActivitySource) *service.SyncService {
		return service.NewSyncService(source, db, cfg.Athlete.UserID, cfg.Profile(),
			service.WithMetrics(rec),
			service.WithStreams(cfg.Strava.FetchStreams),
			service.WithDerivedSpeeds(cfg.Analytics.DerivedSpeeds),
		)
	}

	command := ""
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "import":
		return runImport(ctx, newSyncService(nil), args)
	case "purge":
		return runPurge(ctx, newSyncService(nil), args)
	case "recompute":
		return runRecompute(ctx, newSyncService(nil))
	case "objective":
		return runObjective(querySvc, cfg, args)
	case "compare":
		return runCompare(querySvc, args)
	case "fitness":
		return runFitness(querySvc, args)
	case "logout":
		if err := db.DeleteAuth(); err != nil {
			return fmt.Errorf("deleting auth: %w", err)
		}
		fmt.Println("Logged out of Strava")
		return nil
	case "sync":
		fs := flag.NewFlagSet("sync", flag.ContinueOnError)
		verbose := fs.Bool("v", false, "log debug output")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *verbose {
			if err := logger.SetLevelString("debug"); err != nil {
				return err
			}
		}
	case "":
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", command)
	}

	client, err := stravaClient(ctx, db, cfg)
	if err != nil {
		return err
	}
	syncSvc := newSyncService(client)

	if command == "sync" {
		result, err := syncSvc.SyncAll(ctx, nil)
		if strava.IsUnauthorized(err) {
			if delErr := db.DeleteAuth(); delErr != nil {
				return fmt.Errorf("deleting rejected auth: %w", delErr)
			}
			return errors.New("strava rejected the stored login, run endurance sync again to log in")
		}
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	}

	app := tui.NewApp(querySvc, syncSvc, tui.NewUnits(cfg.Display))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// loadConfig returns nil without an error when the user has to edit the config first
func loadConfig() (*config.Config, error) {
	configDir, _ := config.GetConfigDir()

	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.yaml\n\n", configDir)
		fmt.Println("You need to add your Strava API credentials.")
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.yaml\n", configDir)
		return nil, nil
	}
	return cfg, nil
}

// stravaClient returns an API client with auto-refreshing tokens,
// running the browser login when no usable token is stored
func stravaClient(ctx context.Context, db *store.DB, cfg *config.Config) (*strava.Client, error) {
	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  auth.RedirectURL(),
	})

	storedAuth, err := db.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Println("No authentication found. Starting OAuth flow...")
		if storedAuth, err = authenticate(ctx, db, oauthCfg); err != nil {
			return nil, fmt.Errorf("authentication: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	tokenSource := auth.NewTokenSource(ctx, oauthCfg, auth.TokenFromAuth(storedAuth), db)
	if tokenSource.IsExpired() {
		fmt.Println("Refreshing Strava token...")
	}

	// A refresh token revoked on the Strava side needs a new login
	if _, err := tokenSource.Token(); err != nil {
		fmt.Println("Stored token is invalid or expired. Re-authenticating...")
		if storedAuth, err = authenticate(ctx, db, oauthCfg); err != nil {
			return nil, fmt.Errorf("re-authentication: %w", err)
		}
		tokenSource = auth.NewTokenSource(ctx, oauthCfg, auth.TokenFromAuth(storedAuth), db)
	}

	return strava.NewClient(tokenSource), nil
}

func authenticate(ctx context.Context, db *store.DB, oauthCfg *oauth2.Config) (*store.Auth, error) {
	result, err := auth.Authenticate(ctx, oauthCfg, os.Stdout)
	if err != nil {
		return nil, err
	}

	stored := result.StoredAuth()
	if err := db.SaveAuth(stored); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}

	fmt.Println()
	fmt.Printf("Successfully authenticated as athlete %d!\n", result.AthleteID)
	return stored, nil
}

func runImport(ctx context.Context, syncSvc *service.SyncService, args []string) error {
	if len(args) == 0 {
		return errors.New("import: no files given")
	}
	result, err := syncSvc.ImportFiles(ctx, args, nil)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runPurge(ctx context.Context, syncSvc *service.SyncService, args []string) error {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "flag suspicious activities instead of deleting them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	baseline, err := syncSvc.Baseline()
	if err != nil {
		return err
	}
	result, err := syncSvc.PurgeSuspicious(ctx, baseline, *dryRun)
	if err != nil {
		return err
	}

	verb := "Deleted"
	if *dryRun {
		verb = "Flagged"
	}
	fmt.Printf("%s %s suspicious activities, kept %s\n", verb,
		humanize.Comma(int64(len(result.Deleted))), humanize.Comma(int64(len(result.Kept))))
	for _, id := range result.Deleted {
		fmt.Println("  " + id)
	}
	return nil
}

func runRecompute(ctx context.Context, syncSvc *service.SyncService) error {
	updated, unknown, err := syncSvc.RecomputeLoads(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Recomputed %s loads, %s could not be computed\n",
		humanize.Comma(int64(updated)), humanize.Comma(int64(unknown)))
	return nil
}

func runCompare(querySvc *service.QueryService, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("compare: expected <week|month|year> [YYYY-MM-DD]")
	}
	base := time.Now()
	if len(args) == 2 {
		var err error
		if base, err = time.ParseInLocation(time.DateOnly, args[1], time.Local); err != nil {
			return fmt.Errorf("compare: bad date %q: %w", args[1], err)
		}
	}

	c, err := querySvc.GetComparison(store.Period(args[0]), base)
	if err != nil {
		return err
	}
	fmt.Printf("%-10s %12s %12s\n", "", c.Current.PeriodLabel, c.Previous.PeriodLabel)
	fmt.Printf("%-10s %12d %12d  %+d\n", "Sessions", c.Current.Count, c.Previous.Count, c.DeltaCount)
	fmt.Printf("%-10s %12.1f %12.1f  %+.0f%%\n", "Km", c.Current.DistanceKm, c.Previous.DistanceKm, c.DistanceDeltaPct)
	fmt.Printf("%-10s %12.0f %12.0f  %+.0f%%\n", "Elev (m)", c.Current.ElevationM, c.Previous.ElevationM, c.ElevationDeltaPct)
	fmt.Printf("%-10s %12.1f %12.1f\n", "Hours", c.Current.DurationH, c.Previous.DurationH)
	fmt.Printf("%-10s %12.0f %12.0f  %+.0f%%\n", "Load", c.Current.Load, c.Previous.Load, c.LoadDeltaPct)
	return nil
}

func runFitness(querySvc *service.QueryService, args []string) error {
	days := 14
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("fitness: bad day count %q", args[0])
		}
		days = n
	}

	trend, err := querySvc.FitnessTrend(days)
	if err != nil {
		return err
	}
	if len(trend) == 0 {
		fmt.Println("No training load yet")
		return nil
	}
	fmt.Printf("%-10s %6s %6s %6s\n", "Date", "CTL", "ATL", "TSB")
	for _, m := range trend {
		fmt.Printf("%-10s %6.1f %6.1f %+6.1f\n", m.Date.Format(time.DateOnly), m.CTL, m.ATL, m.TSB)
	}
	last := trend[len(trend)-1]
	fmt.Println(analysis.FormDescription(last.TSB))
	return nil
}

func runObjective(querySvc *service.QueryService, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		progress, err := querySvc.GetObjectiveProgress()
		if err != nil {
			return err
		}
		if len(progress) == 0 {
			fmt.Println("No objectives")
		}
		for _, p := range progress {
			printObjective(p)
		}
		return nil

	case "add":
		o, err := parseObjective(args[1:], cfg.Display.DistanceUnit)
		if err != nil {
			return err
		}
		id, err := querySvc.SaveObjective(o)
		if err != nil {
			return err
		}
		fmt.Println("Added objective " + id)
		return nil

	case "rm":
		if len(args) != 2 {
			return errors.New("objective rm: expected one id")
		}
		return querySvc.DeleteObjective(args[1])

	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown objective command %q", args[0])
	}
}

func parseObjective(args []string, distanceUnit string) (store.Objective, error) {
	if len(args) < 2 {
		return store.Objective{}, errors.New("objective add: expected <kind> <value> [period] [sport]")
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return store.Objective{}, fmt.Errorf("objective add: bad value %q: %w", args[1], err)
	}

	o := store.Objective{Kind: store.ObjectiveKind(args[0]), Value: value}
	if len(args) > 2 {
		o.Period = store.Period(args[2])
	}
	if len(args) > 3 {
		o.Sport = store.Sport(args[3])
	}
	if len(args) > 4 {
		o.Note = strings.Join(args[4:], " ")
	}

	switch o.Kind {
	case store.ObjectiveDistance:
		o.Unit = "km"
		if distanceUnit == "mi" {
			o.Unit = "mi"
		}
	case store.ObjectiveHours, store.ObjectiveTotalHours:
		o.Unit = "h"
	case store.ObjectiveElevation:
		o.Unit = "m"
	}
	return o, nil
}

func printObjective(p analysis.ObjectiveProgress) {
	o := p.Objective
	scope := "all time"
	if o.Period != "" && o.Kind != store.ObjectiveTotalHours {
		scope = "per " + string(o.Period)
	}
	sport := "all sports"
	if o.Sport != "" {
		sport = string(o.Sport)
	}
	status := ""
	if p.Done {
		status = " done"
	}
	fmt.Printf("%s  %s %s (%s): %.1f / %.1f %s, %.0f%%%s\n",
		o.ID, o.Kind, scope, sport, p.Achieved, o.Value, o.Unit, p.Percent, status)
}

func printResult(r *service.SyncResult) {
	fmt.Printf("Fetched %s, stored %s, merged %d, suspicious %d, skipped %d\n",
		humanize.Comma(int64(r.Fetched)), humanize.Comma(int64(r.Stored)),
		len(r.Merged), len(r.Suspects), r.Skipped)
	for _, m := range r.Merged {
		fmt.Printf("  merged %s into %s (score %.2f)\n", m.Imported, m.IntoID, m.Score)
	}
	for _, s := range r.Suspects {
		fmt.Printf("  flagged %s as %s (score %.2f): %s\n", s.Imported, s.ID, s.Score, strings.Join(s.Reasons, ", "))
	}
	for _, err := range r.Errors {
		fmt.Printf("  error: %v\n", err)
	}
}
