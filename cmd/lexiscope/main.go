package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"lexiscope/internal/analytics"
	"lexiscope/internal/cmdlog"
	"lexiscope/internal/config"
	"lexiscope/internal/ingest"
	"lexiscope/internal/jobs"
	"lexiscope/internal/metrics"
	"lexiscope/internal/model"
	"lexiscope/internal/report"
	"lexiscope/internal/store/postcache"
	"lexiscope/internal/theme"
	"lexiscope/internal/xclient"
)

func main() {
	// Credentials may live in a local .env file.
	_ = godotenv.Load()

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	var err error
	switch cmd {
	case "init":
		err = cmdlog.Run("init", cmdInit)
	case "accounts":
		err = cmdlog.Run("accounts", cmdAccounts)
	case "fetch":
		err = cmdlog.Run("fetch", cmdFetch)
	case "analyze":
		err = cmdlog.Run("analyze", cmdAnalyze)
	case "activity":
		err = cmdlog.Run("activity", cmdActivity)
	case "export":
		err = cmdlog.Run("export", cmdExport)
	default:
		printHelp()
		return
	}
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: lexiscope <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./lexiscope.yaml")
	fmt.Println("  accounts    Resolve configured handles and show cache status")
	fmt.Println("  fetch       Sync configured timelines into the cache (-watch to keep going)")
	fmt.Println("  analyze     Compute type-token ratios and write report artifacts")
	fmt.Println("  activity    Show posting-time histograms")
	fmt.Println("  export      Dump cached posts to CSV")
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newClient(cfg config.Config) *xclient.HTTPClient {
	if cfg.Credentials.BearerToken == "" {
		fmt.Println("warning: missing X_BEARER_TOKEN; API calls will fail")
	}
	return xclient.NewHTTPClient(cfg.Credentials.BearerToken)
}

func cmdInit() error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./lexiscope.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])

	cfg := config.Default()
	if err := config.Save(cfg, *path); err != nil {
		return err
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
	fmt.Println("Edit the accounts list, set X_BEARER_TOKEN, then run: lexiscope fetch")
	return nil
}

func cmdAccounts() error {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	cfgPath := fs.String("config", "./lexiscope.yaml", "config path")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	db, err := postcache.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	accounts, missing, err := ingest.ResolveAccounts(ctx, db, newClient(cfg), cfg.Accounts)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		n, err := db.CountPosts(ctx, a.ID)
		if err != nil {
			return err
		}
		cur, err := db.LoadCursor(ctx, a.ID)
		if err != nil {
			return err
		}
		if cur == "" {
			cur = "-"
		}
		fmt.Printf("@%-16s %-24q id=%-20s posts=%-6d cursor=%s\n", a.Handle, a.DisplayName, a.ID, n, cur)
	}
	for _, h := range missing {
		fmt.Printf("@%-16s unknown handle\n", h)
	}
	return nil
}

func cmdFetch() error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	cfgPath := fs.String("config", "./lexiscope.yaml", "config path")
	watch := fs.Bool("watch", false, "keep fetching on an interval")
	interval := fs.Duration("interval", 0, "override the watch interval")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	db, err := postcache.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	client := newClient(cfg)

	if !*watch {
		return jobs.RunFetchOnce(context.Background(), db, client, cfg)
	}

	if cfg.Metrics.Addr != "" {
		metrics.StartServer(cfg.Metrics.Addr)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		fmt.Println("\nshutting down...")
		cancel()
	}()

	iv := cfg.FetchInterval()
	if *interval > 0 {
		iv = *interval
	}
	if err := jobs.RunFetchLoop(ctx, db, client, cfg, iv); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func cmdAnalyze() error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfgPath := fs.String("config", "./lexiscope.yaml", "config path")
	target := fs.Int("target", 0, "override the token target")
	out := fs.String("out", "", "artifact directory (default from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *target > 0 {
		cfg.Analysis.TargetTokens = *target
	}
	if *out != "" {
		cfg.Report.OutputDir = *out
	}
	db, err := postcache.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := jobs.RunAnalysis(context.Background(), db, cfg)
	if err != nil {
		if len(p.Skipped) > 0 {
			report.Print(os.Stdout, p)
		}
		return err
	}
	report.Print(os.Stdout, p)

	for _, write := range []func(report.Payload, string) (string, error){
		report.WriteJSON, report.WriteCSV, report.WriteCharts,
	} {
		path, err := write(p, cfg.Report.OutputDir)
		if err != nil {
			return err
		}
		fmt.Println("wrote:", path)
	}
	return nil
}

func cmdActivity() error {
	fs := flag.NewFlagSet("activity", flag.ExitOnError)
	cfgPath := fs.String("config", "./lexiscope.yaml", "config path")
	handle := fs.String("handle", "", "limit to one handle")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	db, err := postcache.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	handles := cfg.Accounts
	if *handle != "" {
		handles = []string{*handle}
	}
	for _, h := range handles {
		acct, ok, err := db.LookupAccount(ctx, h)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("@%s: not fetched yet\n", h)
			continue
		}
		posts, err := db.LoadPosts(ctx, acct.ID, true)
		if err != nil {
			return err
		}
		printActivity(acct.Handle, analytics.HourlyActivity(posts), analytics.WeekdayActivity(posts))
	}
	return nil
}

func printActivity(handle string, hours [24]int, days [7]int) {
	fmt.Printf("@%s\n", handle)
	peak, peakCount := analytics.PeakHour(hours)
	for h, c := range hours {
		fmt.Printf("  %02d:00 %4d %s\n", h, c, histBar(c, peakCount))
	}
	fmt.Printf("  peak: %02d:00 UTC with %d posts\n", peak, peakCount)

	names := analytics.WeekdayNames()
	dayMax := 0
	for _, c := range days {
		if c > dayMax {
			dayMax = c
		}
	}
	for i, c := range days {
		fmt.Printf("  %s   %4d %s\n", names[i], c, histBar(c, dayMax))
	}
	fmt.Println()
}

func histBar(v, max int) string {
	if max == 0 {
		return ""
	}
	return strings.Repeat("█", v*32/max)
}

func cmdExport() error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := fs.String("config", "./lexiscope.yaml", "config path")
	handle := fs.String("handle", "", "limit to one handle")
	out := fs.String("out", "posts.csv", "output file")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	db, err := postcache.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	var accounts []model.Account
	if *handle != "" {
		acct, ok, err := db.LookupAccount(ctx, *handle)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("@%s: not fetched yet", *handle)
		}
		accounts = []model.Account{acct}
	} else {
		accounts, err = db.Accounts(ctx)
		if err != nil {
			return err
		}
	}
	var dump []report.AccountPosts
	for _, acct := range accounts {
		posts, err := db.LoadPosts(ctx, acct.ID, true)
		if err != nil {
			return err
		}
		dump = append(dump, report.AccountPosts{Account: acct, Posts: posts})
	}
	if len(dump) == 0 {
		return errors.New("nothing to export; run fetch first")
	}
	if err := report.WritePostsCSV(*out, dump); err != nil {
		return err
	}
	fmt.Println("wrote:", *out)
	return nil
}
