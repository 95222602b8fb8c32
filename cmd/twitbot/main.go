package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"twitbot/internal/analytics"
	"twitbot/internal/cmdlog"
	"twitbot/internal/config"
	"twitbot/internal/jobs"
	"twitbot/internal/metrics"
	"twitbot/internal/store/followstore"
	"twitbot/internal/theme"
	"twitbot/internal/xclient"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "getid":
		cmdGetID()
	case "unfollow":
		cmdUnfollow()
	case "followers":
		cmdFollowers()
	case "monitor":
		cmdMonitor()
	case "daemon":
		cmdDaemon()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: twitbot <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./twitbot.yaml")
	fmt.Println("  getid       Resolve the account id for a screen name")
	fmt.Println("  unfollow    Unfollow non-reciprocal friends (whitelist honored)")
	fmt.Println("  followers   Follow eligible followers of an account in batches")
	fmt.Println("  monitor     Show hourly engagement analytics from the action log")
	fmt.Println("  daemon      Run the tracker and watcher streams continuously")
}

func mustLoadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if cfg.Credentials.ConsumerKey == "" || cfg.Credentials.AccessToken == "" {
		fmt.Println("warning: missing X API credentials; API calls will fail")
	}
	return cfg
}

func openStore(cfg config.Config, enabled bool) *followstore.DB {
	if !enabled || cfg.Storage.DBPath == "" {
		return nil
	}
	db, err := followstore.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	return db
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./twitbot.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdGetID() {
	fs := flag.NewFlagSet("getid", flag.ExitOnError)
	cfgPath := fs.String("config", "./twitbot.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("usage: twitbot getid <screen_name>")
		os.Exit(1)
	}
	name := fs.Arg(0)
	cfg := mustLoadConfig(*cfgPath)
	client := xclient.NewClient(cfg.Credentials)
	_ = cmdlog.Run("getid", func() error {
		u, err := client.GetUserByScreenName(context.Background(), name)
		if err != nil {
			return err
		}
		fmt.Printf("user id for %s: %s\n", u.ScreenName, u.ID)
		return nil
	})
}

func cmdUnfollow() {
	fs := flag.NewFlagSet("unfollow", flag.ExitOnError)
	cfgPath := fs.String("config", "./twitbot.yaml", "config path")
	useDB := fs.Bool("db", false, "record actions in the database")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	client := xclient.NewClient(cfg.Credentials)
	db := openStore(cfg, *useDB)
	defer db.Close()
	if err := cmdlog.Run("unfollow", func() error {
		return jobs.RunUnfollowSweep(context.Background(), client, db, cfg)
	}); err != nil {
		os.Exit(1)
	}
}

func cmdFollowers() {
	fs := flag.NewFlagSet("followers", flag.ExitOnError)
	cfgPath := fs.String("config", "./twitbot.yaml", "config path")
	target := fs.String("target", "me", "account whose followers to process")
	maxBatch := fs.Int("max", 0, "max followers to examine (0 = config default)")
	useDB := fs.Bool("db", false, "record followed users in the database")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	client := xclient.NewClient(cfg.Credentials)
	db := openStore(cfg, *useDB)
	defer db.Close()
	batch := jobs.NewFollowerBatch(client, db, cfg)
	if err := cmdlog.Run("followers", func() error {
		return batch.Run(context.Background(), *target, *maxBatch)
	}); err != nil {
		os.Exit(1)
	}
}

func cmdMonitor() {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	cfgPath := fs.String("config", "./twitbot.yaml", "config path")
	hours := fs.Int("hours", 24, "hours of history to aggregate")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	db := openStore(cfg, true)
	defer db.Close()
	now := time.Now().UTC()
	events, err := db.ActionsWithin(context.Background(), now.Add(-time.Duration(*hours)*time.Hour), now, "")
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	b := analytics.HourlyEngagement(events)
	for _, k := range analytics.SortedBucketKeys(b) {
		fmt.Printf("%s -> %v\n", k.Format("2006-01-02 15:00"), b[k])
	}
}

func cmdDaemon() {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	cfgPath := fs.String("config", "./twitbot.yaml", "config path")
	useDB := fs.Bool("db", false, "record followed users in the database")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	client := xclient.NewClient(cfg.Credentials)
	db := openStore(cfg, *useDB)
	defer db.Close()

	metrics.StartServer(cfg.Metrics.Addr)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	theme.PrintBanner()
	d := &jobs.Daemon{Client: client, Store: db, Cfg: cfg}
	if err := cmdlog.Run("daemon", func() error {
		err := d.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return err
	}); err != nil {
		os.Exit(1)
	}
}
