// cmd/preflight loads the config file and reports whether the monitor would
// start cleanly with it.
package main

import (
	"fmt"
	"os"

	"pingmon/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		fail(err.Error())
	}
	ok("config loaded")

	if len(cfg.Targets) == 0 {
		warn("no targets configured; the monitor will idle until one is added via the API")
	} else {
		enabled := 0
		for _, t := range cfg.TargetList() {
			if t.Enabled {
				enabled++
			}
		}
		ok(fmt.Sprintf("%d targets (%d enabled)", len(cfg.Targets), enabled))
	}

	m := cfg.Monitor
	ok(fmt.Sprintf("concurrency=%d jitter=[%d,%d]ms display=%s",
		m.Concurrency, m.JitterMinMS, m.JitterMaxMS, m.DisplayMode))

	if cfg.Database.URL == "" {
		warn("database.url empty — targets live in memory, seeded from this file")
	} else {
		ok("database.url present")
	}
	if cfg.Notify.WebhookURL == "" {
		warn("notify.webhook_url empty — notifications go to the log only")
	} else {
		ok("notify.webhook_url present")
	}

	ok("preflight passed")
}
