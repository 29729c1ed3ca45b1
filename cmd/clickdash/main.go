package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agozel5/Honeypot/internal/client"
	"github.com/agozel5/Honeypot/internal/config"
	"github.com/agozel5/Honeypot/internal/dashboard"
	"github.com/agozel5/Honeypot/internal/logger"
	"github.com/agozel5/Honeypot/internal/query"
	"github.com/agozel5/Honeypot/internal/render"
	"github.com/agozel5/Honeypot/internal/tui"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	view := flag.String("view", "", "logs or index (overrides dashboard.view)")
	baseURL := flag.String("api", "", "backend base URL (overrides api.base_url)")
	refresh := flag.String("refresh", "", "auto-refresh period in milliseconds, 0 disables (overrides dashboard.refresh_ms)")
	flag.Parse()

	if err := run(*configPath, *view, *baseURL, *refresh); err != nil {
		fmt.Fprintln(os.Stderr, "clickdash:", err)
		os.Exit(1)
	}
}

func run(configPath, view, baseURL, refresh string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if view != "" {
		cfg.Dashboard.View = view
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if view := cfg.Dashboard.View; view != "logs" && view != "index" {
		return fmt.Errorf("unknown view %q (want logs or index)", view)
	}
	interval := cfg.Dashboard.RefreshInterval()
	if refresh != "" {
		interval = query.ParseRefreshInterval(refresh)
	}

	// The terminal belongs to the UI: logs only go to the configured file.
	if err := logger.Initialize(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Path,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		FileOnly:   true,
	}); err != nil {
		return err
	}
	log := logger.Get()

	api, err := client.New(cfg.API.BaseURL, client.WithTimeout(cfg.API.Timeout), client.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bridge := tui.NewBridge(ctx)
	table := render.NewTable()
	opts := []dashboard.Option{
		dashboard.WithTable(table),
		dashboard.WithNotifier(bridge),
		dashboard.WithConfirm(bridge.Confirm),
		dashboard.WithLogger(log),
	}

	var (
		model       *tui.Model
		runView     func(context.Context) error
		afterAttach func(*tea.Program)
	)
	switch cfg.Dashboard.View {
	case "index":
		links, err := api.ListLinks(ctx)
		if err != nil {
			return err
		}
		if len(links) > cfg.Dashboard.IndexLimit {
			links = links[:cfg.Dashboard.IndexLimit]
		}
		v := dashboard.NewIndexView(api, opts...)
		v.Load(links)
		model = tui.NewIndexModel(v, tui.Options{Title: "Honeypot • liens récents"})
		runView = v.Run
	default:
		state := query.New()
		for k, val := range cfg.Dashboard.Filters {
			state.SetFilter(query.Filter(k), val)
		}
		state.SetPerPage(cfg.Dashboard.PerPage)
		state.SetRefreshInterval(interval)

		v := dashboard.NewLogsView(api, state, opts...)
		model = tui.NewLogsModel(v, tui.Options{
			Title:          "Honeypot • clics",
			RefreshOptions: refreshOptions(cfg.Dashboard.RefreshOptionsMS),
			Refresh:        state.RefreshInterval(),
			Filters:        state.Snapshot().Filters,
			PerPage:        state.PerPage(),
		})
		runView = v.Run
		afterAttach = func(p *tea.Program) {
			go watchRefresh(ctx, configPath, v, p)
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)
	bridge.Watch(table)
	if afterAttach != nil {
		afterAttach(p)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := runView(ctx); err != nil {
			log.Error("view stopped", "error", err)
		}
	}()

	_, err = p.Run()
	cancel()
	<-done
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// watchRefresh applies refresh_ms edits of the config file to the running view.
func watchRefresh(ctx context.Context, path string, v *dashboard.LogsView, p *tea.Program) {
	err := config.Watch(ctx, path, func(cfg *config.Config) {
		d := cfg.Dashboard.RefreshInterval()
		slog.Info("config reloaded", "refresh", d)
		v.SetRefreshInterval(d)
		p.Send(tui.RefreshIntervalMsg(d))
	})
	if err != nil && ctx.Err() == nil {
		slog.Warn("config watch stopped", "error", err)
	}
}

func refreshOptions(ms []int) []time.Duration {
	out := make([]time.Duration, 0, len(ms))
	for _, v := range ms {
		out = append(out, time.Duration(v)*time.Millisecond)
	}
	return out
}
