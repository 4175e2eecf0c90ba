// Copyright 2025 James Ross
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flyingrobots/emu-plugin-host/internal/abi"
	"github.com/flyingrobots/emu-plugin-host/internal/config"
	"github.com/flyingrobots/emu-plugin-host/internal/discovery"
	"github.com/flyingrobots/emu-plugin-host/internal/dynlib"
	"github.com/flyingrobots/emu-plugin-host/internal/emuhost"
	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
	"github.com/flyingrobots/emu-plugin-host/internal/httpapi"
	"github.com/flyingrobots/emu-plugin-host/internal/obs"
	"github.com/flyingrobots/emu-plugin-host/internal/overlay"
	"github.com/flyingrobots/emu-plugin-host/internal/pluginmanager"
)

var version = "dev"

func main() {
	var configPath string
	var showVersion bool
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&configPath, "config", "config/plugin-host.yaml", "Path to YAML config")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	_ = fs.Parse(os.Args[1:])

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := obs.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	httpSrv := obs.StartHTTPServer(cfg, nil)
	defer func() { _ = httpSrv.Shutdown(context.Background()) }()

	system := emuhost.NewStub(64*1024*1024, cfg.RefreshHz, logger)
	hidFactory := func() hostapi.HIDFacade { return emuhost.NewStubHID() }

	isDocked := func() bool { return true }
	surface := overlay.New(
		overlay.Resolution{Width: cfg.Overlay.DockedWidth, Height: cfg.Overlay.DockedHeight},
		overlay.Resolution{Width: cfg.Overlay.UndockedWidth, Height: cfg.Overlay.UndockedHeight},
		isDocked,
		system.IsRunning,
		nil,
		nil,
	)

	mgr := pluginmanager.New(cfg, system, hidFactory, surface, abi.NewPuregoResolver(), dynlib.Open, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", obs.String("signal", sig.String()))
		cancel()
		select {
		case sig2 := <-sigCh:
			logger.Warn("second signal received, exiting immediately", obs.String("signal", sig2.String()))
			os.Exit(1)
		case <-time.After(5 * time.Second):
		}
	}()

	paths, err := discovery.Scan(cfg.PluginDir)
	if err != nil {
		logger.Fatal("plugin discovery failed", obs.Err(err))
	}
	for _, p := range paths {
		if err := mgr.Load(p); err != nil {
			logger.Warn("plugin load failed", obs.String("path", p), obs.Err(err))
		}
	}

	mgr.SetActive(ctx, true)
	defer mgr.Close()

	if events, err := discovery.Watch(ctx, cfg.PluginDir, logger); err != nil {
		logger.Warn("plugin directory watch disabled", obs.Err(err))
	} else {
		go func() {
			for ev := range events {
				if ev.Removed {
					if err := mgr.Unload(ev.Path); err != nil {
						logger.Warn("plugin unload failed", obs.String("path", ev.Path), obs.Err(err))
					}
					continue
				}
				if err := mgr.Load(ev.Path); err != nil {
					logger.Warn("plugin load failed", obs.String("path", ev.Path), obs.Err(err))
				}
			}
		}()
	}

	if cfg.HTTP.Enabled {
		mgmt := httpapi.NewServer(&cfg.HTTP, mgr, logger)
		go func() {
			if err := mgmt.Start(); err != nil {
				logger.Warn("management api stopped", obs.Err(err))
			}
		}()
		defer func() { _ = mgmt.Shutdown(context.Background()) }()
	}

	system.Run()
	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.RefreshHz))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mgr.Vsync()
		}
	}
}
