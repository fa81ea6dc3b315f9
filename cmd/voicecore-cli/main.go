// Command voicecore-cli is example wiring for the voicecore engine: a real
// malgo-backed HostAudioBackend feeding a Coordinator whose transport is an
// in-process loopback, so it exercises the full capture -> encode ->
// transport -> decode -> playback path against a live microphone/speaker
// pair without needing a signaling server or a remote peer.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/bt-bridge/voicecore"
	"github.com/bt-bridge/voicecore/hostaudio"
	"github.com/bt-bridge/voicecore/shared"
	"github.com/bt-bridge/voicecore/transport"
)

const statsDumpInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional; falls back to defaults)")
	deferPlayback := flag.Bool("defer-playback", true, "wait for the prebuffer to fill before starting playback")
	flag.Parse()

	cfg := shared.DefaultConfig()
	if *configPath != "" {
		loaded, err := shared.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := shared.NewFileLogger(
		cfg.Log.Filename, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress,
	).With(zap.String("component", "voicecore-cli"))

	backend, err := hostaudio.NewMalgoBackend(logger)
	if err != nil {
		logger.Error("initializing audio backend", err)
		os.Exit(1)
	}
	defer backend.Close()

	router := transport.NewLoopbackRouter()
	defer router.Close()

	coordinator, err := voicecore.New(backend, router, logger)
	if err != nil {
		logger.Error("constructing coordinator", err)
		os.Exit(1)
	}

	if err := coordinator.Start(cfg.DefaultProfileID, *deferPlayback); err != nil {
		logger.Error("starting coordinator", err)
		os.Exit(1)
	}
	defer coordinator.Stop()

	stdoutHook := shared.NewWriteCloser(os.Stdout)
	if stdoutHook == nil {
		logger.Error("creating stdout hook", nil)
		os.Exit(1)
	}
	printer, err := shared.NewPrinter("  ", stdoutHook)
	if err != nil {
		logger.Error("creating printer", err)
		os.Exit(1)
	}
	defer printer.Close()

	printer.Writeln(fmt.Sprintf("voicecore-cli running, profile=%s (defer_playback=%v)", coordinator.Profile().Name, *deferPlayback), 0)
	printer.Writeln("signals: SIGHUP cycles to the next profile, SIGINT/SIGTERM shuts down", 0)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ticker := time.NewTicker(statsDumpInterval)
	defer ticker.Stop()

	for {
		select {
		case s := <-sig:
			switch s {
			case syscall.SIGHUP:
				if err := coordinator.NextProfile(); err != nil {
					logger.Warn("cycling profile failed", shared.ErrorField(err))
					continue
				}
				printer.Writeln(fmt.Sprintf("switched to profile %s", coordinator.Profile().Name), 0)
			default:
				printer.Writeln("shutting down...", 0)
				return
			}
		case <-ticker.C:
			dumpStats(printer, coordinator)
		}
	}
}

func dumpStats(printer *shared.Printer, coordinator *voicecore.Coordinator) {
	b, err := sonic.Marshal(coordinator.Stats())
	if err != nil {
		return
	}
	printer.Writeln(string(b), 0)
}
