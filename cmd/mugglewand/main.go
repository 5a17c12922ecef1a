package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mugglewand/internal/app"
	"github.com/ayusman/mugglewand/internal/capture"
	"github.com/ayusman/mugglewand/internal/config"
	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/logging"
	"github.com/ayusman/mugglewand/internal/server"
	"github.com/ayusman/mugglewand/internal/store"
	"github.com/ayusman/mugglewand/internal/tray"
)

type options struct {
	configPath string
	replay     string
	loop       bool
	addr       string
	tray       bool
	webDir     string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("mugglewand", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", os.Getenv(config.EnvConfigPath), "path to the YAML config file")
	fs.StringVar(&opts.replay, "replay", "", "replay samples from a .jsonl or .csv recording")
	fs.BoolVar(&opts.loop, "loop", false, "loop the replay recording")
	fs.StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides server.addr)")
	fs.BoolVar(&opts.tray, "tray", false, "show the system tray menu")
	fs.StringVar(&opts.webDir, "web", "", "directory of static files to serve")
	err := fs.Parse(args)
	return opts, err
}

func title() {
	fmt.Println("Welcome to Muggle Wizardry 101: Wand Basics")
	fmt.Println("Customize your own wand gestures!")
	fmt.Println("The default is 4 move gestures.")
	fmt.Println("Let's begin! (Try RIGHT,UP,LEFT,DOWN)")
	fmt.Println("")
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		logrus.WithError(err).Fatal("mugglewand stopped")
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if opts.replay != "" {
		cfg.Source.Replay = opts.replay
		cfg.Source.Loop = cfg.Source.Loop || opts.loop
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.tray {
		cfg.Tray.Enabled = true
	}
	if opts.webDir != "" {
		cfg.Server.StaticDir = opts.webDir
	}
	if err := cfg.Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid config")
	}

	log, err := logging.New(cfg.LogSettings())
	if err != nil {
		return err
	}

	title()

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return pkgerrors.Wrap(err, "create data directory")
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return pkgerrors.Wrap(err, "open store")
	}
	defer st.Close()

	if n, err := st.Spells().SeedDefaults(); err != nil {
		return pkgerrors.Wrap(err, "seed spell book")
	} else if n > 0 {
		log.WithField("spells", n).Info("seeded default spell book")
	}

	spells, err := cfg.SpellTable()
	if err != nil {
		return err
	}

	var source capture.Source
	var ingest *capture.ChanSource
	if cfg.Source.Replay != "" {
		replay, err := capture.OpenReplay(cfg.Source.Replay, cfg.Source.Loop)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"path": replay.Path(), "samples": replay.Remaining()}).Info("replaying samples")
		source = replay
	} else {
		ingest = capture.NewChanSource(0)
		source = ingest
	}
	defer source.Close()

	hub := server.NewHub(log)
	application := app.New(app.Config{
		Store:         st,
		Source:        source,
		Pipeline:      cfg.PipelineSettings(),
		Spells:        spells,
		PluginDir:     cfg.Plugins.Dir,
		PluginTimeout: cfg.PluginTimeout(),
		TickInterval:  cfg.TickInterval(),
		Publisher:     hub,
		Logger:        log,
	})
	if err := application.ReloadSpells(); err != nil {
		return pkgerrors.Wrap(err, "load spell book")
	}
	if err := application.DiscoverPlugins(); err != nil {
		log.WithError(err).Warn("plugin discovery failed")
	}
	for _, sp := range application.Spells() {
		log.Debugf("spell %s", sp)
	}

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.WithField("dir", webDir).Info("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       application,
		Hub:       hub,
		Ingest:    ingest,
		Logger:    log,
	})
	httpSrv := srv.HTTPServer(cfg.Server.Addr)
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("starting server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return err
	}

	wait := func() error {
		select {
		case <-ctx.Done():
		case <-application.Done():
		case err := <-serveErr:
			return pkgerrors.Wrap(err, "server failed")
		}
		return nil
	}

	var runErr error
	if cfg.Tray.Enabled {
		t := tray.New()
		t.SetEnabled(application.IsEnabled())
		t.OnToggle(application.SetEnabled)
		t.OnSettings(func() { openBrowser(log, listenURL(cfg.Server.Addr)) })
		t.OnQuit(stop)

		refresh := func() { t.SetQueue(application.State().Queue) }
		application.OnMove(func(gesture.Move, uint64) { refresh() })
		application.OnTimeout(func(uint64) { refresh() })
		application.OnSpell(func(sp gesture.Spell, _ uint64) {
			t.SetLastSpell(sp.Name)
			refresh()
		})

		waited := make(chan error, 1)
		go func() {
			waited <- wait()
			t.Quit()
		}()
		t.Run()
		stop()
		runErr = <-waited
	} else {
		runErr = wait()
	}

	log.Info("shutting down")
	application.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown failed")
	}
	return runErr
}

// openBrowser opens url with the platform's default handler.
func openBrowser(log logrus.FieldLogger, url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.WithError(err).Warn("failed to open browser")
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mugglewand/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mugglewand", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// listenURL turns a listen address into a browsable URL.
func listenURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
