package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"dysaccess/audio"
	"dysaccess/clipboard"
	"dysaccess/config"
	"dysaccess/dictation"
	"dysaccess/host"
	"dysaccess/hotkey"
	"dysaccess/ipc"
	"dysaccess/log"
	"dysaccess/notify"
	"dysaccess/registry"
	"dysaccess/shutdown"
	"dysaccess/speech"
	"dysaccess/store"
	"dysaccess/toolbar"
	"dysaccess/tray"
)

var version = "dev"

type rootFlags struct {
	configPath string
	logPath    string
	ui         string
	device     string
	fakeAudio  string
	fakeText   string
	setup      bool
	hidden     bool
	debug      bool
	longPress  time.Duration
}

// exitError carries a process exit code out of a command.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func execute(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintf(os.Stderr, "Erreur : %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "dysaccess",
		Short:         "Barre d'outils flottante et dictée vocale pour enfants dyslexiques",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(f)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default: user config dir, or $DYSACCESS_CONFIG)")
	pf.StringVar(&f.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	pf.BoolVar(&f.debug, "debug", false, "debug-level diagnostics")

	fl := root.Flags()
	fl.StringVar(&f.ui, "ui", "", "front end: tui, gui or tray (default from config)")
	fl.BoolVar(&f.hidden, "hidden", false, "start with the toolbar hidden (used by launch at login)")
	fl.StringVar(&f.device, "device", "", "use named microphone device")
	fl.BoolVar(&f.setup, "setup", false, "select microphone device (otherwise uses system default)")
	fl.StringVar(&f.fakeAudio, "fake-audio", "", "feed dictation from a WAV file instead of the microphone")
	fl.StringVar(&f.fakeText, "fake-text", "", "skip the speech service; '|' separates canned utterances")
	fl.DurationVar(&f.longPress, "longpress", hotkey.DefaultLongPress, "hold threshold for push-to-talk vs tap")

	root.AddCommand(
		newListCmd(f),
		newAddCmd(f),
		newEditCmd(f),
		newRemoveCmd(f),
		newOpenCmd(f),
		newDoctorCmd(f),
		newVersionCmd(),
	)
	return root
}

// initCrashLog sends runtime crash output to crash_log.txt before any cgo
// code runs.
func initCrashLog() {
	dir, err := log.ResolveDir(flagValue(os.Args[1:], "logpath"))
	if err != nil {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	crashFile, err := os.OpenFile(filepath.Join(dir, "crash_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// flagValue finds --name=value or --name value in args without parsing the
// rest of the command line.
func flagValue(args []string, name string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		for _, p := range []string{"--" + name, "-" + name} {
			if v, ok := strings.CutPrefix(a, p+"="); ok {
				return v
			}
			if a == p && i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}

// valueFlags are the flags that take a separate argument.
var valueFlags = map[string]bool{
	"config": true, "logpath": true, "ui": true, "device": true,
	"fake-audio": true, "fake-text": true, "longpress": true,
}

// wantsGUI reports whether args start the fyne front end, which has to own
// the main thread. Subcommands never do.
func wantsGUI(args []string) bool {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name, ok := strings.CutPrefix(a, "-")
		if !ok {
			return false
		}
		name = strings.TrimPrefix(name, "-")
		if !strings.Contains(name, "=") && valueFlags[name] {
			i++
		}
	}
	if ui := flagValue(args, "ui"); ui != "" {
		return ui == "gui"
	}
	cfg, err := config.Load(flagValue(args, "config"))
	return err == nil && cfg.UI == "gui"
}

func setupLogging(f *rootFlags) {
	logPath, err := log.ResolveDir(f.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to resolve log directory: %v\n", err)
		return
	}
	log.SetDir(logPath)
	log.SetDebug(f.debug)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
}

// openRegistry loads the configured store. An unreachable store leaves the
// registry on its defaults; the error is returned for reporting.
func openRegistry(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	st, openErr := store.Open(cfg.Store, cfg.DataDir())
	if openErr != nil {
		log.Warnf("open store %s: %v", cfg.Store.Backend, openErr)
		st = nil
	}
	reg := registry.New(st, registry.Options{
		Capacity:       cfg.Capacity,
		OnPersistError: func(op registry.Op, id string, err error) { log.Persistence(op.String(), id, err) },
	})
	if openErr != nil {
		return reg, openErr
	}
	return reg, reg.Load(ctx)
}

// noMic stands in for the recognizer when no audio backend could start.
type noMic struct{ err error }

func (n noMic) Start(context.Context) (dictation.Session, error) {
	return nil, &dictation.Error{Kind: dictation.StartFailure, Err: n.err}
}

func newRecognizer(f *rootFlags, cfg *config.Config) (dictation.Recognizer, string, func()) {
	var tr speech.Transcriber
	if f.fakeText != "" {
		tr = speech.NewFake(nil, strings.Split(f.fakeText, "|")...)
	} else {
		tr = speech.NewWhisper(cfg.Speech)
	}

	var actx audio.Context
	var err error
	if f.fakeAudio != "" {
		actx, err = audio.NewFakeContext(f.fakeAudio, true)
	} else {
		actx, err = audio.NewContext()
	}
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		return noMic{err: err}, tr.Name(), func() {}
	}

	var dev *audio.DeviceInfo
	switch {
	case f.device != "":
		if devices, err := actx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == f.device {
					dev = &devices[i]
					break
				}
			}
		}
		if dev == nil {
			log.Warnf("device not found: %s", f.device)
		}
	case f.setup:
		dev, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\nFalling back to default device\n", err)
			dev = nil
		}
	}
	if dev != nil {
		log.Info("recording_device: " + dev.Name)
	}
	return speech.NewRecognizer(actx, tr, speech.WithDevice(dev)), tr.Name(), actx.Close
}

func runApp(f *rootFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.ui != "" {
		cfg.UI = f.ui
	}

	var (
		win    host.Windows
		tuiWin *tuiWindows
	)
	switch cfg.UI {
	case "tui":
		tuiWin = newTUIWindows()
		win = tuiWin
	case "gui":
		if win, err = guiWindows(); err != nil {
			return err
		}
	case "tray":
	default:
		return fmt.Errorf("unknown ui %q (use tui, gui or tray)", cfg.UI)
	}

	setupLogging(f)
	defer log.Close()

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	notifier := notify.New()

	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		notifier.Error("Raccourcis indisponibles, les raccourcis par défaut sont affichés")
	}

	if cfg.Speech.AutoPaste {
		if err := clipboard.Init(); err != nil {
			log.Warnf("paste init failed: %v", err)
		}
	}

	rec, provider, closeAudio := newRecognizer(f, cfg)
	defer closeAudio()

	focus := &toolbar.Focus{}
	machine := dictation.New(dictation.Options{
		Recognizer: rec,
		Target:     focus,
		Clipboard:  clipboard.New(cfg.Speech.AutoPaste),
		Notifier:   notifier,
		RetryDelay: cfg.Speech.RetryDelay,
	})

	bridge := ipc.New()
	h := host.New(host.Options{
		Windows: win,
		Dialog:  host.NewDialog(),
		Bridge:  bridge,
		Config:  cfg,
	})
	go bridge.Serve(ctx, h)

	client := bridge.Client()
	tb := toolbar.New(reg, client)
	menu := tray.New(h, stop)

	primaryErrs := make(chan error, 4)
	notes, unsubscribe := bridge.Subscribe()
	primary := &host.Primary{
		Registry:  reg,
		Dictation: machine,
		OnError: func(err error) {
			select {
			case primaryErrs <- err:
			default:
			}
		},
	}
	go primary.Run(ctx, notes)

	trayStatus, unfollow := machine.Subscribe()
	go menu.Follow(trayStatus)

	if cfg.UI != "gui" {
		trayQuit := tray.Init(menu)
		go func() {
			select {
			case <-trayQuit:
				stop()
			case <-ctx.Done():
			}
		}()
	}

	if cfg.Hotkey && hotkeyUsable(cfg.UI) {
		hk := hotkey.New()
		if err := hk.Register(); err != nil {
			log.Errorf("hotkey register error: %v", err)
			notifier.Error("Raccourci clavier " + hotkey.Combo + " indisponible")
		} else {
			defer hk.Unregister()
			go hotkey.NewHybrid(hk, f.longPress).Run(ctx, machine)
		}
	}

	log.SessionStart(cfg.UI, cfg.Store.Backend, provider)

	var uiErr error
	switch cfg.UI {
	case "tui":
		uiErr = runTUI(ctx, tuiWin, h, tb, client, focus, machine, primaryErrs, f.hidden)
	case "gui":
		runGUI(ctx, h, tb, client, focus, menu, machine, primaryErrs, f.hidden)
	default:
		h.ApplyStartup()
		go logErrors(ctx, primaryErrs)
		<-ctx.Done()
	}

	// Shutdown: stop input first, then drain writes.
	stop()
	unfollow()
	machine.Close()
	unsubscribe()
	bridge.Close()
	tray.Quit()
	log.SessionEnd(reg.Len(), h.Launches())
	if err := reg.Close(); err != nil {
		log.Warnf("close store: %v", err)
	}
	return uiErr
}

func logErrors(ctx context.Context, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			log.Warnf("toolbar: %v", err)
		}
	}
}

func runTUI(ctx context.Context, win *tuiWindows, h *host.Host, tb *toolbar.Toolbar, client toolbar.Client,
	focus *toolbar.Focus, machine *dictation.Machine, errs <-chan error, hidden bool) error {
	var p *tea.Program
	m := newTUIModel(ctx, tb, client, focus)
	m.send = func(msg tea.Msg) { p.Send(msg) }
	m.hidden = hidden
	m.dictation = machine.Status()
	m.onTop = h.AlwaysOnTop()
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	win.attach(p)
	if hidden {
		win.visible.Store(false)
	}
	// Window changes are messages, which block until the program runs.
	go h.ApplyStartup()

	cancelWatch := tb.Watch(func(registry.Change) {
		p.Send(shortcutsMsg{list: tb.Shortcuts()})
	})
	defer cancelWatch()

	status, unsubscribe := machine.Subscribe()
	defer unsubscribe()
	go func() {
		for s := range status {
			p.Send(dictationMsg{status: s})
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				p.Send(flashMsg{text: formError(err), err: true})
			}
		}
	}()

	_, err := p.Run()
	win.attach(nil)
	focus.Clear()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
