package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"dysaccess/audio"
	"dysaccess/clipboard"
	"dysaccess/config"
	"dysaccess/hotkey"
	"dysaccess/launcher"
	"dysaccess/speech"
	"dysaccess/store"
)

// Options selects what Default checks.
type Options struct {
	Config *config.Config
	// Interactive adds the checks that need a person at the keyboard.
	Interactive bool
	In          io.Reader
	Out         io.Writer
}

func Default(opts Options) []Check {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	checks := []Check{
		{"Configuration", func(context.Context) (string, error) { return checkConfig(opts.Config) }},
		{"Shortcut store", func(ctx context.Context) (string, error) { return checkStore(ctx, opts.Config) }},
		{"Program opener", func(context.Context) (string, error) { return checkOpener(runtime.GOOS, exec.LookPath) }},
		{"Clipboard", checkClipboard},
		{"Global hotkey", func(ctx context.Context) (string, error) { return checkHotkey(ctx, opts) }},
		{"Microphone", func(ctx context.Context) (string, error) { return checkMic(ctx, opts) }},
	}
	return checks
}

func checkConfig(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", errors.New("no configuration loaded")
	}
	detail := fmt.Sprintf("%s (store=%s, speech=%s)", cfg.Path(), cfg.Store.Backend, cfg.Speech.Provider)
	if cfg.Speech.APIKey == "" {
		return "", fmt.Errorf("%s: no API key for %s (set GROQ_API_KEY or OPENAI_API_KEY)", detail, cfg.Speech.Provider)
	}
	return detail, nil
}

func checkStore(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", errors.New("no configuration loaded")
	}
	st, err := store.Open(cfg.Store, cfg.DataDir())
	if err != nil {
		return "", err
	}
	defer st.Close()
	recs, err := st.Load(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s backend, %d shortcut(s)", cfg.Store.Backend, len(recs)), nil
}

func checkOpener(goos string, lookPath func(string) (string, error)) (string, error) {
	name, _, err := launcher.Command(goos, "x")
	if err != nil {
		return "", err
	}
	path, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", name, err)
	}
	return path, nil
}

func checkClipboard(ctx context.Context) (string, error) {
	testStr := fmt.Sprintf("dysaccess-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return "", fmt.Errorf("clipboard %s failed: %w", res.phase, res.err)
		}
		if res.readback != testStr {
			return "", fmt.Errorf("clipboard mismatch: wrote %q, got %q", testStr, res.readback)
		}
	case <-time.After(3 * time.Second):
		return "", errors.New("clipboard timed out (clipboard tool hung?)")
	case <-ctx.Done():
		return "", ctx.Err()
	}

	msg, err := clipboard.Verify()
	if err != nil {
		return "write/read verified, paste unavailable: " + err.Error(), nil
	}
	return "write/read verified, " + msg, nil
}

func checkHotkey(ctx context.Context, opts Options) (string, error) {
	msg, err := hotkey.Diagnose()
	if err != nil || !opts.Interactive {
		return msg, err
	}

	defer saveTerminal(opts.In)()
	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		return "", fmt.Errorf("could not register hotkey: %w", err)
	}
	defer hk.Unregister()

	fmt.Fprintf(opts.Out, "Press %s...\n", hotkey.Combo)
	select {
	case <-hk.Keydown():
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		return "hotkey detected", nil
	case <-time.After(10 * time.Second):
		return "", errors.New("timeout waiting for hotkey")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func checkMic(ctx context.Context, opts Options) (string, error) {
	actx, err := audio.NewContext()
	if err != nil {
		return "", fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		return "", fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return "", errors.New("no capture devices found")
	}
	summary := fmt.Sprintf("%d capture device(s)", len(devices))
	if !opts.Interactive || opts.Config == nil {
		return summary, nil
	}

	tr := speech.NewWhisper(opts.Config.Speech)
	if err := tr.Ready(); err != nil {
		return "", err
	}

	restore := saveTerminal(opts.In)
	defer restore()
	reader := bufio.NewReader(opts.In)
	fmt.Fprint(opts.Out, "Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	pcm, err := record(actx, 3*time.Second, opts.Out)
	if err != nil {
		return "", fmt.Errorf("recording error: %w", err)
	}
	if len(pcm) == 0 {
		return "", errors.New("no audio captured")
	}
	data, err := speech.EncodeFLAC(audio.Decode(pcm))
	if err != nil {
		return "", err
	}
	fmt.Fprintf(opts.Out, "  Recorded %.1f KB, transcribing...\n", float64(len(data))/1024)

	text, err := tr.Transcribe(ctx, data)
	if err != nil {
		return "", fmt.Errorf("transcription error: %w", err)
	}
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Fprintf(opts.Out, "\n  Transcribed text: %s\n\n", text)

	restore()
	fmt.Fprint(opts.Out, "Is this correct? [y/n]: ")
	confirm, _ := reader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm != "y" && confirm != "yes" && confirm != "o" && confirm != "oui" {
		return "", errors.New("transcription not confirmed")
	}
	return summary + ", transcription verified by user", nil
}

func record(actx audio.Context, d time.Duration, out io.Writer) ([]byte, error) {
	var pcmBuf []byte
	var bufMu sync.Mutex

	capture, err := actx.NewCapture(nil, audio.DefaultCapture)
	if err != nil {
		return nil, err
	}
	capture.SetCallback(func(data []byte, _ uint32) {
		bufMu.Lock()
		pcmBuf = append(pcmBuf, data...)
		bufMu.Unlock()
	})
	if err := capture.Start(); err != nil {
		capture.Close()
		return nil, err
	}

	fmt.Fprint(out, "  Recording")
	ticker := time.NewTicker(500 * time.Millisecond)
	deadline := time.After(d)
loop:
	for {
		select {
		case <-deadline:
			break loop
		case <-ticker.C:
			fmt.Fprint(out, ".")
		}
	}
	ticker.Stop()

	capture.ClearCallback()
	capture.Stop()
	capture.Close()
	fmt.Fprintln(out, " done")

	bufMu.Lock()
	defer bufMu.Unlock()
	return pcmBuf, nil
}
