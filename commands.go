package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"dysaccess/config"
	"dysaccess/doctor"
	"dysaccess/launcher"
	"dysaccess/registry"
	"dysaccess/shortcut"
	"dysaccess/shutdown"
	"dysaccess/store"
	"dysaccess/toolbar"
)

// cliSession is a registry opened for one command. Writes are flushed and
// their failures collected by close.
type cliSession struct {
	cfg *config.Config
	reg *registry.Registry

	mu   sync.Mutex
	errs []error
}

func openSession(ctx context.Context, f *rootFlags) (*cliSession, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	s := &cliSession{cfg: cfg}
	st, err := store.Open(cfg.Store, cfg.DataDir())
	if err != nil {
		return nil, err
	}
	s.reg = registry.New(st, registry.Options{
		Capacity: cfg.Capacity,
		OnPersistError: func(op registry.Op, id string, err error) {
			s.mu.Lock()
			s.errs = append(s.errs, fmt.Errorf("%s %s: %w", op, id, err))
			s.mu.Unlock()
		},
	})
	if err := s.reg.Load(ctx); err != nil {
		s.reg.Close()
		return nil, fmt.Errorf("load shortcuts: %w", err)
	}
	return s, nil
}

func (s *cliSession) close() error {
	err := s.reg.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(append(s.errs, err)...)
}

// find resolves a shortcut by ID, then by case-insensitive name.
func (s *cliSession) find(ref string) (shortcut.Record, error) {
	if r, err := s.reg.Get(ref); err == nil {
		return r, nil
	}
	for _, r := range s.reg.List() {
		if strings.EqualFold(r.Name, ref) {
			return r, nil
		}
	}
	return shortcut.Record{}, &shortcut.NotFoundError{ID: ref}
}

func newListCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the toolbar shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), f)
			if err != nil {
				return err
			}
			printShortcuts(cmd.OutOrStdout(), s.reg.List())
			return s.close()
		},
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func printShortcuts(w io.Writer, list []shortcut.Record) {
	if len(list) == 0 {
		fmt.Fprintln(w, "Aucun raccourci.")
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "NOM", "TYPE", "CIBLE", "ICÔNE", "COULEUR").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(list) {
				return cellStyle.Foreground(accent(list[row].Color))
			}
			return cellStyle
		})
	for _, r := range list {
		t.Row(r.ID, r.Name, string(r.Kind), r.Target(), string(r.Icon), string(r.Color))
	}
	fmt.Fprintln(w, t)
}

type recordFlags struct {
	name, kind, url, path, icon, color string
}

func (rf *recordFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&rf.name, "name", "", "display name")
	fl.StringVar(&rf.kind, "type", "", "app or web (default: web when --url is set)")
	fl.StringVar(&rf.url, "url", "", "address opened by a web shortcut")
	fl.StringVar(&rf.path, "path", "", "program launched by an app shortcut")
	fl.StringVar(&rf.icon, "icon", "", "icon key: "+strings.Join(shortcut.IconKeys(), ", "))
	fl.StringVar(&rf.color, "color", "", "color key: "+strings.Join(shortcut.ColorKeys(), ", "))
}

// apply overlays the flags that were set on r.
func (rf *recordFlags) apply(cmd *cobra.Command, r shortcut.Record) shortcut.Record {
	fl := cmd.Flags()
	if fl.Changed("name") {
		r.Name = rf.name
	}
	if fl.Changed("url") {
		r.URL = rf.url
		if !fl.Changed("type") && !fl.Changed("path") {
			r.Kind = shortcut.KindWeb
		}
	}
	if fl.Changed("path") {
		r.Path = rf.path
		if !fl.Changed("type") && !fl.Changed("url") {
			r.Kind = shortcut.KindApp
		}
	}
	if fl.Changed("type") {
		r.Kind = shortcut.Kind(rf.kind)
	}
	if fl.Changed("icon") {
		r.Icon = shortcut.IconKey(rf.icon)
	}
	if fl.Changed("color") {
		r.Color = shortcut.ColorKey(rf.color)
	}
	return r
}

func newAddCmd(f *rootFlags) *cobra.Command {
	rf := &recordFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a shortcut to the toolbar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), f)
			if err != nil {
				return err
			}
			r, addErr := s.reg.Add(rf.apply(cmd, toolbar.NewForm(nil).Record()))
			if err := errors.Join(addErr, s.close()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ajouté : %s (%s)\n", r.Name, r.ID)
			return nil
		},
	}
	rf.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newEditCmd(f *rootFlags) *cobra.Command {
	rf := &recordFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id|name>",
		Short: "Modify a shortcut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), f)
			if err != nil {
				return err
			}
			existing, err := s.find(args[0])
			if err != nil {
				s.close()
				return err
			}
			r, updErr := s.reg.Update(existing.ID, rf.apply(cmd, existing))
			if err := errors.Join(updErr, s.close()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Modifié : %s (%s)\n", r.Name, r.ID)
			return nil
		},
	}
	rf.bind(cmd)
	return cmd
}

func newRemoveCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|name>",
		Aliases: []string{"rm"},
		Short:   "Remove a shortcut",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), f)
			if err != nil {
				return err
			}
			r, err := s.find(args[0])
			if err == nil {
				err = s.reg.Remove(r.ID)
			}
			if err := errors.Join(err, s.close()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Supprimé : %s (%s)\n", r.Name, r.ID)
			return nil
		},
	}
}

func newOpenCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open <id|name>",
		Short: "Launch a shortcut's target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), f)
			if err != nil {
				return err
			}
			r, err := s.find(args[0])
			s.close()
			if err != nil {
				return err
			}
			return launcher.New().Open(cmd.Context(), r)
		},
	}
}

func newDoctorCmd(f *rootFlags) *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			ctx, stop := shutdown.Context(cmd.Context())
			defer stop()
			checks := doctor.Default(doctor.Options{
				Config:      cfg,
				Interactive: interactive,
				In:          cmd.InOrStdin(),
				Out:         cmd.OutOrStdout(),
			})
			if code := doctor.Run(ctx, cmd.OutOrStdout(), checks); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&interactive, "interactive", false, "include the hotkey and microphone checks")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dysaccess %s\n", version)
		},
	}
}
