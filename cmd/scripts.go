package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"autoexec/models"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	activeStyle   = color.New(color.FgBlue, color.Bold)
	orphanedStyle = color.New(color.FgMagenta)
	inactiveStyle = color.New(color.Reset)
)

func newListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every script and whether it is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			folder := s.Engine.SourceFolder()
			if folder == "" {
				folder = "(not set)"
			}
			fmt.Fprintf(out, "Scripts folder:  %s\n", folder)
			fmt.Fprintf(out, "Autoexec folder: %s\n", s.Engine.Destination())
			fmt.Fprintln(out)

			scripts := s.Engine.Scan().Scripts()
			if len(scripts) == 0 {
				fmt.Fprintln(out, "No scripts found.")
				return nil
			}

			for _, script := range scripts {
				mark := "[ ]"
				if script.Checked() {
					mark = "[x]"
				}
				line := fmt.Sprintf("%s %s (%s)", mark, script.Name, script.State())
				if s.Engine.Mode() == models.ModeSingle && script.Name == s.Engine.Selected() {
					line += " *selected*"
				}
				styleFor(script.State()).Fprintln(out, line)
			}
			return nil
		},
	}
}

func newActivateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "activate NAME...",
		Short: "Copy scripts into the autoexec folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			var errs []error
			for _, name := range args {
				errs = append(errs, s.Engine.Toggle(name, true))
			}
			return errors.Join(errs...)
		},
	}
}

func newDeactivateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate NAME...",
		Short: "Remove scripts from the autoexec folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			var errs []error
			for _, name := range args {
				errs = append(errs, s.Engine.Deactivate(name))
			}
			return errors.Join(errs...)
		},
	}
}

func newSelectCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "select NAME",
		Short: "Make NAME the only active script (single mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return s.Engine.Select(args[0])
		},
	}
}

func newClearCmd(v *viper.Viper) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every script from the autoexec folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all scripts without --yes")
			}
			s, err := newSession(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if s.Engine.Mode() == models.ModeSingle {
				return s.Engine.SelectNone()
			}
			removed, err := s.Engine.DeactivateAll()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d scripts.\n", len(removed))
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting every script")
	return cmd
}

func newFolderCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "folder PATH",
		Short: "Set the scripts folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Wrapf(err, "invalid path %q", args[0])
			}
			info, err := os.Stat(path)
			if err != nil {
				return errors.Wrapf(err, "cannot use %q as scripts folder", path)
			}
			if !info.IsDir() {
				return errors.Newf("%q is not a folder", path)
			}

			s, err := newSession(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return s.Engine.SetSourceFolder(path)
		},
	}
}

func styleFor(state models.ScriptState) *color.Color {
	switch state {
	case models.StateActive:
		return activeStyle
	case models.StateOrphaned:
		return orphanedStyle
	default:
		return inactiveStyle
	}
}
