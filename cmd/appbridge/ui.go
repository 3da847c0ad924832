package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localapp/appbridge_go/pkg/appbridge_sdk"
	"github.com/localapp/appbridge_go/pkg/dialogs"
)

type dialogFlags struct {
	title      string
	initialDir string
	initial    string
	defaultExt string
	fileTypes  []string
}

// options returns nil when no flag was set so no args are sent.
func (f dialogFlags) options() (*dialogs.Options, error) {
	opts := dialogs.Options{
		Title:            f.title,
		InitialDir:       f.initialDir,
		InitialFile:      f.initial,
		DefaultExtension: f.defaultExt,
	}
	for _, ft := range f.fileTypes {
		label, pattern, ok := strings.Cut(ft, "=")
		if !ok {
			return nil, fmt.Errorf("file type %q must be LABEL=PATTERN", ft)
		}
		opts.FileTypes = append(opts.FileTypes, dialogs.FileType{Label: label, Pattern: pattern})
	}
	if opts.Title == "" && opts.InitialDir == "" && opts.InitialFile == "" &&
		opts.DefaultExtension == "" && len(opts.FileTypes) == 0 {
		return nil, nil
	}
	return &opts, nil
}

type chooser func(ctx context.Context, c *appbridge_sdk.Clients, opts *dialogs.Options) (string, error)

func dialogCommands() []*cobra.Command {
	return []*cobra.Command{
		dialogCmd("open", "Ask the user to pick a file to open", true,
			func(ctx context.Context, c *appbridge_sdk.Clients, o *dialogs.Options) (string, error) {
				return c.Dialogs.ChooseOpenFile(ctx, o)
			}),
		dialogCmd("save", "Ask the user to pick a file to save to", true,
			func(ctx context.Context, c *appbridge_sdk.Clients, o *dialogs.Options) (string, error) {
				return c.Dialogs.ChooseSaveFile(ctx, o)
			}),
		dialogCmd("folder", "Ask the user to pick a folder", false,
			func(ctx context.Context, c *appbridge_sdk.Clients, o *dialogs.Options) (string, error) {
				return c.Dialogs.ChooseFolder(ctx, o)
			}),
	}
}

func dialogCmd(use, short string, fileFlags bool, choose chooser) *cobra.Command {
	var f dialogFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			picked, err := choose(ctx, c, opts)
			if err != nil {
				return err
			}
			if picked == "" {
				return fmt.Errorf("dialog cancelled")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), picked)
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "dialog title")
	fl.StringVar(&f.initialDir, "initial-dir", "", "folder the dialog starts in")
	if fileFlags {
		fl.StringVar(&f.initial, "initial-file", "", "preselected file name")
		fl.StringVar(&f.defaultExt, "default-ext", "", "extension appended when the user omits one")
		fl.StringArrayVar(&f.fileTypes, "filetype", nil, "file type filter LABEL=PATTERN, repeatable")
	}
	return cmd
}
