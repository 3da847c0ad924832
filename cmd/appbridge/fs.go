package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/localapp/appbridge_go/pkg/remotefs"
)

func fsCommands() []*cobra.Command {
	return []*cobra.Command{
		catCmd(), getCmd(), lsCmd(), statCmd(), putCmd(),
		rmCmd(), mkdirCmd(), rmdirCmd(), cpCmd(), relpathCmd(),
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat PATH",
		Short: "Print a remote text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			text, err := c.FS.ReadText(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get PATH [LOCAL]",
		Short: "Download a remote file to LOCAL or stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			data, err := c.FS.ReadBinary(ctx, args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				return os.WriteFile(args[1], data, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls PATH",
		Short: "List a remote folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			entries, err := c.FS.ReadFolder(ctx, args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), entries, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\n", e.Type, e.Name)
				}
				return tw.Flush()
			})
		},
	}
}

func statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat PATH",
		Short: "Show type and timestamps of a remote path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			st, err := c.FS.GetStats(ctx, args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), st, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "path\t%s\n", st.Path)
				fmt.Fprintf(tw, "type\t%s\n", st.Type)
				fmt.Fprintf(tw, "accessed\t%s\n", st.Accessed.Raw)
				fmt.Fprintf(tw, "modified\t%s\n", st.Modified.Raw)
				fmt.Fprintf(tw, "created\t%s\n", st.Created.Raw)
				return tw.Flush()
			})
		},
	}
}

func putCmd() *cobra.Command {
	var asText bool
	cmd := &cobra.Command{
		Use:   "put PATH [LOCAL]",
		Short: "Upload LOCAL (or stdin) to a remote file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 2 {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			if asText {
				return c.FS.WriteText(ctx, args[0], string(data))
			}
			return c.FS.WriteBytes(ctx, args[0], data)
		},
	}
	cmd.Flags().BoolVar(&asText, "text", false, "send the contents as a text field instead of a binary part")
	return cmd
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm PATH...",
		Short: "Delete remote files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			deleted, err := c.FS.DeleteFiles(ctx, args...)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), deleted, func(w io.Writer) error {
				for i, ok := range deleted {
					status := "deleted"
					if !ok {
						status = "failed"
					}
					fmt.Fprintf(w, "%s\t%s\n", status, args[i])
				}
				return nil
			})
		},
	}
}

func mkdirCmd() *cobra.Command {
	var existOK bool
	cmd := &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a remote folder and its parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			return c.FS.MakeFolder(ctx, args[0], existOK)
		},
	}
	cmd.Flags().BoolVarP(&existOK, "exist-ok", "p", false, "do not fail when the folder exists")
	return cmd
}

func rmdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir PATH",
		Short: "Delete an empty remote folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			return c.FS.DeleteFolder(ctx, args[0])
		},
	}
}

func cpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp SRC DEST [SRC DEST]...",
		Short: "Copy remote files pairwise",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected SRC DEST pairs, got %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]remotefs.CopySpec, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				specs = append(specs, remotefs.CopySpec{Src: args[i], Dest: args[i+1]})
			}
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			return c.FS.CopyFiles(ctx, specs...)
		},
	}
}

func relpathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relpath PATH",
		Short: "Print PATH relative to the server's working folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			rel, err := c.FS.RelativePath(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rel)
			return err
		},
	}
}
