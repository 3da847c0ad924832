package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func appCommands() []*cobra.Command {
	exit := &cobra.Command{
		Use:   "exit",
		Short: "Ask the app server to exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			return c.App.Exit(ctx)
		},
	}

	var numeric bool
	run := &cobra.Command{
		Use:   "run PROGRAM [ARG]...",
		Short: "Start a command on the app server host",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			argv := make([]any, len(args))
			for i, a := range args {
				argv[i] = a
				if numeric {
					if n, err := strconv.ParseFloat(a, 64); err == nil {
						argv[i] = n
					}
				}
			}
			c, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := callContext(cmd)
			defer cancel()
			return c.App.Command(ctx, argv...)
		},
	}
	run.Flags().SetInterspersed(false)
	run.Flags().BoolVar(&numeric, "numbers", false, "send numeric arguments as JSON numbers")
	return []*cobra.Command{exit, run}
}
