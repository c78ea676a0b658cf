package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/rentlink-backend/internal/cli"
)

var Version = "dev"

func main() {
	flags := &cli.Flags{}

	rootCmd := &cobra.Command{
		Use:           "rentlink",
		Short:         "Rent reminders, payment matching and payouts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.Bind(rootCmd)

	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(matchCmd(flags))
	rootCmd.AddCommand(remindCmd(flags))
	rootCmd.AddCommand(migrateCmd(flags))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd(flags *cli.Flags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunServe(flags.LoadConfig(), port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides api.port)")
	return cmd
}

func matchCmd(flags *cli.Flags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Import a bank statement and match its credits to tenants",
		Example: `  rentlink match --file statement.csv
  rentlink match --file june.xlsx --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := cli.Open(ctx, flags.LoadConfig(), "matching")
			if err != nil {
				return err
			}
			defer app.Close()
			return cli.RunMatch(ctx, app, file, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Statement file (.csv or .xlsx)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func remindCmd(flags *cli.Flags) *cobra.Command {
	var (
		date string
		send bool
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Plan rent reminders and list or send the ones due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := cli.ParseRunDate(date, time.Now())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := cli.Open(ctx, flags.LoadConfig(), "reminders")
			if err != nil {
				return err
			}
			defer app.Close()
			return cli.RunRemind(ctx, app, day, send, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Run date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&send, "send", false, "Deliver due reminders and record lastSent")
	return cmd
}

func migrateCmd(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunMigrate(cmd.Context(), flags.LoadConfig(), cmd.OutOrStdout())
		},
	}
}
