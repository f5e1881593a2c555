package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"beruang/internal/cli"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := cli.CommandContext(context.Background(), cfg.CommandTimeout)
	a := newApp(cfg, logger, os.Stdout, os.Stderr)

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "combine":
		err = a.runCombine(ctx, args)
	case "summary":
		err = a.runSummary(ctx, args)
	case "nett":
		err = a.runNett(ctx, args)
	case "add":
		err = a.runAdd(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		cancel()
		os.Exit(2)
	}
	cancel()
	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "beruang: personal ledger reports")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  beruang <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  combine   Combine the workbook's sheets into a snapshot (.parquet, .db) or CSV")
	fmt.Fprintln(w, "  summary   Lifetime sum, mean, max and min of cost per account and currency")
	fmt.Fprintln(w, "  nett      Net cost per account and currency over time windows")
	fmt.Fprintln(w, "  add       Append one transaction to a CSV file")
	fmt.Fprintln(w, "  help      Show this help message")
	fmt.Fprintln(w, "\nRun 'beruang <command> -h' for more information on a command.")
}
