package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fmueller/mlx-transcribe/internal/cli"
	"github.com/spf13/cobra"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}

	cmd := cli.NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		if isUsageError(err) {
			fmt.Fprint(stderr, usageTarget(cmd, args).UsageString())
			return exitUsage
		}
		return exitFailure
	}
	return 0
}

func isUsageError(err error) bool {
	if err == nil {
		return false
	}
	if cli.IsUsageError(err) {
		return true
	}

	message := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"accepts ",
		"required flag",
	}

	for _, pattern := range patterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}

	return false
}

func usageTarget(root *cobra.Command, args []string) *cobra.Command {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return root
	}

	found, _, err := root.Find(args)
	if err == nil && found != nil {
		return found
	}

	return root
}
