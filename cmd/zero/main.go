// Command zero boots an embedded JavaScript engine and runs one entry
// module, script, eval source or an interactive session.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/engine"
	"github.com/cryguy/zero/internal/kernel"
	"github.com/cryguy/zero/internal/natives"
)

func main() {
	code := 0
	rootCmd := &cobra.Command{
		Use:   "zero [OPTIONS] <entry>",
		Short: "Run JavaScript on an embedded engine",
		Long:  kernel.Help,
		// the kernel owns the whole argument vector, including -h and -v
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			code, err = run(cmd.Context())
			return err
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(ctx context.Context) (int, error) {
	opts, err := core.LoadHostOptions()
	if err != nil {
		return 1, err
	}
	level, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		return 1, fmt.Errorf("ZERO_LOG_LEVEL: %w", err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "zero",
		Level:  level,
	})

	proc, err := core.NewProcess(os.Args)
	if err != nil {
		return 1, fmt.Errorf("reading process state: %w", err)
	}
	proc.Versions["engine"] = engine.Name

	cfg, err := core.ParseConfig(natives.EmbeddedConfig())
	if err != nil {
		return 1, err
	}

	return kernel.Run(ctx, os.Args, kernel.Options{
		Process: proc,
		Config:  cfg,
		Logger:  logger,
		NewRuntime: func() (core.JSRuntime, error) {
			return engine.New(opts.MemoryLimitMB)
		},
	}), nil
}
