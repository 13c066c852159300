// Package cli is the inventario command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Inventario/internal/app"
	"Inventario/internal/config"
	"Inventario/pkg/kit"
)

const serviceName = "inventario"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "inventario",
		Short:         "Inventario - pet store stock with an audit trail",
		Long:          "Manage products, stock adjustments and the change history of a small pet store inventory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log diagnostics to stderr")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoAmICommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func (o *RootOptions) logger(cfg config.Config) *zap.Logger {
	return kit.NewLogger(serviceName, kit.LogOptions{
		Mode:     cfg.Logger.Mode,
		Filename: logFile(cfg),
	})
}

func logFile(cfg config.Config) string {
	if !cfg.Logger.FileEnable {
		return ""
	}
	return cfg.Logger.Filename
}

// openApp loads the configuration and opens the store for a one-shot
// command. Logging is off unless --verbose is set or a log file is
// configured.
func (o *RootOptions) openApp(cmd *cobra.Command, f *OutputFormatter) (*app.App, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		_ = f.Error(CodeGeneric, err.Error())
		return nil, &ExitError{Code: ExitCommandError, Message: "load config", Err: err}
	}

	log := zap.NewNop()
	if o.Verbose || cfg.Logger.FileEnable {
		log = o.logger(cfg)
	}

	a, err := app.Open(cmd.Context(), cfg, log, app.Options{})
	if err != nil {
		_ = f.Error(CodeGeneric, err.Error())
		return nil, &ExitError{Code: ExitCommandError, Message: "open store", Err: err}
	}
	return a, nil
}
