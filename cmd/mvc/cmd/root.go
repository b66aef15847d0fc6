package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mvc-server/internal/common/logging"
	"mvc-server/internal/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand assembles the mvc command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "mvc",
		Short: "Request dispatcher with annotation-style components",
		Long: `mvc bootstraps the components registered under scanPackage, wires
their dependencies and maps controller handlers to URL paths.

Examples:
  mvc serve --config configs/application.properties
  mvc routes --config configs/application.yaml
  mvc beans`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "configs/application.properties",
		"config file (.properties, .yaml, .toml or .json)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"override log.level from the config file")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newRoutesCommand(opts))
	root.AddCommand(newBeansCommand(opts))
	return root
}

func (o *rootOptions) load() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.LoadApp(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger, err := logging.NewLogger("mvc", logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
