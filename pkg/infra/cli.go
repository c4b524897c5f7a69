package infra

import (
	"fmt"

	"github.com/forgeplatform/forge/pkg/config"
	"github.com/forgeplatform/forge/pkg/core"
	"github.com/forgeplatform/forge/pkg/io"
	"github.com/forgeplatform/forge/pkg/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type IacCli struct {
	Graph *core.ResourceGraph
}

var generateIacCfg struct {
	configPath string
	outputDir  string
	appName    string
	verbose    bool
}

func (i *IacCli) AddIacCli(root *cobra.Command) error {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a deployment template from a forge config",
		RunE:  i.GenerateIac,
	}
	flags := generateCmd.Flags()
	flags.StringVarP(&generateIacCfg.configPath, "config", "c", "", "Config file to use")
	flags.StringVarP(&generateIacCfg.outputDir, "output-dir", "o", "", "Output directory to use")
	flags.StringVarP(&generateIacCfg.appName, "app-name", "a", "", "App name override")
	flags.BoolVarP(&generateIacCfg.verbose, "verbose", "v", false, "Verbose flag")
	root.AddCommand(generateCmd)
	return nil
}

func (i *IacCli) GenerateIac(cmd *cobra.Command, args []string) error {
	logger := logging.LogOpts{Verbose: generateIacCfg.verbose}.NewLogger()
	defer logger.Sync() // nolint:errcheck
	zap.ReplaceGlobals(logger)

	if generateIacCfg.configPath == "" {
		return fmt.Errorf("config file required")
	}
	cfg, err := config.ReadConfig(generateIacCfg.configPath)
	if err != nil {
		return errors.Errorf("failed to load config: %s", err.Error())
	}
	if generateIacCfg.appName != "" {
		cfg.AppName = generateIacCfg.appName
	}
	outDir := generateIacCfg.outputDir
	if outDir == "" {
		outDir = cfg.OutDir
	}
	if outDir == "" {
		outDir = "."
	}

	graph, err := BuildGraph(cfg)
	if err != nil {
		return err
	}
	i.Graph = graph

	plugin := Plugin{Config: &cfg}
	files, err := plugin.Translate(graph)
	if err != nil {
		return err
	}
	if err := io.OutputTo(files, outDir); err != nil {
		return err
	}
	for _, f := range files {
		zap.S().Infof("wrote %s", f.Path())
	}
	return nil
}
