package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imgsqueeze/compressor"
	"github.com/imgsqueeze/config"
	"github.com/imgsqueeze/controller"
	"github.com/imgsqueeze/logger"
	"github.com/imgsqueeze/web/dataurl"
)

var (
	cfg *config.Config
	log *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imgsqueeze",
	Short: "Compress images from the browser or the command line",
	Long: strings.TrimSpace(`
Upload an image, move the quality slider, preview the size trade-off and download the result.
Settings are read from IMGSQUEEZE_* environment variables and an optional .env file.
    `),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")

		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.LogLevel, cfg.Development())
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

// newController wires controller to in-process compressor running on pool.
func newController(pool *compressor.Pool, quality int) *controller.Controller {
	return controller.New(
		compressor.New(pool, cfg.Compressor.MaxIteration, log),
		dataurl.NewDecoder(),
		log,
		controller.WithQuality(quality),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Env file with IMGSQUEEZE_* settings")
	rootCmd.AddCommand(serveCmd, compressCmd)
}
