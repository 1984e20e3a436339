package cli

import (
	"fmt"

	"github.com/gophersatwork/jsonmin"
	"github.com/gophersatwork/jsonmin/internal/fsregistry"
	"github.com/gophersatwork/jsonmin/internal/logging"
	"github.com/spf13/cobra"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		outDir string
		ignore []string
	)

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Minimize the JSON files of a directory",
		Long: `Minimize every file under dir (default ".") selected by the configured
test, include and exclude rules. Files are rewritten in place unless --out
is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			logger := logging.GetLogger("run")
			defer logging.LogOperationStart(logger, "run")()

			cfg, err := flags.load()
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return err
			}
			m, err := jsonmin.New(opts, cfg.MinimizerOptions(logging.GetLogger("minimizer"))...)
			if err != nil {
				return err
			}

			regOptions := []fsregistry.Option{
				fsregistry.WithIgnore(ignore...),
				fsregistry.WithLogger(logging.GetLogger("registry")),
			}
			if outDir != "" {
				regOptions = append(regOptions, fsregistry.WithOutputDir(outDir))
			}
			reg, err := fsregistry.New(dir, regOptions...)
			if err != nil {
				return err
			}

			store, err := cfg.OpenStore(logging.GetLogger("cache"))
			if err != nil {
				return err
			}

			report := m.Run(reg, store)
			newPrinter(cmd.OutOrStdout()).Report(report)

			if report.Stats.Failed > 0 {
				return fmt.Errorf("%d of %d assets failed", report.Stats.Failed, report.Stats.Selected)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write minimized files under this directory instead of in place")
	cmd.Flags().StringSliceVar(&ignore, "ignore", []string{"**/node_modules/**", "**/.git/**"}, "glob patterns of files to skip")

	return cmd
}
