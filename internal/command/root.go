package command

import (
	"os"

	"github.com/adamavenir/storytime/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const AppName = "storytime"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   AppName,
		Short: "storytime - track 1000 books before kindergarten",
		Long: `storytime tracks the books you read with your kids on the way to
1000 books before kindergarten.

Run without arguments to open the interactive app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd)
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("home", "", "data directory (default $STORYTIME_HOME or ~/.storytime)")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewReadersCmd(),
		NewSearchCmd(),
		NewLogCmd(),
		NewBooksCmd(),
		NewStatsCmd(),
		NewRemindCmd(),
		NewOptOutCmd(),
		NewRebuildCmd(),
		NewVersionCmd(version),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}

func runApp(cmd *cobra.Command) error {
	ctx, err := GetContext(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer ctx.Close()

	reg, err := ctx.Registry()
	if err != nil {
		return writeCommandError(cmd, err)
	}

	index, err := ctx.OpenIndex()
	if err != nil {
		ctx.Logger.Warn("book index unavailable", zap.Error(err))
		index = nil
	} else {
		defer index.Close()
	}

	opts := tui.Options{
		Home:     ctx.Home,
		Log:      ctx.Log,
		Index:    index,
		Registry: reg,
		Logger:   ctx.Logger,
	}
	client, err := ctx.Catalog()
	if err != nil {
		opts.CatalogErr = err
	} else {
		opts.Catalog = client
	}
	return tui.Run(opts)
}
