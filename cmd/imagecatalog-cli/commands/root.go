package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/l3montree-dev/imagecatalog/config"
	"github.com/l3montree-dev/imagecatalog/daemons"
	"github.com/l3montree-dev/imagecatalog/database"
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/queue"
	"github.com/l3montree-dev/imagecatalog/services"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var rootCmd = &cobra.Command{
	Use:   "imagecatalog-cli",
	Short: "Management cli",
	Long: `The imagecatalog cli runs the catalog, package and bom synchronization
against the configured database without going through the job queue.
A version sync still takes the single flight lock of the version and refuses
to run while a job for it is queued or running.`,
	SilenceUsage: true,
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

// bindFlags makes every flag override the environment variable of the same name,
// --catalog-path overrides CATALOG_PATH.
func bindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), f)
	})
	return err
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v := config.New()
	if err := bindFlags(cmd.Flags(), v); err != nil {
		return config.Config{}, err
	}
	return config.Load(v)
}

// populate builds the service graph and fills targets. The returned func releases the connections.
func populate(cmd *cobra.Command, targets ...any) (func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	db, pool, err := database.NewFromEnv()
	if err != nil {
		return nil, err
	}
	broker := database.NewPostgreSQLBroker(pool)
	closeAll := func() {
		broker.Close()
		pool.Close()
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(db, cfg),
		fx.Provide(func() shared.PubSubBroker { return broker }),
		repositories.Module,
		queue.Module,
		services.ServiceModule,
		daemons.Module,
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		closeAll()
		return nil, fmt.Errorf("could not build application: %w", err)
	}
	return closeAll, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
