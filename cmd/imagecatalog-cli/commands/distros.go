package commands

import (
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/spf13/cobra"
)

func NewDistrosCommand() *cobra.Command {
	distros := cobra.Command{
		Use:   "distros",
		Short: "Catalog entries",
	}

	distros.AddCommand(&cobra.Command{
		Use:   "missing",
		Short: "Lists distro names found in scans which the catalog does not know",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var matcher shared.DistroMatcher
			closeAll, err := populate(cmd, &matcher)
			if err != nil {
				return err
			}
			defer closeAll()

			missing, err := matcher.MissingFromCatalog()
			if err != nil {
				return err
			}
			return printJSON(missing)
		},
	})

	return &distros
}
