package commands

import (
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/spf13/cobra"
)

func NewPurlCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "purl <identifier>...",
		Short:   "Shows how package urls are stored as dependencies",
		Example: "imagecatalog-cli purl pkg:deb/debian/openssl@3.0.11 pkg:maven/org.slf4j/slf4j-api@2.0.9",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(normalize.ExtractDependencies(args))
		},
	}
}
