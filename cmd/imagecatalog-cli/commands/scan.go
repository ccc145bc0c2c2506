package commands

import (
	"github.com/l3montree-dev/imagecatalog/scanner"
	"github.com/spf13/cobra"
)

type scanOutput struct {
	Image          string   `json:"image"`
	Distro         string   `json:"distro,omitempty"`
	ScannerVersion string   `json:"scannerVersion"`
	Purls          []string `json:"purls"`
}

// NewScanCommand runs the scanner locally. Nothing is written to the database.
func NewScanCommand() *cobra.Command {
	scan := &cobra.Command{
		Use:     "scan <image>",
		Short:   "Scans an image and prints the found package urls",
		Example: "imagecatalog-cli scan library/alpine:3.19",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			res := scanner.NewInvoker(cfg.ScannerBinary, cfg.ScannerTimeout).Scan(cmd.Context(), args[0])
			if !res.Succeeded() {
				return res.Err
			}
			doc, err := scanner.ParseDocument(res.Output)
			if err != nil {
				return err
			}
			return printJSON(scanOutput{
				Image:          args[0],
				Distro:         doc.Distro.PrettyName,
				ScannerVersion: doc.Descriptor.Version,
				Purls:          doc.Purls(),
			})
		},
	}
	scan.Flags().String("scanner-binary", "", "overrides SCANNER_BINARY")
	scan.Flags().Duration("scanner-timeout", 0, "overrides SCANNER_TIMEOUT")
	return scan
}
