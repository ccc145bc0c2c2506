// Copyright (C) 2026 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/l3montree-dev/imagecatalog/cmd/imagecatalog-cli/commands"
	"github.com/l3montree-dev/imagecatalog/shared"
)

func init() {
	commands.GetRootCmd().AddCommand(commands.NewMigrateCommand())
	commands.GetRootCmd().AddCommand(commands.NewCatalogCommand())
	commands.GetRootCmd().AddCommand(commands.NewPackageCommand())
	commands.GetRootCmd().AddCommand(commands.NewVersionCommand())
	commands.GetRootCmd().AddCommand(commands.NewScanCommand())
	commands.GetRootCmd().AddCommand(commands.NewPurlCommand())
	commands.GetRootCmd().AddCommand(commands.NewDistrosCommand())
	commands.GetRootCmd().AddCommand(commands.NewDaemonCommand())
}

func main() {
	shared.LoadConfig() // nolint: errcheck
	shared.InitLogger(shared.ParseLogLevel(os.Getenv("LOG_LEVEL")))
	if err := execute(); err != nil {
		slog.Error("error executing command", "err", err)
		os.Exit(1)
	}
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.GetRootCmd().ExecuteContext(ctx)
}
