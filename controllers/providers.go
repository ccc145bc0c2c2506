package controllers

import "go.uber.org/fx"

var ControllerModule = fx.Options(
	fx.Provide(NewPackageController),
	fx.Provide(NewDistroController),
	fx.Provide(NewDependencyController),
	fx.Provide(NewScannerController),
)
