package optimizer

import "go.uber.org/fx"

// Module exposes the optimizer service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
