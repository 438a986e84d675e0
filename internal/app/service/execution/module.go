package execution

import "go.uber.org/fx"

// Module exposes the execution service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
