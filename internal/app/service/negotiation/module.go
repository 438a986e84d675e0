package negotiation

import "go.uber.org/fx"

// Module exposes the negotiation service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
