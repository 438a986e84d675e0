package ai

import "go.uber.org/fx"

// Module exposes the Gemini client behind its capability interfaces.
var Module = fx.Options(
	fx.Provide(NewGemini),
	fx.Provide(func(g *Gemini) PlanScorer { return g }),
	fx.Provide(func(g *Gemini) ProviderAgent { return g }),
)
