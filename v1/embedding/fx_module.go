package embedding

import (
	"context"

	"go.uber.org/fx"
)

// FXModule wires the embedding client into Fx.
//
// It provides:
//   - *Config   (NewConfig, from the environment)
//   - *Client   (NewClient)
//   - Embedder  (the client behind the interface)
var FXModule = fx.Module(
	"embedding",

	fx.Provide(
		NewConfig,
		NewClient,
		fx.Annotate(
			ProvideEmbedder,
			fx.As(new(Embedder)),
		),
	),

	fx.Invoke(RegisterEmbeddingLifecycle),
)

// ProvideEmbedder exposes the client as Embedder.
func ProvideEmbedder(c *Client) Embedder {
	return c
}

// RegisterEmbeddingLifecycle releases the client's resources on shutdown.
func RegisterEmbeddingLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
