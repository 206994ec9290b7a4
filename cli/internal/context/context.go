package context

import (
	"context"
	"sync"

	"github.com/spf13/cobra"
	"oras.land/oras-go/v2/registry/remote"

	v1 "ocm.software/open-component-model/distribution/cli/configuration/v1"
)

type ctxKey string

const key ctxKey = "ocm.software/open-component-model/distribution/cli/internal/context"

// Context is the blobpull command line context.
// It contains pointers to centrally managed structures that are created
// once in the root command and used by its subcommands.
type Context struct {
	mu sync.RWMutex

	// configuration is the merged configuration of the CLI.
	// It is always set by the root command before subcommands run.
	configuration *v1.Config

	// transport replaces the authenticating registry transport when set.
	// Commands build their own transport from the configuration otherwise.
	transport remote.Client
}

// WithConfiguration creates a new context with the given configuration.
// After this function is called, the configuration can be retrieved from the context
// using [FromContext] and [Context.Configuration].
func WithConfiguration(ctx context.Context, cfg *v1.Config) context.Context {
	ctx, cliCtx := retrieveOrCreateContext(ctx)
	cliCtx.mu.Lock()
	defer cliCtx.mu.Unlock()
	cliCtx.configuration = cfg
	return ctx
}

// WithTransport creates a new context with the given registry transport.
func WithTransport(ctx context.Context, transport remote.Client) context.Context {
	ctx, cliCtx := retrieveOrCreateContext(ctx)
	cliCtx.mu.Lock()
	defer cliCtx.mu.Unlock()
	cliCtx.transport = transport
	return ctx
}

// Register registers the command to contain a new Context object.
func Register(cmd *cobra.Command) {
	ctx, _ := retrieveOrCreateContext(cmd.Context())
	cmd.SetContext(ctx)
}

func (ctx *Context) Configuration() *v1.Config {
	if ctx == nil {
		return nil
	}
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.configuration
}

func (ctx *Context) Transport() remote.Client {
	if ctx == nil {
		return nil
	}
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.transport
}

// FromContext retrieves the CLI context from the given context.
// If it does not exist, it returns nil.
func FromContext(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(key).(*Context); ok {
		return v
	}
	return nil
}

func retrieveOrCreateContext(ctx context.Context) (context.Context, *Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	cliCtx := FromContext(ctx)
	if cliCtx == nil {
		cliCtx = &Context{}
		ctx = context.WithValue(ctx, key, cliCtx)
	}
	return ctx, cliCtx
}
