// Package service provides the service registry for tool providers.
//
// Tool IDs have the form "<service>.<tool>"; the registry routes each call to
// the provider registered under the service part.
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(terminal.NewProvider(manager))
//	result, err := registry.Execute(ctx, "terminal.cwd", params, appCtx)
package service
