package model

import (
	"context"
	"time"
)

// GameConfig holds runtime game parameters set via CLI flags.
type GameConfig struct {
	Catalog      string        // embedded catalog name or path to a JSON file
	Lang         string        // UI language (es, en)
	AdvanceDelay time.Duration // pause between feedback and the next question
	BasePath     string        // URL prefix for sub-path deployments (e.g. "/historia")
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}
