package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	llmContextKey contextKey = "llm_context"
)

// WithContext returns a context with request-scoped call attributes attached.
// The map is merged with any existing attributes.
func WithContext(ctx context.Context, values map[string]any) context.Context {
	existing := GetContext(ctx)
	if existing == nil {
		existing = make(map[string]any)
	}
	for k, v := range values {
		existing[k] = v
	}
	return context.WithValue(ctx, llmContextKey, existing)
}

// GetContext retrieves the call attributes from context, if present.
func GetContext(ctx context.Context) map[string]any {
	if c, ok := ctx.Value(llmContextKey).(map[string]any); ok {
		copied := make(map[string]any, len(c))
		for k, v := range c {
			copied[k] = v
		}
		return copied
	}
	return nil
}

// WithRunContext tags every model call made under ctx with the run identity.
func WithRunContext(ctx context.Context, runID, tenantID, principalID uuid.UUID) context.Context {
	return WithContext(ctx, map[string]any{
		"run_id":       runID.String(),
		"tenant_id":    tenantID.String(),
		"principal_id": principalID.String(),
	})
}

// WithStage tags model calls with the pipeline stage and routed task.
func WithStage(ctx context.Context, stage string, task TaskType) context.Context {
	return WithContext(ctx, map[string]any{
		"stage": stage,
		"task":  task.String(),
	})
}

// contextFields renders the attached attributes as log fields in key order.
func contextFields(ctx context.Context) []zap.Field {
	values := GetContext(ctx)
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.String(k, fmt.Sprint(values[k])))
	}
	return fields
}
