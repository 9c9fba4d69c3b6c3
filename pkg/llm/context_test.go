package llm

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContext_MergesWithoutMutatingParent(t *testing.T) {
	parent := WithContext(context.Background(), map[string]any{"a": 1})
	child := WithContext(parent, map[string]any{"b": 2})

	assert.Equal(t, map[string]any{"a": 1}, GetContext(parent))
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, GetContext(child))
}

func TestGetContext_EmptyContext(t *testing.T) {
	assert.Nil(t, GetContext(context.Background()))
	assert.Nil(t, contextFields(context.Background()))
}

func TestContextFields_SortedByKey(t *testing.T) {
	runID := uuid.New()
	ctx := WithRunContext(context.Background(), runID, uuid.New(), uuid.New())
	ctx = WithStage(ctx, "draft", TaskDraft)

	fields := contextFields(ctx)
	require.Len(t, fields, 5)

	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"principal_id", "run_id", "stage", "task", "tenant_id"}, keys)
	assert.Equal(t, runID.String(), fields[1].String)
	assert.Equal(t, "draft", fields[2].String)
}
