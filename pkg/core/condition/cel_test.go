package condition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Basic(t *testing.T) {
	ev := NewEvaluator()
	ctx := context.Background()

	ok, err := ev.Evaluate(ctx, "true", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Evaluate(ctx, "score > 50", map[string]any{"score": 80})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Evaluate(ctx, "score > 50", map[string]any{"score": 10})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_NestedStepResults(t *testing.T) {
	ev := NewEvaluator()
	data := map[string]any{
		"steps": map[string]any{
			"step_1": map[string]any{"success": true, "response": "qualified"},
		},
		"step_1": map[string]any{"success": true},
	}

	ok, err := ev.Evaluate(context.Background(), `steps.step_1.success && step_1.success`, data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Evaluate(context.Background(), `steps.step_1.response == "qualified"`, data)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_SkipsInvalidIdentifiers(t *testing.T) {
	ev := NewEvaluator()
	ok, err := ev.Evaluate(context.Background(), "a == 1", map[string]any{
		"a":         1,
		"not-ident": 2,
		"in":        3,
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_Errors(t *testing.T) {
	ev := NewEvaluator()
	ctx := context.Background()

	_, err := ev.Evaluate(ctx, "score >", map[string]any{"score": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEvaluation))

	_, err = ev.Evaluate(ctx, "1 + 2", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEvaluation))

	// 未声明的变量
	_, err = ev.Evaluate(ctx, "missing > 1", nil)
	require.Error(t, err)

	// dyn在运行时不是bool
	_, err = ev.Evaluate(ctx, "value", map[string]any{"value": "yes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEvaluation))
}

func TestEvaluate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEvaluator().Evaluate(ctx, "true", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_CostLimit(t *testing.T) {
	ev := NewEvaluator(WithCostLimit(1))
	items := make([]any, 100)
	for i := range items {
		items[i] = i
	}
	_, err := ev.Evaluate(context.Background(), "items.all(x, x >= 0)", map[string]any{"items": items})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEvaluation))
}
