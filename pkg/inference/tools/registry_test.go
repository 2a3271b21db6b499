package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(_ context.Context, in string) (string, error) {
	return strings.ToUpper(in), nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(NewDefinition("Search", "look things up", "query", upper)))
	require.NoError(t, r.Register(NewDefinition("Calculator", "do math", "expression", upper)))
	return r
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Register(NewDefinition("Search", "again", "query", upper))
	require.Error(t, err)

	var dup *DuplicateToolError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "Search", dup.Name)
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_RegisterRejectsIncompleteDefinitions(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(NewDefinition("", "no name", "x", upper)))
	assert.Error(t, r.Register(Definition{Name: "nofunc"}))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_LookupIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)

	first, err := r.Lookup("Calculator")
	require.NoError(t, err)
	second, err := r.Lookup("Calculator")
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Description, second.Description)
	assert.Same(t, first.Parameters, second.Parameters)

	for i := 0; i < 3; i++ {
		_, err := r.Lookup("Unknown")
		var unknown *UnknownToolError
		require.True(t, errors.As(err, &unknown))
		assert.ErrorIs(t, err, ErrUnknownTool)
	}
}

func TestRegistry_InvokeWrapsFailures(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("backend down")
	r.MustRegister(
		NewDefinition("fails", "always fails", "x", func(context.Context, string) (string, error) {
			return "", boom
		}),
		NewDefinition("panics", "always panics", "x", func(context.Context, string) (string, error) {
			panic("kaboom")
		}),
	)

	_, err := r.Invoke(context.Background(), "fails", "x")
	var execErr *ToolExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "fails", execErr.ToolName)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrToolExecution)

	_, err = r.Invoke(context.Background(), "panics", "x")
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, err.Error(), "kaboom")

	_, err = r.Invoke(context.Background(), "missing", "x")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistry_InvokeSuccess(t *testing.T) {
	r := newTestRegistry(t)
	out, err := r.Invoke(context.Background(), "Search", "golang")
	require.NoError(t, err)
	assert.Equal(t, "GOLANG", out)
}

func TestRegistry_InvokeAppliesTimeout(t *testing.T) {
	r := NewRegistry(WithToolConfig(DefaultToolConfig().WithExecutionTimeout(10 * time.Millisecond)))
	r.MustRegister(NewDefinition("slow", "waits", "x", func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))

	_, err := r.Invoke(context.Background(), "slow", "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrToolExecution)
}

func TestRegistry_DescriptionsKeepRegistrationOrder(t *testing.T) {
	r := newTestRegistry(t)
	descs := r.Descriptions()
	require.Len(t, descs, 2)
	assert.Equal(t, "Search", descs[0].Name)
	assert.Equal(t, "Calculator", descs[1].Name)
	assert.Equal(t, []string{"Search", "Calculator"}, r.Names())
}

func TestRegistry_AllowedTools(t *testing.T) {
	r := NewRegistry(WithToolConfig(DefaultToolConfig().WithAllowedTools([]string{"Calculator"})))
	r.MustRegister(
		NewDefinition("Search", "look things up", "query", upper),
		NewDefinition("Calculator", "do math", "expression", upper),
	)

	descs := r.Descriptions()
	require.Len(t, descs, 1)
	assert.Equal(t, "Calculator", descs[0].Name)

	_, err := r.Invoke(context.Background(), "Search", "x")
	assert.ErrorIs(t, err, ErrUnknownTool)
}
