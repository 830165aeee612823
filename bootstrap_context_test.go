package bootevents

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bootstrapClient struct {
	endpoint string
}

func TestBootstrapContext_LazySupplier(t *testing.T) {
	t.Parallel()
	b := NewBootstrapContext()
	var created atomic.Int32
	require.NoError(t, b.Register("client", func(*BootstrapContext) (any, error) {
		created.Add(1)
		return &bootstrapClient{endpoint: "http://config"}, nil
	}))

	assert.True(t, b.IsRegistered("client"))
	assert.Equal(t, int32(0), created.Load())

	first, err := BootstrapInstance[*bootstrapClient](b, "client")
	require.NoError(t, err)
	second, err := BootstrapInstance[*bootstrapClient](b, "client")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, "http://config", first.endpoint)

	err = b.Register("client", func(*BootstrapContext) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrBootstrapInstanceRegistered)
}

func TestBootstrapContext_SupplierDependencies(t *testing.T) {
	t.Parallel()
	b := NewBootstrapContext()
	require.NoError(t, b.RegisterInstance("endpoint", "http://deps"))
	require.NoError(t, b.Register("client", func(b *BootstrapContext) (any, error) {
		endpoint, err := BootstrapInstance[string](b, "endpoint")
		if err != nil {
			return nil, err
		}
		return &bootstrapClient{endpoint: endpoint}, nil
	}))

	client, err := BootstrapInstance[*bootstrapClient](b, "client")
	require.NoError(t, err)
	assert.Equal(t, "http://deps", client.endpoint)
}

func TestBootstrapContext_Errors(t *testing.T) {
	t.Parallel()
	b := NewBootstrapContext()

	_, err := b.Get("missing")
	assert.ErrorIs(t, err, ErrBootstrapInstanceNotFound)
	assert.Equal(t, "fallback", b.GetOrElse("missing", "fallback"))

	assert.ErrorIs(t, b.Register("nil", nil), ErrBootstrapSupplierNil)

	supplierErr := errors.New("cannot dial")
	require.NoError(t, b.Register("failing", func(*BootstrapContext) (any, error) { return nil, supplierErr }))
	_, err = b.Get("failing")
	assert.ErrorIs(t, err, supplierErr)

	require.NoError(t, b.RegisterInstance("number", 42))
	_, err = BootstrapInstance[string](b, "number")
	assert.ErrorIs(t, err, ErrPropertyConversion)
}

func TestBootstrapContext_RegisterIfAbsent(t *testing.T) {
	t.Parallel()
	b := NewBootstrapContext()
	assert.True(t, b.RegisterIfAbsent("v", func(*BootstrapContext) (any, error) { return 1, nil }))
	assert.False(t, b.RegisterIfAbsent("v", func(*BootstrapContext) (any, error) { return 2, nil }))
	assert.False(t, b.RegisterIfAbsent("nil", nil))

	v, err := b.Get("v")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestBootstrapContext_CloseNotifiesOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewBootstrapContext()
	recorder := newRecordingListener("closer")
	b.AddCloseListener(recorder)
	appCtx := NewGenericContext("app", nil, nil)

	require.NoError(t, b.Close(ctx, appCtx))
	require.NoError(t, b.Close(ctx, appCtx))

	events := recorder.received()
	require.Len(t, events, 1)
	closed := events[0].(*BootstrapContextClosedEvent)
	assert.Same(t, b, closed.BootstrapContext)
	assert.Same(t, appCtx, closed.Context)
	assert.Same(t, b, closed.Source())

	assert.ErrorIs(t, b.RegisterInstance("late", 1), ErrBootstrapContextClosed)
	assert.False(t, b.RegisterIfAbsent("late", func(*BootstrapContext) (any, error) { return 1, nil }))
}
