package transpiler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Init(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockBackend) Transform(ctx context.Context, req Request) (Result, error) {
	args := m.Called(req.Filename)
	return args.Get(0).(Result), args.Error(1)
}

func TestServiceLifecycle(t *testing.T) {
	b := new(mockBackend)
	b.On("Init").Return(errors.New("network down")).Once()
	b.On("Init").Return(nil).Once()
	b.On("Transform", "a.js").Return(Result{Code: "ok"}, nil)

	var observed []string
	s := NewService(b, nil, func(backend string, _ time.Duration, err error) {
		observed = append(observed, backend)
	})
	assert.Equal(t, StateLoading, s.Status().State)

	_, err := s.Transform(context.Background(), Request{Filename: "a.js"})
	assert.True(t, errors.Is(err, ErrUnavailable))

	require.Error(t, s.Init(context.Background()))
	st := s.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "network down", st.Error)
	assert.Equal(t, "mock", st.Backend)

	_, err = s.Transform(context.Background(), Request{Filename: "a.js"})
	assert.True(t, errors.Is(err, ErrUnavailable))

	require.NoError(t, s.Retry(context.Background()))
	assert.True(t, s.Ready())
	assert.Empty(t, s.Status().Error)

	res, err := s.Transform(context.Background(), Request{Filename: "a.js"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Code)
	assert.Equal(t, []string{"mock"}, observed)

	b.AssertExpectations(t)
}

func TestServiceStart(t *testing.T) {
	b := new(mockBackend)
	b.On("Init").Return(nil)

	s := NewService(b, nil, nil)
	s.Start(context.Background())

	assert.Eventually(t, s.Ready, time.Second, 5*time.Millisecond)
}
