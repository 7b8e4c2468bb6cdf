package machine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentsim/core"
)

// fakeEnv satisfies core.EnvironmentHandle with a scripted reply.
type fakeEnv struct {
	submitFn func(ctx context.Context, op core.Operation) (core.ExecutionResult, error)
}

func (f *fakeEnv) Submit(ctx context.Context, op core.Operation) (core.ExecutionResult, error) {
	if f.submitFn == nil {
		return core.ExecutionResult{}, nil
	}
	return f.submitFn(ctx, op)
}

// fakeMessager satisfies core.MessagerHandle around a plain channel.
type fakeMessager struct {
	id     string
	stream chan core.InboundItem
}

func newFakeMessager(id string) *fakeMessager {
	return &fakeMessager{id: id, stream: make(chan core.InboundItem, 16)}
}

func (f *fakeMessager) ID() string                      { return f.id }
func (f *fakeMessager) Send(core.Message) error         { return nil }
func (f *fakeMessager) Stream() <-chan core.InboundItem { return f.stream }
func (f *fakeMessager) push(item core.InboundItem)      { f.stream <- item }
func (f *fakeMessager) end()                            { close(f.stream) }

// MockBehavior scripts Startup/Process via testify mock.
type MockBehavior struct {
	mock.Mock
}

func (m *MockBehavior) Startup(ctx context.Context, env core.EnvironmentHandle, msgr core.MessagerHandle) (<-chan core.InboundItem, error) {
	args := m.Called(ctx, env, msgr)
	stream, _ := args.Get(0).(<-chan core.InboundItem)
	return stream, args.Error(1)
}

func (m *MockBehavior) Process(ctx context.Context, item core.InboundItem) (core.Signal, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(core.Signal), args.Error(1)
}

func runMachine(t *testing.T, m *StateMachine, env core.EnvironmentHandle, msgr core.MessagerHandle) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Run(context.Background(), env, msgr)
	}()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("state machine did not terminate")
		return nil
	}
}

func TestStateMachine_HaltsWhenSequenceEnds(t *testing.T) {
	msgr := newFakeMessager("alice")

	behavior := &MockBehavior{}
	behavior.On("Startup", mock.Anything, mock.Anything, mock.Anything).Return(msgr.Stream(), nil)
	behavior.On("Process", mock.Anything, mock.Anything).Return(core.Continue, nil).Twice()

	m := New("alice", behavior)
	assert.Equal(t, Uninitialized, m.State())

	errCh := runMachine(t, m, &fakeEnv{}, msgr)

	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice")})
	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice")})
	msgr.end()

	assert.NoError(t, waitErr(t, errCh))
	assert.Equal(t, Halted, m.State())
	behavior.AssertExpectations(t)
}

func TestStateMachine_HaltSignalIsTerminal(t *testing.T) {
	msgr := newFakeMessager("alice")

	behavior := &MockBehavior{}
	behavior.On("Startup", mock.Anything, mock.Anything, mock.Anything).Return(msgr.Stream(), nil)
	behavior.On("Process", mock.Anything, mock.Anything).Return(core.Halt, nil).Once()

	m := New("alice", behavior)
	errCh := runMachine(t, m, &fakeEnv{}, msgr)

	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice")})
	require.NoError(t, waitErr(t, errCh))
	assert.Equal(t, Halted, m.State())

	// Items pushed after the halt are never processed.
	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice")})
	time.Sleep(50 * time.Millisecond)
	behavior.AssertNumberOfCalls(t, "Process", 1)
}

func TestStateMachine_BehaviorErrorIsContained(t *testing.T) {
	msgr := newFakeMessager("alice")

	behavior := &MockBehavior{}
	behavior.On("Startup", mock.Anything, mock.Anything, mock.Anything).Return(msgr.Stream(), nil)
	behavior.On("Process", mock.Anything, mock.Anything).Return(core.Continue, fmt.Errorf("bad item")).Once()
	behavior.On("Process", mock.Anything, mock.Anything).Return(core.Halt, nil).Once()

	m := New("alice", behavior)
	errCh := runMachine(t, m, &fakeEnv{}, msgr)

	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice")})
	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice")})

	assert.NoError(t, waitErr(t, errCh), "a contained behavior error never surfaces from Run")
	behavior.AssertNumberOfCalls(t, "Process", 2)
}

func TestStateMachine_ProcessPanicIsContained(t *testing.T) {
	msgr := newFakeMessager("alice")

	panicking := &scriptedBehavior{
		startup: func() (<-chan core.InboundItem, error) { return msgr.Stream(), nil },
		process: func(item core.InboundItem) (core.Signal, error) {
			if msg, ok := item.(core.Message); ok && string(msg.Data) == "boom" {
				panic("behavior bug")
			}
			return core.Halt, nil
		},
	}

	m := New("alice", panicking)
	errCh := runMachine(t, m, &fakeEnv{}, msgr)

	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice"), Data: []byte("boom")})
	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice"), Data: []byte("ok")})

	assert.NoError(t, waitErr(t, errCh))
	assert.Equal(t, Halted, m.State())
}

func TestStateMachine_EnvironmentUnavailableIsFatal(t *testing.T) {
	msgr := newFakeMessager("alice")
	env := &fakeEnv{submitFn: func(ctx context.Context, op core.Operation) (core.ExecutionResult, error) {
		return core.ExecutionResult{}, fmt.Errorf("submit: %w", core.ErrEnvironmentUnavailable)
	}}

	submitting := &scriptedBehavior{
		startup: func() (<-chan core.InboundItem, error) { return msgr.Stream(), nil },
		process: func(core.InboundItem) (core.Signal, error) {
			_, err := env.Submit(context.Background(), core.NewOperation("alice", "op"))
			return core.Continue, err
		},
	}

	m := New("alice", submitting)
	errCh := runMachine(t, m, env, msgr)

	msgr.push(core.Message{From: "bob", To: core.ToAgent("alice")})

	err := waitErr(t, errCh)
	assert.ErrorIs(t, err, core.ErrEnvironmentUnavailable)
	assert.Equal(t, Halted, m.State())
}

func TestStateMachine_StartupFailureHalts(t *testing.T) {
	behavior := &MockBehavior{}
	behavior.On("Startup", mock.Anything, mock.Anything, mock.Anything).Return((<-chan core.InboundItem)(nil), errors.New("cannot start"))

	m := New("alice", behavior)
	err := m.Run(context.Background(), &fakeEnv{}, newFakeMessager("alice"))

	var berr *core.BehaviorError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "alice", berr.AgentID)
	assert.Equal(t, Halted, m.State())
	behavior.AssertNotCalled(t, "Process")
}

func TestStateMachine_RunIsSingleUse(t *testing.T) {
	behavior := &MockBehavior{}
	behavior.On("Startup", mock.Anything, mock.Anything, mock.Anything).Return(closedStream(), nil).Once()

	m := New("alice", behavior)
	msgr := newFakeMessager("alice")

	require.NoError(t, m.Run(context.Background(), &fakeEnv{}, msgr))
	require.Equal(t, Halted, m.State())

	err := m.Run(context.Background(), &fakeEnv{}, msgr)
	assert.ErrorIs(t, err, core.ErrAlreadyRunning)
	assert.Equal(t, Halted, m.State(), "halt is irreversible")
	behavior.AssertNumberOfCalls(t, "Startup", 1)
}

func TestStateMachine_CancellationStopsAtSuspensionPoint(t *testing.T) {
	msgr := newFakeMessager("alice")

	behavior := &MockBehavior{}
	behavior.On("Startup", mock.Anything, mock.Anything, mock.Anything).Return(msgr.Stream(), nil)

	m := New("alice", behavior)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx, &fakeEnv{}, msgr) }()

	cancel()

	err := waitErr(t, errCh)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Halted, m.State())
}

// scriptedBehavior wires plain funcs as a Behavior for cases where
// testify's mock cannot express panics or closures cleanly.
type scriptedBehavior struct {
	startup func() (<-chan core.InboundItem, error)
	process func(item core.InboundItem) (core.Signal, error)
}

func (s *scriptedBehavior) Startup(context.Context, core.EnvironmentHandle, core.MessagerHandle) (<-chan core.InboundItem, error) {
	return s.startup()
}

func (s *scriptedBehavior) Process(_ context.Context, item core.InboundItem) (core.Signal, error) {
	return s.process(item)
}

func closedStream() <-chan core.InboundItem {
	ch := make(chan core.InboundItem)
	close(ch)
	return ch
}
