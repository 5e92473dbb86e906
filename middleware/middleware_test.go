package middleware

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	eswio "github.com/dzonerzy/esw/io"
)

// MockContext implements the Context interface for testing
type MockContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	args     []string
	command  *MockCommand
	metadata map[string]any
	logger   *eswio.Logger
	out      *bytes.Buffer
}

func NewMockContext() *MockContext {
	ctx, cancel := context.WithCancel(context.Background())
	out := &bytes.Buffer{}
	m := eswio.New().WithOut(out).WithErr(out).NoColor()
	return &MockContext{
		ctx:      ctx,
		cancel:   cancel,
		command:  &MockCommand{name: "test", description: "test command"},
		metadata: make(map[string]any),
		logger:   eswio.NewLogger(m).WithFormat(eswio.LogFormatPlain),
		out:      out,
	}
}

func (m *MockContext) Context() context.Context  { return m.ctx }
func (m *MockContext) Done() <-chan struct{}     { return m.ctx.Done() }
func (m *MockContext) Cancel()                   { m.cancel() }
func (m *MockContext) Args() []string            { return m.args }
func (m *MockContext) Command() Command          { return m.command }
func (m *MockContext) Set(key string, value any) { m.metadata[key] = value }
func (m *MockContext) Get(key string) any        { return m.metadata[key] }
func (m *MockContext) Logger() *eswio.Logger     { return m.logger }

func (m *MockContext) debug() *MockContext {
	m.logger.WithDebug(true)
	return m
}

type MockCommand struct {
	name        string
	description string
}

func (m *MockCommand) Name() string        { return m.name }
func (m *MockCommand) Description() string { return m.description }

func successAction(Context) error { return nil }
func errorAction(Context) error   { return errors.New("test error") }
func panicAction(Context) error   { panic("test panic") }
func slowAction(ctx Context) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

func TestMiddlewareChain(t *testing.T) {
	var order []string

	middleware1 := func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			order = append(order, "before1")
			err := next(ctx)
			order = append(order, "after1")
			return err
		}
	}

	middleware2 := func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			order = append(order, "before2")
			err := next(ctx)
			order = append(order, "after2")
			return err
		}
	}

	action := func(Context) error {
		order = append(order, "action")
		return nil
	}

	if err := Chain(middleware1, middleware2).Apply(action)(NewMockContext()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := []string{"before1", "before2", "action", "after2", "after1"}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected %v, got %v", expected, order)
	}
}

func TestChainUseDoesNotAlias(t *testing.T) {
	base := make(MiddlewareChain, 0, 4)
	base = base.Use(NoopMiddleware())
	a := base.Use(Recovery())
	b := base.Use(Logger())
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("unexpected lengths %d %d", len(a), len(b))
	}
	if len(base) != 1 {
		t.Fatalf("base chain must be untouched, got %d", len(base))
	}
}

func NoopMiddleware() Middleware {
	return func(next ActionFunc) ActionFunc { return next }
}

func TestRecovery(t *testing.T) {
	ctx := NewMockContext().debug()
	err := Recovery()(panicAction)(ctx)

	var recoveryErr *RecoveryError
	if !errors.As(err, &recoveryErr) {
		t.Fatalf("Expected RecoveryError, got %T", err)
	}
	if recoveryErr.Command != "test" || recoveryErr.Panic != "test panic" {
		t.Errorf("unexpected recovery error %+v", recoveryErr)
	}
	if len(recoveryErr.Stack) == 0 {
		t.Error("Expected stack trace to be captured")
	}
	if !strings.Contains(ctx.out.String(), "panic in command 'test': test panic") {
		t.Errorf("stack must be logged in debug mode, got %q", ctx.out.String())
	}
	if err.Error() != "command 'test' panicked: test panic" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRecoveryQuietWithoutDebug(t *testing.T) {
	ctx := NewMockContext()
	if err := Recovery(WithStackTrace(false))(panicAction)(ctx); err == nil {
		t.Fatal("expected error")
	}
	if ctx.out.Len() != 0 {
		t.Errorf("expected no output, got %q", ctx.out.String())
	}
}

func TestRecoveryUnwrapsPanickedErrors(t *testing.T) {
	sentinel := errors.New("boom")
	err := Recovery()(func(Context) error { panic(sentinel) })(NewMockContext())
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the panicked error to be reachable, got %v", err)
	}
}

func TestRecoveryWithHandler(t *testing.T) {
	var seen string
	mw := RecoveryWithHandler(func(p any, command string, _ []byte) error {
		seen = command
		return errors.New("handled")
	})
	err := mw(panicAction)(NewMockContext())
	if err == nil || err.Error() != "handled" || seen != "test" {
		t.Fatalf("handler not applied: %v %q", err, seen)
	}
	if err := mw(successAction)(NewMockContext()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSafeRecoveryStoresMetadata(t *testing.T) {
	ctx := NewMockContext()
	err := SafeRecovery()(panicAction)(ctx)
	if _, ok := err.(*RecoveryError); !ok {
		t.Fatalf("expected RecoveryError, got %T", err)
	}
	if ctx.Get(PanicValueKey) != "test panic" {
		t.Errorf("panic value not stored")
	}
	if s, _ := ctx.Get(PanicStackKey).(string); s == "" {
		t.Errorf("stack not stored")
	}
}

func TestLogger(t *testing.T) {
	ctx := NewMockContext().debug()
	ctx.args = []string{"src/index.ts", "--minify"}

	if err := Logger()(successAction)(ctx); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	out := ctx.out.String()
	if !strings.Contains(out, "start command=test args=src/index.ts --minify\n") {
		t.Errorf("missing start line: %q", out)
	}
	if !strings.Contains(out, "done command=test") {
		t.Errorf("missing done line: %q", out)
	}

	ctx.out.Reset()
	if err := ErrorLogger()(errorAction)(ctx); err == nil {
		t.Fatal("error must be propagated")
	}
	if got := ctx.out.String(); !strings.HasPrefix(got, "fail command=test") || !strings.Contains(got, `error="test error"`) {
		t.Errorf("unexpected fail line %q", got)
	}

	ctx.out.Reset()
	if err := ErrorLogger()(successAction)(ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.out.Len() != 0 {
		t.Errorf("ErrorLogger must skip successes, got %q", ctx.out.String())
	}
}

func TestLoggerSilentWithoutDebug(t *testing.T) {
	ctx := NewMockContext()
	if err := DebugLogger()(successAction)(ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.out.Len() != 0 {
		t.Errorf("expected no output, got %q", ctx.out.String())
	}
}

func TestFormatRequest(t *testing.T) {
	info := &RequestInfo{Command: "watch", Args: []string{"a"}, Duration: 1500 * time.Microsecond}
	got := formatRequest(info, "done", DefaultConfig())
	if got != "done command=watch duration=2ms" {
		t.Errorf("unexpected %q", got)
	}
}

func TestTimeout(t *testing.T) {
	err := Timeout(10 * time.Millisecond)(slowAction)(NewMockContext())
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TimeoutError, got %T", err)
	}
	if te.Command != "test" || te.Duration != 10*time.Millisecond {
		t.Errorf("unexpected %+v", te)
	}

	if err := Timeout(time.Second)(successAction)(NewMockContext()); err != nil {
		t.Errorf("fast action must pass: %v", err)
	}
	if err := Timeout(0)(errorAction)(NewMockContext()); err == nil || err.Error() != "test error" {
		t.Errorf("zero timeout must pass through, got %v", err)
	}
}

func TestTimeoutCancelsContext(t *testing.T) {
	ctx := NewMockContext()
	_ = Timeout(5 * time.Millisecond)(slowAction)(ctx)
	select {
	case <-ctx.Done():
	default:
		t.Fatal("context must be cancelled on timeout")
	}
}

func TestTimeoutExternalCancel(t *testing.T) {
	ctx := NewMockContext()
	ctx.Cancel()
	blocked := func(Context) error {
		time.Sleep(time.Second)
		return nil
	}
	if err := Timeout(time.Minute)(blocked)(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTimeoutRecoversPanics(t *testing.T) {
	err := Timeout(time.Second)(panicAction)(NewMockContext())
	if _, ok := err.(*RecoveryError); !ok {
		t.Fatalf("expected RecoveryError, got %T", err)
	}
}

func TestTimeoutWithGracefulShutdown(t *testing.T) {
	released := false
	action := func(ctx Context) error {
		<-ctx.Done()
		released = true
		return nil
	}
	err := TimeoutWithGracefulShutdown(5*time.Millisecond, time.Second)(action)(NewMockContext())
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected TimeoutError, got %T", err)
	}
	if !released {
		t.Error("action must be given the grace period to return")
	}
}

func TestTimeoutPerCommand(t *testing.T) {
	mw := TimeoutPerCommand(map[string]time.Duration{"test": 5 * time.Millisecond}, 0)
	if _, ok := mw(slowAction)(NewMockContext()).(*TimeoutError); !ok {
		t.Fatal("per-command timeout not applied")
	}

	ctx := NewMockContext()
	ctx.command.name = "other"
	if err := mw(successAction)(ctx); err != nil {
		t.Fatalf("default timeout of 0 must pass through, got %v", err)
	}
}

func TestTimeoutWithDefault(t *testing.T) {
	if err := TimeoutWithDefault()(successAction)(NewMockContext()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := TimeoutWithDefault(WithTimeout(5 * time.Millisecond))(slowAction)(NewMockContext())
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected TimeoutError, got %T", err)
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "<nil>"},
		{"x", "x"},
		{errors.New("e"), "e"},
		{42, "42"},
		{time.Second, "1s"},
	}
	for _, tt := range tests {
		if got := toString(tt.in); got != tt.want {
			t.Errorf("toString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
