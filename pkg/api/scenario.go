package api

import (
	"context"
	"errors"
	"time"
)

// OpName identifies one operation inside a scenario ("users", "theme", ...).
type OpName string

const (
	// OpHello asks for the first operation of a scenario without running it.
	OpHello OpName = "hello"
	// OpStart is accepted as a synonym of OpHello.
	OpStart OpName = "start"

	OpPlugins  OpName = "plugins"
	OpSettings OpName = "settings"
	OpTheme    OpName = "theme"
	OpUsers    OpName = "users"
	OpPosts    OpName = "posts"
	OpPages    OpName = "pages"
	OpMedia    OpName = "media"
	OpProducts OpName = "products"
	OpOrders   OpName = "orders"
	OpCourses  OpName = "courses"
	OpFinalize OpName = "finalize"

	// Teardown operations.
	OpOptions OpName = "options"
	OpThemes  OpName = "themes"
	OpData    OpName = "data"
)

// IsStart reports whether op asks for the first step of a scenario.
// An empty name counts as a start request.
func (op OpName) IsStart() bool {
	return op == "" || op == OpHello || op == OpStart
}

// Builtin reports whether op is one of the operation names declared above.
func (op OpName) Builtin() bool {
	switch op {
	case OpHello, OpStart, OpPlugins, OpSettings, OpTheme, OpUsers, OpPosts,
		OpPages, OpMedia, OpProducts, OpOrders, OpCourses, OpFinalize,
		OpOptions, OpThemes, OpData:
		return true
	}
	return false
}

// Kind names a quantity-bearing entity kind. Operations tagged with a Kind
// are pruned from a scenario when the requested quantity is zero.
type Kind string

const (
	KindUsers    Kind = "users"
	KindPosts    Kind = "posts"
	KindPages    Kind = "pages"
	KindMedia    Kind = "media"
	KindProducts Kind = "products"
	KindOrders   Kind = "orders"
	KindCourses  Kind = "courses"
)

// EnvStatus is the coarse lifecycle label of the whole dataset.
type EnvStatus string

const (
	EnvUnset EnvStatus = ""
	EnvDirty EnvStatus = "dirty"
	EnvClean EnvStatus = "clean"
	EnvReady EnvStatus = "ready"
)

// ScenarioType decides which status gate applies to a scenario.
type ScenarioType int

const (
	// Provisioning scenarios may only start while the environment is clean.
	Provisioning ScenarioType = iota
	// Teardown scenarios are not gated by status.
	Teardown
)

func (t ScenarioType) String() string {
	if t == Teardown {
		return "teardown"
	}
	return "provisioning"
}

// Config carries the caller-supplied parameters of one call. The pipeline
// never stores it; the caller is the system of record for Op and OpArgs.
type Config struct {
	Users    int `json:"users,omitempty" yaml:"users" validate:"gte=0"`
	Posts    int `json:"posts,omitempty" yaml:"posts" validate:"gte=0"`
	Pages    int `json:"pages,omitempty" yaml:"pages" validate:"gte=0"`
	Media    int `json:"media,omitempty" yaml:"media" validate:"gte=0"`
	Products int `json:"products,omitempty" yaml:"products" validate:"gte=0"`
	Orders   int `json:"orders,omitempty" yaml:"orders" validate:"gte=0"`
	Courses  int `json:"courses,omitempty" yaml:"courses" validate:"gte=0"`

	LessonsPerCourse int `json:"lessons_per_course,omitempty" yaml:"lessons_per_course" validate:"gte=0"`
	QuizzesPerCourse int `json:"quizzes_per_course,omitempty" yaml:"quizzes_per_course" validate:"gte=0"`

	Password string `json:"password,omitempty" yaml:"password"`
	Role     string `json:"role,omitempty" yaml:"role"`

	Op     OpName     `json:"op,omitempty" yaml:"op" validate:"omitempty,opname"`
	OpArgs Checkpoint `json:"op_args,omitzero" yaml:"op_args"`
}

// Quantity returns the requested count for kind. Unknown kinds report 0.
func (c Config) Quantity(kind Kind) int {
	switch kind {
	case KindUsers:
		return c.Users
	case KindPosts:
		return c.Posts
	case KindPages:
		return c.Pages
	case KindMedia:
		return c.Media
	case KindProducts:
		return c.Products
	case KindOrders:
		return c.Orders
	case KindCourses:
		return c.Courses
	}
	return 0
}

// Next returns a copy of c positioned at the step described by cont.
func (c Config) Next(cont *Continuation) Config {
	if cont == nil {
		c.Op = ""
		c.OpArgs = Checkpoint{}
		return c
	}
	c.Op = cont.NextOp
	c.OpArgs = cont.OpArgs
	return c
}

// Continuation tells the caller what to request next.
//
// An empty NextOp means the scenario is finished. A non-zero OpArgs means
// the operation named by NextOp must be re-invoked with that checkpoint.
type Continuation struct {
	NextOp OpName     `json:"next_op,omitempty"`
	OpArgs Checkpoint `json:"op_args,omitzero"`
	OpData []string   `json:"op_data,omitempty"`
}

// Complete reports whether the scenario has no further steps.
func (c *Continuation) Complete() bool {
	return c == nil || c.NextOp == ""
}

// HandlerFunc runs one operation.
//
// Return values:
//   - nil, nil: success; the sequencer advances to the natural successor.
//   - cont, nil: chunk output. If cont.NextOp is empty the natural successor
//     is filled in.
//   - nil, SoftStop(...): non-fatal stop; nothing advances.
//   - nil, err: handler failure. An *Error is propagated unchanged; any
//     other error is wrapped with CodeHandler.
type HandlerFunc func(ctx context.Context, cfg Config) (*Continuation, error)

// StepDefinition binds an operation name to its handler.
type StepDefinition struct {
	Name OpName
	Fn   HandlerFunc

	// Quantity, when set, prunes the step if Config.Quantity(Quantity) is 0.
	Quantity Kind
}

// ScenarioDefinition is the canonical, ordered operation set of a scenario.
type ScenarioDefinition struct {
	Name  string
	Type  ScenarioType
	Steps []StepDefinition
}

// StatusStore holds the environment status label.
type StatusStore interface {
	GetStatus(ctx context.Context) (EnvStatus, error)
	SetStatus(ctx context.Context, status EnvStatus) error
}

// RetryPolicy controls how a caller re-issues an identical request after a
// handler error. MaxAttempts includes the first attempt.
//
// Backoff is the delay before the first retry. BackoffMultiplier grows it
// for later retries (default 2.0) and MaxBackoff caps it when > 0.
// Handler errors whose Reason is listed in Permanent are never retried.
type RetryPolicy struct {
	MaxAttempts       int
	Backoff           time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
	Permanent         []string
}

// Retryable reports whether err is a handler error the policy allows to be
// re-issued. Attempt counting is left to the caller.
func (p RetryPolicy) Retryable(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != CodeHandler {
		return false
	}
	for _, reason := range p.Permanent {
		if apiErr.Reason == reason {
			return false
		}
	}
	return true
}

// Delay returns the wait before retry number attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.Backoff <= 0 || attempt < 1 {
		return 0
	}
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 2.0
	}
	d := p.Backoff
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
		if p.MaxBackoff > 0 && d > p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}
