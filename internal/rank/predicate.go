package rank

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	userEnv     *cel.Env
	userEnvErr  error
	userEnvOnce sync.Once
)

// getUserEnv returns the shared CEL environment declaring the string
// variable "user"
func getUserEnv() (*cel.Env, error) {
	userEnvOnce.Do(func() {
		userEnv, userEnvErr = cel.NewEnv(
			cel.Variable("user", cel.StringType),
		)
	})
	return userEnv, userEnvErr
}

// CompileUserPredicate compiles a CEL boolean expression over the CAT
// username, for example:
//
//	!user.startsWith("LOAD-") && !user.startsWith("CONV-")
//
// The returned predicate is safe for concurrent use. An evaluation error
// rejects the user.
func CompileUserPredicate(expr string) (func(user string) bool, error) {
	env, err := getUserEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: compile error in %q: %v", ErrInvalidParameter, expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression %q must return bool, got %s", ErrInvalidParameter, expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: program error in %q: %v", ErrInvalidParameter, expr, err)
	}

	return func(user string) bool {
		out, _, err := prg.Eval(map[string]any{"user": user})
		if err != nil {
			return false
		}
		result, ok := out.Value().(bool)
		return ok && result
	}, nil
}
