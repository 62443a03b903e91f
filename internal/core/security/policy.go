// Package security decides whether the acting user may mutate a record.
//
// The rule is a CEL expression evaluated against the principal, the record
// owner and the attempted action, so deployments can tighten it without a rebuild.
package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
	"bibliolab/internal/core/id"
)

// Action names a mutating operation subject to the policy.
type Action string

const (
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionRestore    Action = "restore"
	ActionHardDelete Action = "hard_delete"
)

// DefaultMutationRule lets owners change their records and admins change anything.
// Physical removal stays admin-only.
const DefaultMutationRule = `principal.is_admin || (action != "hard_delete" && principal.user_id != "" && record.owner_id == principal.user_id)`

// MutationPolicy authorizes mutations of a single record.
type MutationPolicy interface {
	Authorize(ctx context.Context, action Action, ownerID id.ID) error
}

// CELPolicy is a MutationPolicy backed by a compiled CEL program.
type CELPolicy struct {
	expr string
	prg  cel.Program
}

// NewCELPolicy compiles expr. The expression must evaluate to a bool; field
// accesses on principal and record are dyn and are checked when evaluated.
func NewCELPolicy(expr string) (*CELPolicy, error) {
	if expr == "" {
		expr = DefaultMutationRule
	}

	env, err := cel.NewEnv(
		cel.Variable("principal", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("action", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile policy %q: %w", expr, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("policy %q must evaluate to bool, got %s", expr, t)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}

	return &CELPolicy{expr: expr, prg: prg}, nil
}

// Expression returns the source of the compiled rule.
func (p *CELPolicy) Expression() string {
	return p.expr
}

// Authorize returns nil when the current user may perform action on a record owned by ownerID.
func (p *CELPolicy) Authorize(ctx context.Context, action Action, ownerID id.ID) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	owner := ""
	if !id.IsNil(ownerID) {
		owner = ownerID.String()
	}

	out, _, err := p.prg.Eval(map[string]any{
		"principal": map[string]any{
			"user_id":  user.UserID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
			"roles":    user.Roles,
		},
		"record": map[string]any{
			"owner_id": owner,
		},
		"action": string(action),
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate policy: %w", err))
	}

	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return apperror.NewForbidden("You do not have permission to perform this action").
			WithDetail("action", string(action))
	}
	return nil
}

var _ MutationPolicy = (*CELPolicy)(nil)
