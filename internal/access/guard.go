package access

import (
	"fmt"

	"callsync/internal/shared/contextutil"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

// Requests carry the caller id and role next to the resource owner; a policy
// scope of "own" requires the two ids to match.
const modelText = `[request_definition]
r = sub, role, obj, owner, act

[policy_definition]
p = role, obj, act, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.role == p.role && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act) && (p.scope == "any" || (r.owner != "" && r.sub == r.owner))
`

const (
	scopeAny = "any"
	scopeOwn = "own"
)

// DefaultPolicy grants admins everything and employees their own records.
var DefaultPolicy = [][]string{
	{contextutil.RoleAdmin, "*", "*", scopeAny},
	{contextutil.RoleEmployee, string(KindEmployee), string(ActionRead), scopeOwn},
	{contextutil.RoleEmployee, string(KindEmployee), string(ActionIssueCode), scopeOwn},
	{contextutil.RoleEmployee, string(KindRecording), string(ActionRead), scopeOwn},
	{contextutil.RoleEmployee, string(KindRecording), string(ActionList), scopeOwn},
	{contextutil.RoleEmployee, string(KindRecording), string(ActionUpload), scopeOwn},
}

type guard struct {
	enforcer *casbin.SyncedEnforcer
	logger   *zap.Logger
}

func NewGuard(policy [][]string, logger ...*zap.Logger) (Guard, error) {
	l := zap.L().Named("access.guard")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("access.guard")
	}

	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("access: load model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("access: new enforcer: %w", err)
	}

	for _, rule := range policy {
		params := make([]interface{}, len(rule))
		for i, v := range rule {
			params[i] = v
		}
		if _, err := e.AddPolicy(params...); err != nil {
			return nil, fmt.Errorf("access: add policy %v: %w", rule, err)
		}
	}

	return &guard{enforcer: e, logger: l}, nil
}

func (g *guard) Authorize(principal contextutil.Principal, action Action, resource Resource) Decision {
	if principal.ID == "" || principal.Role == "" {
		return Deny(ReasonUnauthenticated)
	}

	ok, err := g.enforcer.Enforce(principal.ID, principal.Role, string(resource.Kind), resource.OwnerID, string(action))
	if err != nil {
		g.logger.Error("policy evaluation failed",
			zap.String("principal_id", principal.ID),
			zap.String("action", string(action)),
			zap.String("kind", string(resource.Kind)),
			zap.Error(err),
		)
		return Deny(ReasonForbidden)
	}
	if !ok {
		return Deny(ReasonForbidden)
	}
	return Allow()
}
