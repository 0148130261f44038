// Package authz decides which roles may call which API routes.
package authz

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

// Anonymous is the subject used for requests without a principal.
const Anonymous = "anonymous"

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

const (
	readMethods  = "^(GET|HEAD)$"
	writeMethods = "^(POST|PUT|DELETE)$"
)

// Enforcer wraps a casbin enforcer loaded with the route policy.
type Enforcer struct {
	e *casbin.Enforcer
}

// NewEnforcer builds the policy for the given CRUD resource paths
// (e.g. "majors" for /api/majors).
func NewEnforcer(resources []string) (*Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	rules := [][]string{
		{Anonymous, "/api/systemInfo", readMethods},
		{model.RoleUser, "/api/currentUser", readMethods},
		{model.RoleUser, "/api/apikeys", "^(GET|POST)$"},
		{model.RoleUser, "/api/apikeys/:key_id", "^DELETE$"},
		{model.RoleUser, "/api/apikeys/:key_id/rotate", "^POST$"},
		{model.RoleAdmin, "/api/admin/*", readMethods},
	}
	for _, res := range resources {
		base := "/api/" + strings.Trim(res, "/")
		rules = append(rules,
			[]string{model.RoleUser, base, readMethods},
			[]string{model.RoleUser, base + "/*", readMethods},
			[]string{model.RoleAdmin, base, writeMethods},
			[]string{model.RoleAdmin, base + "/*", writeMethods},
		)
	}
	if _, err := e.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}
	if _, err := e.AddGroupingPolicy(model.RoleAdmin, model.RoleUser); err != nil {
		return nil, fmt.Errorf("add role inheritance: %w", err)
	}

	return &Enforcer{e: e}, nil
}

// Public reports whether method on path is open to every caller,
// authenticated or not.
func (a *Enforcer) Public(path, method string) (bool, error) {
	ok, err := a.e.Enforce(Anonymous, path, method)
	if err != nil {
		return false, fmt.Errorf("enforce %s: %w", Anonymous, err)
	}
	return ok, nil
}

// Allowed reports whether one of p's roles grants method on path. Public
// rules are not consulted; a nil principal holds no roles.
func (a *Enforcer) Allowed(p *model.Principal, path, method string) (bool, error) {
	if p == nil {
		return false, nil
	}
	for _, role := range p.Roles {
		ok, err := a.e.Enforce(role, path, method)
		if err != nil {
			return false, fmt.Errorf("enforce %s: %w", role, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
