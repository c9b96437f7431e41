package authz

import (
	"fmt"
	"net/http"

	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/schema"
)

// EntityPrefix 实体网关路由前缀
const EntityPrefix = "/api"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// guestExtraPolicies 实体网关之外的游客路由
var guestExtraPolicies = []Policy{
	{Object: "/health", Action: http.MethodGet},
	{Object: "/api/auth/login", Action: http.MethodPost},
	{Object: "/api/captcha", Action: http.MethodGet},
	{Object: "/api/posts/:id/view", Action: http.MethodPost},
}

// EntityRoutes 返回实体操作对应的路由与方法
func EntityRoutes(entity schema.Entity, op schema.Operation) Policy {
	collection := EntityPrefix + "/" + string(entity)
	switch op {
	case schema.OpList:
		return Policy{Object: collection, Action: http.MethodGet}
	case schema.OpGet:
		return Policy{Object: collection + "/:id", Action: http.MethodGet}
	case schema.OpCreate:
		return Policy{Object: collection, Action: http.MethodPost}
	case schema.OpUpdate:
		return Policy{Object: collection + "/:id", Action: http.MethodPut}
	default:
		return Policy{Object: collection + "/:id", Action: http.MethodDelete}
	}
}

// BuiltinRoleSeeds 由实体注册表生成角色矩阵
// 游客只拿到注册表声明的游客操作；管理员继承游客并放开全部路由。
func BuiltinRoleSeeds(defs []*schema.Definition) []RoleSeed {
	guest := RoleSeed{Role: constants.RoleGuest}
	guest.Policies = append(guest.Policies, guestExtraPolicies...)
	for _, def := range defs {
		for _, op := range def.GuestOperations {
			if def.GuestAllows(op) {
				guest.Policies = append(guest.Policies, EntityRoutes(def.Entity, op))
			}
		}
	}
	admin := RoleSeed{
		Role:     constants.RoleAdmin,
		Inherits: []string{constants.RoleGuest},
		Policies: []Policy{{Object: "/api/*", Action: "*"}},
	}
	return []RoleSeed{guest, admin}
}

// SyncRoles 用给定角色矩阵覆盖库中策略
// 先清空预置角色的旧策略，注册表收紧后不会残留越权规则。
func (s *Service) SyncRoles(seeds []RoleSeed) error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}

	for _, seed := range seeds {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.RemoveFilteredPolicy(0, role); err != nil {
			return fmt.Errorf("clear role policy failed: %w", err)
		}
		if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, role); err != nil {
			return fmt.Errorf("clear role link failed: %w", err)
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}

// BootstrapFromRegistry 按实体注册表初始化策略
func (s *Service) BootstrapFromRegistry() error {
	return s.SyncRoles(BuiltinRoleSeeds(schema.All()))
}
