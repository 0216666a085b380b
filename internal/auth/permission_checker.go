package auth

// PermissionChecker answers whether a set of permissions allows an action.
type PermissionChecker interface {
	CanManageInvoices(userPermissions []string) bool
	CanVerifyPayments(userPermissions []string) bool
	CanManageSettings(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) CanManageInvoices(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{"manage_invoices", "admin"})
}

func (c *DefaultPermissionChecker) CanVerifyPayments(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{"verify_payments", "admin"})
}

func (c *DefaultPermissionChecker) CanManageSettings(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{"manage_settings", "admin"})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{"admin"})
}
