package auth

// HasPermission is true for the admin role, otherwise when required is assigned.
func HasPermission(assigned []string, required, role string) bool {
	if IsAdminRoleName(role) {
		return true
	}
	for _, p := range assigned {
		if p == required {
			return true
		}
	}
	return false
}

func HasAnyPermission(assigned, required []string, role string) bool {
	if IsAdminRoleName(role) {
		return true
	}
	for _, r := range required {
		if HasPermission(assigned, r, role) {
			return true
		}
	}
	return false
}

func HasAllPermissions(assigned, required []string, role string) bool {
	if IsAdminRoleName(role) {
		return true
	}
	for _, r := range required {
		if !HasPermission(assigned, r, role) {
			return false
		}
	}
	return true
}
