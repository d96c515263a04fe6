package models

// UserRole represents the closed set of roles known to the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// Capability is a single permission checked by route guards.
type Capability string

const (
	CapCatalogRead      Capability = "catalog:read"
	CapScheduleReadOwn  Capability = "schedule:read:own"
	CapScheduleReadAny  Capability = "schedule:read:any"
	CapScheduleWriteOwn Capability = "schedule:write:own"
	CapScheduleWriteAny Capability = "schedule:write:any"
	CapActivityWriteOwn Capability = "activity:write:own"
	CapActivityWriteAny Capability = "activity:write:any"
	CapMetricsRead      Capability = "metrics:read"
)

var roleCapabilities = map[UserRole]map[Capability]struct{}{
	RoleSuperAdmin: capabilitySet(
		CapCatalogRead,
		CapScheduleReadOwn, CapScheduleReadAny,
		CapScheduleWriteOwn, CapScheduleWriteAny,
		CapActivityWriteOwn, CapActivityWriteAny,
		CapMetricsRead,
	),
	RoleAdmin: capabilitySet(
		CapCatalogRead,
		CapScheduleReadOwn, CapScheduleReadAny,
		CapScheduleWriteOwn, CapScheduleWriteAny,
		CapActivityWriteOwn, CapActivityWriteAny,
		CapMetricsRead,
	),
	RoleTeacher: capabilitySet(
		CapCatalogRead,
		CapScheduleReadOwn,
		CapScheduleWriteOwn,
		CapActivityWriteOwn,
	),
	RoleStudent: capabilitySet(CapCatalogRead),
}

func capabilitySet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Valid reports whether the role belongs to the closed enum.
func (r UserRole) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants the capability. Unknown roles grant nothing.
func (r UserRole) Can(c Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}
