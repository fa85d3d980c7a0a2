package shared

// Permission codes checked by exact string match. No hierarchy is implied by
// the code shape: "user:add" does not grant "page:user".
const (
	PermDashboard  = "page:dashboard"
	PermMenuManage = "page:menu-manage"
	PermMenuEdit   = "menu:edit"

	PermRolePage   = "page:role"
	PermRoleAdd    = "role:add"
	PermRoleEdit   = "role:edit"
	PermRoleDelete = "role:delete"

	PermUserPage   = "page:user"
	PermUserAdd    = "user:add"
	PermUserEdit   = "user:edit"
	PermUserDelete = "user:delete"
)

// AdministratorPermissions is the full default grant seeded onto the
// distinguished administrator role.
func AdministratorPermissions() []string {
	return []string{
		PermDashboard,
		PermMenuManage,
		PermMenuEdit,
		PermRolePage,
		PermRoleAdd,
		PermRoleEdit,
		PermRoleDelete,
		PermUserPage,
		PermUserAdd,
		PermUserEdit,
		PermUserDelete,
	}
}
