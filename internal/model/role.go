package model

// Role はログインユーザーの権限区分を表す。
// 取りうる値は RoleSuperAdmin、RoleAdmin、RoleTeamLead の3つに限られる。
type Role string

const (
	// RoleSuperAdmin は全データを管理できるスーパー管理者。
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin は売上承認とチームリーダー管理を行う管理者。
	RoleAdmin Role = "admin"
	// RoleTeamLead は自チームの売上と営業担当者を管理するチームリーダー。
	RoleTeamLead Role = "tl"
)

// Roles は定義済みの全ロールを返す。
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleTeamLead}
}

// Valid はロールが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleTeamLead:
		return true
	default:
		return false
	}
}

// DisplayName は画面表示用のロール名を返す。
func (r Role) DisplayName() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleTeamLead:
		return "Team Lead"
	default:
		return string(r)
	}
}
