// Package guard はロールに基づく画面遷移の可否判定を提供する。
// 判定は副作用のない純粋関数で、描画フレームワークから独立してテストできる。
package guard

import "github.com/hitoshi/salesdash/internal/model"

// LoginPath はログイン画面の遷移先。
const LoginPath = "/login"

// 各ロールのダッシュボードの遷移先。
const (
	SuperAdminPath = "/super-admin"
	AdminPath      = "/admin"
	TeamLeadPath   = "/tl"
)

// Action は判定結果の種類。
type Action string

const (
	ActionRender   Action = "render"
	ActionRedirect Action = "redirect"
)

// Verdict はルートガードの判定結果。
// ActionがRedirectの場合、Locationに遷移先が入る。
type Verdict struct {
	Action   Action
	Location string
}

// Allowed は描画が許可されたかどうかを返す。
func (v Verdict) Allowed() bool {
	return v.Action == ActionRender
}

// Decide はセッションと許可ロールの組から描画可否を判定する。
// セッションが認証済みかつロールが許可ロールに含まれる場合のみ描画を許可し、
// それ以外はログイン画面へリダイレクトする。
func Decide(sess *model.Session, allowed []model.Role) Verdict {
	if !sess.Authenticated() {
		return Verdict{Action: ActionRedirect, Location: LoginPath}
	}
	for _, r := range allowed {
		if r == sess.Role {
			return Verdict{Action: ActionRender}
		}
	}
	return Verdict{Action: ActionRedirect, Location: LoginPath}
}

// Destination はロールに対応するダッシュボードの遷移先を返す。
// 未定義のロールの場合はログイン画面を返す。
func Destination(role model.Role) string {
	switch role {
	case model.RoleSuperAdmin:
		return SuperAdminPath
	case model.RoleAdmin:
		return AdminPath
	case model.RoleTeamLead:
		return TeamLeadPath
	default:
		return LoginPath
	}
}

// Route はダッシュボードの遷移先と、そこに入れるロールの組。
type Route struct {
	Path    string
	Title   string
	Allowed []model.Role
}

// Routes はダッシュボードの一覧を返す。各ロールはちょうど1つのダッシュボードに対応する。
func Routes() []Route {
	return []Route{
		{Path: SuperAdminPath, Title: "Super Admin Dashboard", Allowed: []model.Role{model.RoleSuperAdmin}},
		{Path: AdminPath, Title: "Admin Dashboard", Allowed: []model.Role{model.RoleAdmin}},
		{Path: TeamLeadPath, Title: "Team Lead Dashboard", Allowed: []model.Role{model.RoleTeamLead}},
	}
}
