// Package guard はルート遷移ごとの認証・役割ベースアクセス制御を提供する。
//
// ガードは登録済みルートの正規一覧（routes.go）と役割→ルート集合の対応表を持ち、
// 遷移ごとにDecideで許可またはリダイレクト先を決定する。
// 判定は先勝ちの規則列として評価され、エラー条件は存在しない。
package guard

import (
	"github.com/VexedElm035/tienda-keys/internal/model"
)

// roleRoutes は役割ごとに専有・制限されるルート名の集合。
// 各役割の集合はルーターに実際に登録されているルート名のみで構成される。
var roleRoutes = map[model.Role]map[RouteName]struct{}{
	model.RoleAdmin: {
		RouteAdmin:       {},
		RouteAdminGames:  {},
		RouteAdminGenres: {},
		RouteAdminUsers:  {},
		RouteAdminMgmt:   {},
	},
	model.RoleSeller: {
		RouteDashboard: {},
		RouteSell:      {},
	},
	model.RoleUser: {
		RouteProfile:        {},
		RouteCart:           {},
		RoutePurchaseCart:   {},
		RoutePurchaseSingle: {},
		RouteOrders:         {},
	},
}

// Decision はガードの判定結果を表す。
type Decision struct {
	Allowed    bool
	RedirectTo RouteName // Allowed == false の場合のリダイレクト先
}

// allow は遷移許可の判定結果。
var allow = Decision{Allowed: true}

// redirect は指定ルートへのリダイレクト判定結果を生成する。
func redirect(to RouteName) Decision {
	return Decision{Allowed: false, RedirectTo: to}
}

// inRoleSet はルート名が指定役割の集合に含まれるかを判定する。
func inRoleSet(role model.Role, name RouteName) bool {
	_, ok := roleRoutes[role][name]
	return ok
}

// isProtected はルート名がいずれかの役割集合に含まれるかを判定する。
// 匿名アクターにとっては3つの集合すべてが保護対象となる。
func isProtected(name RouteName) bool {
	for role := range roleRoutes {
		if inRoleSet(role, name) {
			return true
		}
	}
	return false
}

// Decide は遷移前の判定を行う。
// pathには実際のリクエストパスを渡す（管理画面プレフィックス判定に使用）。
// 規則は厳密な順序で評価され、最初に一致した規則で確定する:
//  1. 未ログイン + 保護ルート → login
//  2. ログイン済み + login/signup → home
//  3. admin + 管理画面パス外 → admin（管理者は管理画面に閉じ込められる）
//  4. seller + 管理ルート → home
//  5. user + 管理ルートまたは出品ルート → home
//  6. それ以外 → 許可
func Decide(sess *model.Session, route Route, path string) Decision {
	if path == "" {
		path = route.Pattern
	}

	// 1. 未ログインで保護ルートへの遷移はログイン画面へ
	if !sess.IsLoggedIn && isProtected(route.Name) {
		return redirect(RouteLogin)
	}

	// 2. ログイン済みでlogin/signupへの遷移はホームへ
	if sess.IsLoggedIn && (route.Name == RouteLogin || route.Name == RouteSignup) {
		return redirect(RouteHome)
	}

	if sess.IsLoggedIn {
		// 3. 管理者は管理画面パス配下にのみ遷移できる
		if sess.UserRole == model.RoleAdmin && !IsAdminPath(path) {
			return redirect(RouteAdmin)
		}

		// 4. 出品者は管理ルートに遷移できない
		if sess.UserRole == model.RoleSeller && inRoleSet(model.RoleAdmin, route.Name) {
			return redirect(RouteHome)
		}

		// 5. 一般ユーザーは管理ルートにも出品ルートにも遷移できない
		if sess.UserRole == model.RoleUser &&
			(inRoleSet(model.RoleAdmin, route.Name) || inRoleSet(model.RoleSeller, route.Name)) {
			return redirect(RouteHome)
		}
	}

	// 6. どの規則にも一致しない遷移は許可
	return allow
}
