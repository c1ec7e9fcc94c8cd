package guard

import "strings"

// RouteName はルーターに登録されたルートの名前を表す。
type RouteName string

// 登録済みルート名。
// ここに列挙された名前だけが正規のルート集合であり、
// 役割ごとのアクセス制御はこの集合に対してのみ定義される。
const (
	RouteHome           RouteName = "home"
	RouteGameDetails    RouteName = "gameDetails"
	RouteKeyDetails     RouteName = "keyDetails"
	RouteCart           RouteName = "cart"
	RouteSales          RouteName = "sales"
	RouteCatalog        RouteName = "catalog"
	RoutePurchaseCart   RouteName = "purchaseCart"
	RoutePurchaseSingle RouteName = "purchaseSingle"
	RouteOrders         RouteName = "orders"
	RouteLogin          RouteName = "login"
	RouteSignup         RouteName = "signup"
	RouteProfile        RouteName = "profile"
	RouteDashboard      RouteName = "dashboard"
	RouteSell           RouteName = "sell"
	RouteAdmin          RouteName = "admin"
	RouteAdminGames     RouteName = "admingames"
	RouteAdminGenres    RouteName = "admingenres"
	RouteAdminUsers     RouteName = "adminusers"
	RouteAdminMgmt      RouteName = "adminmanagement"
)

// adminPathPrefix は管理画面のパスプレフィックス。
// 管理者はこのプレフィックス配下にのみ閉じ込められる。
const adminPathPrefix = "/admin"

// Route はルート名とURLパターンの対応を表す。
type Route struct {
	Name    RouteName
	Pattern string // chiのルートパターン（例: /profile/{id}）
}

// routes はルーターに登録される全ルートの正規の一覧。
// ガードの役割集合・リダイレクト先解決はすべてこの一覧を参照する。
var routes = []Route{
	{Name: RouteHome, Pattern: "/"},
	{Name: RouteGameDetails, Pattern: "/game/{id}"},
	{Name: RouteKeyDetails, Pattern: "/key/{id}"},
	{Name: RouteCart, Pattern: "/cart"},
	{Name: RouteSales, Pattern: "/sales"},
	{Name: RouteCatalog, Pattern: "/catalog"},
	{Name: RoutePurchaseCart, Pattern: "/purchase"},
	{Name: RoutePurchaseSingle, Pattern: "/purchase/{id}"},
	{Name: RouteOrders, Pattern: "/orders"},
	{Name: RouteLogin, Pattern: "/login"},
	{Name: RouteSignup, Pattern: "/signup"},
	{Name: RouteProfile, Pattern: "/profile/{id}"},
	{Name: RouteDashboard, Pattern: "/dashboard"},
	{Name: RouteSell, Pattern: "/dashboard/sell"},
	{Name: RouteAdmin, Pattern: "/admin"},
	{Name: RouteAdminGames, Pattern: "/admin/games"},
	{Name: RouteAdminGenres, Pattern: "/admin/genres"},
	{Name: RouteAdminUsers, Pattern: "/admin/users"},
	{Name: RouteAdminMgmt, Pattern: "/admin/management"},
}

// routesByName はルート名からルート定義への索引。
var routesByName = func() map[RouteName]Route {
	m := make(map[RouteName]Route, len(routes))
	for _, rt := range routes {
		m[rt.Name] = rt
	}
	return m
}()

// AllRoutes は登録済みルートの一覧のコピーを返す。
// ルーター構築時にこの一覧を走査してハンドラーをマウントする。
func AllRoutes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup はルート名からルート定義を取得する。
func Lookup(name RouteName) (Route, bool) {
	rt, ok := routesByName[name]
	return rt, ok
}

// RedirectPath はリダイレクト先ルートの具体的なパスを返す。
// パターンにパラメータを含むルートへのリダイレクトは発生しない前提。
func RedirectPath(name RouteName) string {
	rt, ok := routesByName[name]
	if !ok {
		return "/"
	}
	return rt.Pattern
}

// IsAdminPath はパスが管理画面プレフィックス配下かを判定する。
// /admin 自体と /admin/ 配下のみを管理画面とみなす（/administratorは含まない）。
func IsAdminPath(path string) bool {
	if path == adminPathPrefix {
		return true
	}
	return strings.HasPrefix(path, adminPathPrefix+"/")
}
