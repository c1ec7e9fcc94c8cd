package handler

import (
	"encoding/json"
	"net/http"

	"github.com/VexedElm035/tienda-keys/internal/guard"
)

// pageResponse はページルートのレスポンスボディ。
// ガードを通過した遷移に対して、解決されたルート名を返す。
type pageResponse struct {
	Route string `json:"route"`
	Path  string `json:"path"`
}

// NewPageHandler は指定ルートのページハンドラーを返す。
// ガードミドルウェアを通過したリクエストにルート名をJSONで応答する。
func NewPageHandler(route guard.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pageResponse{
			Route: string(route.Name),
			Path:  r.URL.Path,
		})
	}
}
