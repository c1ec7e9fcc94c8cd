package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/VexedElm035/tienda-keys/internal/middleware"
	"github.com/VexedElm035/tienda-keys/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするストアインターフェース。
type CartServiceInterface interface {
	FetchCart(ctx context.Context)
	AddToCart(ctx context.Context, keyID int64) bool
	RemoveFromCart(ctx context.Context, cartItemID int64) error
	ClearCart(ctx context.Context) error
	Items() []model.CartItem
	Count() int
	Err() *model.APIError
}

// CartHandler はカート操作のHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// cartResponse はカート状態のレスポンスボディ。
type cartResponse struct {
	Items []model.CartItem `json:"items"`
	Count int              `json:"count"`
	Error *model.APIError  `json:"error,omitempty"`
}

// addToCartRequest はカート追加リクエストのボディ。
type addToCartRequest struct {
	KeyID int64 `json:"key_id"`
}

// GetCart はリモートと同期したうえで現在のカート状態を返す。
// 同期に失敗した場合も200で応答し、最後に観測した明細とエラーを返す（劣化運転）。
// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.service.FetchCart(r.Context())
	h.writeSnapshot(w, http.StatusOK)
}

// AddToCart は商品キーのカート追加を処理する。
// POST /api/cart
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.KeyID <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "key_idが不正です。",
			Category: "validation",
			Action:   "正の整数のkey_idを指定してください。",
		})
		return
	}

	if ok := h.service.AddToCart(r.Context(), req.KeyID); !ok {
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewCartAddFailedError("リモートAPIの呼び出しに失敗しました"))
		return
	}

	h.writeSnapshot(w, http.StatusCreated)
}

// RemoveFromCart は指定明細の削除を処理する。
// DELETE /api/cart/{id}
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "明細IDが不正です。",
			Category: "validation",
			Action:   "正の整数のIDを指定してください。",
		})
		return
	}

	if err := h.service.RemoveFromCart(r.Context(), id); err != nil {
		apiErr := h.service.Err()
		if apiErr == nil {
			apiErr = model.NewCartRemoveFailedError(err.Error())
		}
		middleware.WriteErrorResponse(w, http.StatusBadGateway, apiErr)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCart は全明細の削除を処理する。
// 一部の削除に失敗した場合は502を返し、クライアントへ再取得を促す。
// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context()); err != nil {
		apiErr := h.service.Err()
		if apiErr == nil {
			apiErr = model.NewCartClearFailedError(err.Error())
		}
		middleware.WriteErrorResponse(w, http.StatusBadGateway, apiErr)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeSnapshot は現在のカートミラーをJSONで書き込む。
func (h *CartHandler) writeSnapshot(w http.ResponseWriter, statusCode int) {
	items := h.service.Items()
	if items == nil {
		items = []model.CartItem{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(cartResponse{
		Items: items,
		Count: h.service.Count(),
		Error: h.service.Err(),
	})
}
