// Package market はリモートのマーケットプレイスAPIのクライアントを提供する。
// カートの取得・追加・削除とログアウト通知を担い、全リクエストで
// Cookie送信・XSRFトークンヘッダー伝搬・JSON Acceptヘッダーの規約を守る。
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/VexedElm035/tienda-keys/internal/model"
)

const (
	// xsrfCookieName はマーケットAPIが発行するXSRFトークンCookieの名前。
	xsrfCookieName = "XSRF-TOKEN"
	// xsrfHeaderName は状態変更リクエストに付与するXSRFトークンヘッダーの名前。
	xsrfHeaderName = "X-XSRF-TOKEN"
)

// ErrUnexpectedPayload はレスポンスが期待する形でなかったことを示す。
// カート取得で配列以外のペイロードが返った場合に返される。
var ErrUnexpectedPayload = errors.New("market: unexpected response payload shape")

// APIError はマーケットAPIが返したエラーレスポンスを表す。
type APIError struct {
	StatusCode int
	Message    string // エラーペイロードのmessageフィールド（無ければ空）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("market API status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("market API status %d", e.StatusCode)
}

// TokenSource は現在のセッショントークンを返す。
// 空文字列の場合はAuthorizationヘッダーを付与しない。
type TokenSource func() string

// Client はマーケットプレイスAPIのクライアント。
// httpClientにはCookie jar付きのクライアントを渡すこと
// （セッションCookieとXSRFトークンCookieの保持に必要）。
type Client struct {
	baseURL     string
	logoutURL   string
	httpClient  *http.Client
	logger      *slog.Logger
	tokenSource TokenSource
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLはAPIルート（例: http://localhost:8080/api）。
// ログアウトエンドポイントはAPIルートの1階層上に解決される
// （元のクライアントが相対パス ../logout で呼び出していたのと同じ規約）。
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, tokenSource TokenSource) (*Client, error) {
	base := strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(base + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid market API base URL: %w", err)
	}
	logoutRef, err := parsed.Parse("../logout")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve logout endpoint: %w", err)
	}

	if tokenSource == nil {
		tokenSource = func() string { return "" }
	}

	return &Client{
		baseURL:     base,
		logoutURL:   logoutRef.String(),
		httpClient:  httpClient,
		logger:      logger,
		tokenSource: tokenSource,
	}, nil
}

// FetchCart は現在のカート内容を取得する。
// ペイロードが配列でない場合はErrUnexpectedPayloadを返す
// （呼び出し元が異常系として空カートへのリセットを判断する）。
func (c *Client) FetchCart(ctx context.Context) ([]model.CartItem, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/cart", nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedPayload, truncateForLog(body))
	}

	var items []model.CartItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart payload: %w", err)
	}
	return items, nil
}

// AddToCart は指定商品キーのカート追加を要求する。
// 成功レスポンスの本文は無視される（呼び出し元が再取得で同期する）。
func (c *Client) AddToCart(ctx context.Context, keyID int64) error {
	payload, err := json.Marshal(map[string]int64{"key_id": keyID})
	if err != nil {
		return fmt.Errorf("failed to encode add-to-cart payload: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, c.baseURL+"/cart", payload)
	return err
}

// RemoveFromCart は指定明細の削除を要求する。
func (c *Client) RemoveFromCart(ctx context.Context, cartItemID int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/cart/%d", c.baseURL, cartItemID), nil)
	return err
}

// NotifyLogout はセッションエンドポイントへログアウトを通知する。
// レスポンスの本文は無視される。
func (c *Client) NotifyLogout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, c.logoutURL, nil)
	return err
}

// do はHTTPリクエストを実行し、2xxレスポンスの本文を返す。
// クライアント規約（JSON Accept、XSRFヘッダー伝搬、Bearerトークン）をここで一元適用する。
func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// セッショントークンがあればBearerとして付与（認可判定はサーバー側の責務）
	if token := c.tokenSource(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// 状態変更メソッドではXSRFトークンCookieをヘッダーへ伝搬する
	if method != http.MethodGet && method != http.MethodHead {
		if token := c.xsrfToken(req.URL); token != "" {
			req.Header.Set(xsrfHeaderName, token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("market API request failed",
			slog.String("method", method),
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("market API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: serverMessage(body)}
		c.logger.Error("market API returned error status",
			slog.String("method", method),
			slog.String("url", rawURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, apiErr
	}

	return body, nil
}

// xsrfToken はCookie jarからXSRFトークンを取り出す。
func (c *Client) xsrfToken(u *url.URL) string {
	if c.httpClient.Jar == nil {
		return ""
	}
	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == xsrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

// serverMessage はエラーペイロードのmessageフィールドを取り出す。
// JSONでない・messageを持たないペイロードには空文字列を返す。
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// truncateForLog は診断ログに載せるペイロードを短縮する。
func truncateForLog(body []byte) string {
	const max = 200
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
