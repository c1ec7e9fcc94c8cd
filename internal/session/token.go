package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired はトークンが有効期限切れのJWTかどうかを判定する。
// トークンは認可判定には使用されない不透明なクレデンシャルであり、
// ここでの検査は復元時に明らかに失効したセッションを破棄するためだけに行う。
// JWTとして解釈できない文字列、およびexpクレームを持たないJWTは
// 不透明トークンとして扱い、期限切れとはみなさない。
// 署名は検証しない（検証はマーケットAPI側の責務）。
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(now)
}
