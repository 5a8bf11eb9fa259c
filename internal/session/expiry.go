package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry はトークンがJWTであればexpクレームを返す。
// 署名は検証しない。値は表示用で、期限による自動ログアウトは行わない。
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
