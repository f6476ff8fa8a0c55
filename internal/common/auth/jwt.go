package auth

import (
	"fmt"
	"time"

	"github.com/FleetLinkRent/FleetLinkRent/internal/common/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims 员工 access token 的自定义声明：角色列表 + 所属门店（hub）。
type Claims struct {
	Roles []string `json:"roles"`
	HubID string   `json:"hub_id,omitempty"`
	jwt.RegisteredClaims
}

const (
	// defaultTokenTTL 未显式传 ttl 时的有效期。
	defaultTokenTTL = 24 * time.Hour
	// notBeforeLeeway 容忍签发方与校验方之间的时钟偏差。
	notBeforeLeeway = time.Minute
)

// GenerateAccessToken 生成 HS256 JWT access token。
func GenerateAccessToken(cfg config.AuthConfig, subject string, roles []string, hubID string, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject is empty")
	}
	if cfg.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("jwt_secret is empty")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := time.Now()
	expiresAt = now.Add(ttl)

	c := Claims{
		Roles: roles,
		HubID: hubID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			Audience:  audience(cfg.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-notBeforeLeeway)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func audience(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
