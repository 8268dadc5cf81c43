// Package auth 提供服务间身份令牌的签发与校验。
//
// 令牌是短期有效的JWT，声明调用方服务身份与可选的目标服务，
// type声明固定为"service"，用于与终端用户令牌区分。
// 未配置签名密钥时降级为无认证模式：签发返回空令牌，校验直接拒绝，
// 调用方应先通过Enabled()检查能力再依赖认证结果。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeService 服务间令牌的type声明值
const TokenTypeService = "service"

// 校验失败的错误分类，过期与伪造在日志中可区分，调用方统一按拒绝处理
var (
	// ErrAuthDisabled 未配置签名密钥，服务间认证已禁用
	ErrAuthDisabled = errors.New("服务间认证已禁用")
	// ErrTokenExpired 令牌已过期
	ErrTokenExpired = errors.New("服务令牌已过期")
	// ErrTokenInvalid 令牌格式错误或签名不匹配
	ErrTokenInvalid = errors.New("服务令牌无效")
	// ErrNotServiceToken 令牌的type声明不是"service"
	ErrNotServiceToken = errors.New("不是服务令牌")
)

// ServiceClaims 服务身份令牌的声明
type ServiceClaims struct {
	Service       string `json:"service"`                  // 调用方服务身份
	TargetService string `json:"target_service,omitempty"` // 目标服务（签发时写入，校验时不检查）
	Type          string `json:"type"`                     // 固定为"service"
	jwt.RegisteredClaims
}

// ServiceAuth 服务间认证器
type ServiceAuth struct {
	secret    []byte
	algorithm string
	tokenTTL  time.Duration

	// now 可在测试中替换以控制时间
	now func() time.Time
}

// New 创建服务间认证器。secret为空时返回禁用态的认证器
func New(secret, algorithm string, tokenTTL time.Duration) *ServiceAuth {
	if algorithm == "" {
		algorithm = "HS256"
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &ServiceAuth{
		secret:    []byte(secret),
		algorithm: algorithm,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Enabled 返回服务间认证是否启用
func (a *ServiceAuth) Enabled() bool {
	return len(a.secret) > 0
}

// GenerateToken 为调用方签发服务身份令牌。
// targetService为空表示不限定目标服务。禁用模式下返回空令牌而非错误。
func (a *ServiceAuth) GenerateToken(callerService, targetService string) (string, error) {
	// 无密钥时降级为无认证模式
	if !a.Enabled() {
		return "", nil
	}

	now := a.now()
	claims := ServiceClaims{
		Service:       callerService,
		TargetService: targetService,
		Type:          TokenTypeService,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}

	method := jwt.GetSigningMethod(a.algorithm)
	if method == nil {
		return "", fmt.Errorf("不支持的签名算法: %s", a.algorithm)
	}

	token, err := jwt.NewWithClaims(method, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("签发服务令牌失败: %w", err)
	}
	return token, nil
}

// VerifyToken 校验服务身份令牌。
// 校验签名与有效期，并拒绝type声明不是"service"的令牌；
// 不检查target_service是否与本服务匹配（集群内为粗粒度信任）。
func (a *ServiceAuth) VerifyToken(tokenString string) (*ServiceClaims, error) {
	if !a.Enabled() {
		return nil, ErrAuthDisabled
	}

	claims := &ServiceClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// 只接受配置的算法，防止算法替换攻击
		if t.Method.Alg() != a.algorithm {
			return nil, fmt.Errorf("签名算法不匹配: %s", t.Method.Alg())
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return a.now() }))

	if err != nil {
		// 区分过期与其他无效情况，便于服务端日志排查
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	// 终端用户令牌即使密钥相同也不能冒充服务令牌
	if claims.Type != TokenTypeService {
		return nil, ErrNotServiceToken
	}

	return claims, nil
}
