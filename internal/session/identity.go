package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/carrito-next/internal/cache"
	"github.com/carrito-next/internal/constants"
	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/storefront"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid  = errors.New("session token invalid")
	ErrUserSwitch    = errors.New("session cannot switch users without logout")
	ErrNotConfigured = errors.New("session secret not configured")
)

// UserClaims 用户令牌声明
type UserClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Resolver 会话身份解析器
//
// 同一时刻购物车只能由用户令牌或匿名会话令牌之一寻址。
// 状态机：匿名 → 已登录（login），已登录 → 新匿名（logout）。
type Resolver struct {
	mu        sync.Mutex
	secret    string
	userToken string
	userID    uint
	anonToken string
	onLogout  []func()
}

// NewResolver 创建会话身份解析器
func NewResolver(secret string) *Resolver {
	return &Resolver{secret: strings.TrimSpace(secret)}
}

// OnLogout 注册登出钩子（用于清空本地购物车状态）
func (r *Resolver) OnLogout(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLogout = append(r.onLogout, fn)
}

// Current 返回当前请求应携带的身份；匿名令牌按需懒生成并持久化
func (r *Resolver) Current(ctx context.Context) (storefront.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userToken != "" {
		return storefront.Identity{UserToken: r.userToken}, nil
	}
	token, err := r.ensureAnonymousLocked(ctx)
	if err != nil {
		return storefront.Identity{}, err
	}
	return storefront.Identity{SessionToken: token}, nil
}

// Kind 当前身份类型
func (r *Resolver) Kind() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userToken != "" {
		return constants.IdentityAuthenticated
	}
	return constants.IdentityAnonymous
}

// UserID 已登录用户ID（匿名时为 0）
func (r *Resolver) UserID() uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID
}

// Login 校验用户令牌并切换为已登录身份
//
// 匿名购物车的合并由后端完成，这里只负责切换寻址令牌。
func (r *Resolver) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenInvalid
	}
	if r.secret == "" {
		return ErrNotConfigured
	}

	claims := &UserClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(r.secret), nil
	})
	if err != nil || !parsed.Valid || claims.UserID == 0 {
		return ErrTokenInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userToken != "" && r.userID != claims.UserID {
		return ErrUserSwitch
	}

	r.userToken = token
	r.userID = claims.UserID

	// 匿名令牌已由后端合并进用户购物车，保留会复活旧匿名购物车
	r.anonToken = ""
	if err := cache.Del(ctx, constants.SessionTokenCacheKey); err != nil {
		logger.Warnw("session_login_delete_anon_token_failed", "error", err)
	}
	return nil
}

// Logout 清除用户身份并作废旧匿名令牌
//
// 先删除旧匿名令牌再结束登出，避免登出后的浏览继续看到
// 上一段匿名期的购物车；新令牌等到下次需要时再生成。
func (r *Resolver) Logout(ctx context.Context) {
	r.mu.Lock()
	r.userToken = ""
	r.userID = 0
	r.anonToken = ""
	hooks := make([]func(), len(r.onLogout))
	copy(hooks, r.onLogout)
	r.mu.Unlock()

	if err := cache.Del(ctx, constants.SessionTokenCacheKey); err != nil {
		logger.Warnw("session_logout_delete_anon_token_failed", "error", err)
	}
	for _, fn := range hooks {
		fn()
	}
}

func (r *Resolver) ensureAnonymousLocked(ctx context.Context) (string, error) {
	if r.anonToken != "" {
		return r.anonToken, nil
	}

	var stored string
	if hit, err := cache.GetJSON(ctx, constants.SessionTokenCacheKey, &stored); err == nil && hit && strings.TrimSpace(stored) != "" {
		r.anonToken = stored
		return r.anonToken, nil
	}

	r.anonToken = uuid.NewString()
	if err := cache.SetJSON(ctx, constants.SessionTokenCacheKey, r.anonToken, 0); err != nil {
		logger.Warnw("session_persist_anon_token_failed", "error", err)
	}
	return r.anonToken, nil
}
