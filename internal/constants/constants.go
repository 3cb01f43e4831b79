package constants

// 购物车身份请求头（两者互斥，每个请求只允许携带其一）
const (
	HeaderAuthorization = "Authorization"
	HeaderSessionToken  = "X-Session-Token"
)

// 身份类型
const (
	IdentityAnonymous     = "anonymous"
	IdentityAuthenticated = "authenticated"
)

// 活动价类型（当前仅支持百分比折扣）
const (
	PromotionTypePercent = "percentage"
)

// 活动价适用范围
const (
	ScopeTypeProduct  = "product"
	ScopeTypeCategory = "category"
)

// 汇率相关默认值
const (
	AnchorCurrencyDefault = "USD"
	RateCacheKey          = "rates:table"
)

// 会话令牌缓存键
const (
	SessionTokenCacheKey = "session:anonymous_token"
)

// 队列名称
const (
	QueueDefault = "default"
)

// 异步任务类型
const (
	TaskRateRefresh   = "rates:refresh"
	TaskPromotionWarm = "promotions:warm"
)
