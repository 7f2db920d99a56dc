package api

// API limits and constants.
const (
	// MaxUploadSize is the default maximum size for image uploads (10 MB).
	MaxUploadSize = 10 << 20

	// DefaultAuthRateLimit is the default number of account and token
	// requests per minute per client IP.
	DefaultAuthRateLimit = 10
	DefaultAuthRateBurst = 5
)

// Paths referenced outside their handler registration.
const (
	pathUserCreate = "/api/v1/user/create"
	pathUserToken  = "/api/v1/user/token"
	pathRecipes    = "/api/v1/recipes"
)

// Cache-Control header values.
const (
	CachePrivateNoCache = "private, no-cache"
)

// bearerSecurity marks an operation as requiring a bearer token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}
