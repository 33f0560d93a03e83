package constants

// Default retry configuration values
const (
	DefaultRetryBackoffMs = 1000
	DefaultMaxBackoffMs   = 30000
	DefaultMaxAttempts    = 3
)

// Default timeout values
const (
	DefaultHTTPTimeoutSec        = 30
	DefaultChatTimeoutSec        = 15
	DefaultStorageTimeoutSec     = 60
	DefaultGracefulShutdownSec   = 30
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
)

// Default server configuration values
const (
	DefaultServerPort        = 8082
	ServerErrorChannelSize   = 1
	DefaultWebhookMaxSkewSec = 300
)

// Socket-mode listener configuration
const (
	DefaultSocketReconnectDelayMs = 2000
	DefaultSocketMaxReconnectMs   = 60000
)

// Content generation
const (
	// RecommendedTagCount is the soft minimum tag count for a generated
	// post. Fewer tags are logged, not rejected.
	RecommendedTagCount = 10

	DefaultGenerationMaxTokens = 4000

	// PreviewBodyRunes is how much of the generated body is shown in the
	// chat preview.
	PreviewBodyRunes = 300
)

// DefaultAssetKeyPrefix is the object key prefix for relayed attachments.
const DefaultAssetKeyPrefix = "blog-images"

// DefaultHistoryLimit caps how many publish history rows are returned.
const DefaultHistoryLimit = 50
