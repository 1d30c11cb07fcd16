package constant

import "time"

// Events produced on the realtime channel
const (
	EventUserOnline        = "userOnline"
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventSendMessage       = "sendMessage"
)

// Events consumed from the realtime channel
const (
	EventNewMessage          = "newMessage"
	EventConversationUpdated = "conversationUpdated"
	EventUserStatusUpdate    = "userStatusUpdate"
	EventExchangeUpdated     = "exchangeUpdated"
)

// Exchange request statuses
const (
	ExchangeStatusPending   = "pending"
	ExchangeStatusAccepted  = "accepted"
	ExchangeStatusRejected  = "rejected"
	ExchangeStatusCompleted = "completed"
)

// ExchangeStatusLabel converts a status to its display label
func ExchangeStatusLabel(status string) string {
	switch status {
	case ExchangeStatusPending:
		return "Pending"
	case ExchangeStatusAccepted:
		return "Accepted"
	case ExchangeStatusRejected:
		return "Rejected"
	case ExchangeStatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Profile visibility
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Limits
const (
	MaxUploadSize   = 5 << 20
	MaxPostImages   = 4
	MaxBioLength    = 500
	UnreadBadgeCap  = 9
	DefaultPollTick = 30 * time.Second
)

// Display fallbacks
const (
	UnknownUserName   = "Unknown User"
	OAuthUserName     = "Google User"
	DefaultSubject    = "Item discussion"
	EmptyConversation = "Start a conversation"
)

// Date and time layouts used by the booth picker
const (
	DateLayout        = "2006-01-02"
	ClockLayout       = "15:04"
	MeetingTimeLayout = "2006-01-02T15:04"
)

// Redis key patterns (without prefix, use RedisKey*() to get the full key)
const (
	redisKeySession = "session:%s" // session:{profile}
)

// redisKeyPrefix is the global prefix for all Redis keys
var redisKeyPrefix = "xchange:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

func RedisKeySession() string { return redisKeyPrefix + redisKeySession }
