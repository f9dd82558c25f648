package constants

type contextKey int

const (
	PoolKey contextKey = iota
	TxKey
	TenantIDKey
	ActorKey
	LoggerKey
	RequestIDKey
	AppKey
)
