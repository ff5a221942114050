package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	PoolKey         ContextKey = "pool"
	TxKey           ContextKey = "tx"
	LoggerKey       ContextKey = "logger"
	ParamsKey       ContextKey = "params"
	UserKey         ContextKey = "user"
	SystemActorKey  ContextKey = "systemActor"
	AppKey          ContextKey = "app"
	RequestStart    ContextKey = "requestStart"
	LocalizerKey    ContextKey = "localizer"
	LocaleKey       ContextKey = "locale"
	SyncActorSystem            = "system"
)

// Validate is the shared validator instance used by DTO Ok() checks.
var Validate = validator.New()
