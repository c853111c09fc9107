package config

const (
	EnvPrefix = "GROUPBUY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "GROUPBUY_APP_ENV"
	EnvPort     = "GROUPBUY_APP_PORT"
	EnvDBDSN    = "GROUPBUY_DB_DSN"
	EnvDBHost   = "GROUPBUY_DB_HOST"
	EnvDBUser   = "GROUPBUY_DB_USER"
	EnvDBName   = "GROUPBUY_DB_NAME"
	EnvRedisURL = "GROUPBUY_REDIS_URL"

	EnvSMTPHost = "GROUPBUY_SMTP_HOST"
	EnvSMTPPort = "GROUPBUY_SMTP_PORT"
	EnvSMTPFrom = "GROUPBUY_SMTP_FROM"

	EnvDigestTimezone = "GROUPBUY_DIGEST_TIMEZONE"
	EnvPeriodCloseDay = "GROUPBUY_PERIOD_CLOSE_DAY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
