package env

import (
	"os"
	"strconv"
	"time"
)

const (
	ListenAddr       = "LISTEN_ADDR"
	ClientURL        = "CLIENT_URL"
	JWTSecret        = "JWT_SECRET"
	PingInterval     = "PING_INTERVAL"
	PingTimeout      = "PING_TIMEOUT"
	SendBuffer       = "SEND_BUFFER"
	EventsRedisURL   = "EVENTS_REDIS_URL"
	EventsRedisPass  = "EVENTS_REDIS_PASS"
	EventsChannel    = "EVENTS_CHANNEL"
	AWSRegion        = "AWS_REGION"
	AWSID            = "AWS_ID"
	AWSSecret        = "AWS_SECRET"
	AWSToken         = "AWS_TOKEN"
	DynamoDBEndpoint = "DYNAMODB_ENDPOINT"
)

// Require panics when any of the given variables is unset. It is called from
// the composition root so that importing this package stays side-effect free.
func Require(keys ...string) {
	for _, key := range keys {
		if os.Getenv(key) == "" {
			panic("env: required environment variable not set: " + key)
		}
	}
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}

// GetInt parses the variable as an int, falling back to the default on
// absence or parse failure.
func GetInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// GetDuration parses the variable as a time.Duration, falling back to the
// default on absence or parse failure.
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
