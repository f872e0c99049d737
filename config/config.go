package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Configuration variables. These aren't user facing but useful for tuning the
// details of server performance.
var (
	MaxOpenConns = getEnvInt("MAX_OPEN_CONNS", 20)
	MaxIdleConns = getEnvInt("MAX_IDLE_CONNS", 20)
	CommandRate  = rate.Limit(getEnvInt("COMMAND_RPS", 20))
	CommandBurst = getEnvInt("COMMAND_BURST", 5)
	MaxSessions  = getEnvInt("MAX_SESSIONS", 100)

	// SessionIdleTimeout frees sessions without commands, polls or open
	// sockets for this long, zero keeps them until they are deleted.
	SessionIdleTimeout = time.Duration(getEnvInt("SESSION_IDLE_SECONDS", 600)) * time.Second
)

func getEnvInt(varName string, defaults int) int {
	val := os.Getenv(varName)
	if val == "" {
		return defaults
	}
	intVal, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return defaults
	}
	return int(intVal)
}
