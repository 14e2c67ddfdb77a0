package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	LogLevel  string
	LogFormat string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Judge0URL            string
	Judge0APIKey         string
	Judge0APIHost        string
	Judge0AuthToken      string
	JudgeRequestTimeout  time.Duration
	JudgeDispatchTimeout time.Duration

	RunCooldown     time.Duration
	RunGuardBackend string // "redis" or "store"

	DailyQuestionWindow   time.Duration
	DailyNotificationChan string
	FrontendURL           string

	ProgressQueueName      string
	ProgressSweepInterval  time.Duration
	ProgressSweepBatchSize int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:    getEnv("API_PORT", "8080"),
		JWTKey:     []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:     time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "console"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "letscode"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		Judge0URL:            getEnv("JUDGE0_URL", "http://localhost:2358"),
		Judge0APIKey:         getEnv("JUDGE0_API_KEY", ""),
		Judge0APIHost:        getEnv("JUDGE0_API_HOST", ""),
		Judge0AuthToken:      getEnv("JUDGE0_AUTH_TOKEN", ""),
		JudgeRequestTimeout:  getEnvAsDuration("JUDGE_REQUEST_TIMEOUT", 10*time.Second),
		JudgeDispatchTimeout: getEnvAsDuration("JUDGE_DISPATCH_TIMEOUT", 30*time.Second),

		RunCooldown:     getEnvAsDuration("RUN_COOLDOWN", 5*time.Second),
		RunGuardBackend: getEnv("RUN_GUARD_BACKEND", "redis"),

		DailyQuestionWindow:   getEnvAsDuration("DAILY_QUESTION_WINDOW", 24*time.Hour),
		DailyNotificationChan: getEnv("DAILY_NOTIFICATION_CHANNEL", "potd-notification"),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),

		ProgressQueueName:      getEnv("PROGRESS_QUEUE_NAME", "progress_reconcile_queue"),
		ProgressSweepInterval:  getEnvAsDuration("PROGRESS_SWEEP_INTERVAL", time.Minute),
		ProgressSweepBatchSize: getEnvAsInt("PROGRESS_SWEEP_BATCH_SIZE", 50),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// MigrationURL is the pgx5:// form golang-migrate expects.
func (c *Config) MigrationURL() string {
	u := &url.URL{
		Scheme: "pgx5",
		Host:   c.DBHost + ":" + c.DBPort,
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Path:   c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", c.DBSslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("5s", "24h").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return fallback
}
