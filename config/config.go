package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBUrl         string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	LogLevel      string
	LogFormat     string

	Duel    DuelConfig
	Sandbox SandboxConfig

	LanguagesFile string
	TestcaseRoot  string
}

// DuelConfig drives the orchestrator's timers and rating rules.
type DuelConfig struct {
	Duration        time.Duration
	DisconnectGrace time.Duration
	MatchTimeout    time.Duration
	RatingK         float64
	RatingFloor     int
	DefaultRating   int
}

type SandboxConfig struct {
	HelperPath       string
	WorkRoot         string
	CgroupRoot       string
	SeccompProfile   string
	EnableCgroup     bool
	EnableNamespaces bool
	EnableSeccomp    bool
	MaxOutputBytes   int64
	MemoryMB         int64
	CPUQuota         float64
	PIDs             int64
	NoFile           int64
	RunTimeout       time.Duration
	CompileTimeout   time.Duration
	MaxConcurrent    int64
}

func LoadConfig() Config {
	err := godotenv.Load()

	if err != nil {
		log.Println("No .env file found. Using environment variables.")
	}

	return Config{
		Port:          getEnv("PORT", "8080"),
		DBUrl:         os.Getenv("DB_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		Duel: DuelConfig{
			Duration:        getEnvAsDuration("DUEL_DURATION", 30*time.Minute),
			DisconnectGrace: getEnvAsDuration("DISCONNECT_GRACE", 10*time.Second),
			MatchTimeout:    getEnvAsDuration("MATCH_TIMEOUT", 2*time.Minute),
			RatingK:         getEnvAsFloat("RATING_K", 32),
			RatingFloor:     getEnvAsInt("RATING_FLOOR", 800),
			DefaultRating:   getEnvAsInt("DEFAULT_RATING", 1200),
		},
		Sandbox: SandboxConfig{
			HelperPath:       getEnv("SANDBOX_HELPER", "sandbox-init"),
			WorkRoot:         getEnv("SANDBOX_WORK_ROOT", os.TempDir()),
			CgroupRoot:       getEnv("SANDBOX_CGROUP_ROOT", "/sys/fs/cgroup/codearena"),
			SeccompProfile:   os.Getenv("SANDBOX_SECCOMP_PROFILE"),
			EnableCgroup:     getEnvAsBool("SANDBOX_ENABLE_CGROUP", true),
			EnableNamespaces: getEnvAsBool("SANDBOX_ENABLE_NAMESPACES", true),
			EnableSeccomp:    getEnvAsBool("SANDBOX_ENABLE_SECCOMP", true),
			MaxOutputBytes:   int64(getEnvAsInt("SANDBOX_MAX_OUTPUT_BYTES", 50*1024*1024)),
			MemoryMB:         int64(getEnvAsInt("SANDBOX_MEMORY_MB", 128)),
			CPUQuota:         getEnvAsFloat("SANDBOX_CPU_QUOTA", 0.5),
			PIDs:             int64(getEnvAsInt("SANDBOX_PIDS", 50)),
			NoFile:           int64(getEnvAsInt("SANDBOX_NOFILE", 64)),
			RunTimeout:       getEnvAsDuration("SANDBOX_RUN_TIMEOUT", 10*time.Second),
			CompileTimeout:   getEnvAsDuration("SANDBOX_COMPILE_TIMEOUT", 15*time.Second),
			MaxConcurrent:    int64(getEnvAsInt("SANDBOX_MAX_CONCURRENT", 4)),
		},
		LanguagesFile: os.Getenv("LANGUAGES_FILE"),
		TestcaseRoot:  getEnv("TESTCASE_ROOT", "./testcases"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(strings.ToLower(getEnv(key, ""))); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
