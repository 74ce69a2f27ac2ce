package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort      string
	AppMode      string
	PublicOrigin string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret      string
	JWTExpiryHours int

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string
	S3PresignTTL time.Duration

	FFmpegPath     string
	ThumbnailCount int
	MaxUploadMB    int

	PageSize      int
	RedirectDelay time.Duration

	UploadLimit  int
	UploadWindow time.Duration
	ClipCacheTTL time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:      getEnv("APP_PORT", "8080"),
		AppMode:      getEnv("APP_MODE", "debug"),
		PublicOrigin: getEnv("PUBLIC_ORIGIN", "http://localhost:8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "clip_share"),
		DBPort:     getEnv("DB_PORT", "5432"),

		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		JWTExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3Bucket:     getEnv("S3_BUCKET", "clip-share"),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3PublicBase: getEnv("S3_PUBLIC_BASE", ""),
		S3PresignTTL: time.Duration(getEnvAsInt("S3_PRESIGN_TTL_MIN", 60*24*7)) * time.Minute,

		FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
		ThumbnailCount: getEnvAsInt("THUMBNAIL_COUNT", 3),
		MaxUploadMB:    getEnvAsInt("MAX_UPLOAD_MB", 25),

		PageSize:      getEnvAsInt("PAGE_SIZE", 6),
		RedirectDelay: getEnvAsDuration("REDIRECT_DELAY_MS", time.Millisecond, 1000),

		UploadLimit:  getEnvAsInt("UPLOAD_LIMIT", 10),
		UploadWindow: getEnvAsDuration("UPLOAD_WINDOW_SEC", time.Second, 3600),
		ClipCacheTTL: getEnvAsDuration("CLIP_CACHE_TTL_SEC", time.Second, 300),
	}
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

func getEnvAsDuration(key string, unit time.Duration, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * unit
}
