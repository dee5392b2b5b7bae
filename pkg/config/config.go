package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Token      TokenConfig
	Cookie     CookieConfig
	Captcha    CaptchaConfig
	Permission PermissionConfig
	Tree       TreeConfig
	Audit      AuditConfig
	Log        LogConfig
	CORS       CORSConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	APIPrefix      string
	RequestTimeout time.Duration // 单个请求内鉴权/权限解析的超时
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string // Redis主机地址
	Port     int    // Redis端口
	Password string // Redis密码
	DB       int    // Redis数据库编号
	Timeout  time.Duration
}

type TokenConfig struct {
	SecretKey     string        // 签名密钥
	Algorithm     string        // HS256 / HS384 / HS512
	AccessExpire  time.Duration // 访问令牌有效期
	RefreshExpire time.Duration // 刷新令牌有效期
	AccessPrefix  string        // 访问令牌 redis 前缀
	RefreshPrefix string        // 刷新令牌 redis 前缀
	ExcludePaths  []string      // 无需登录的路径
}

type CookieConfig struct {
	RefreshTokenKey string
	Path            string
	Domain          string
	Secure          bool
}

type CaptchaConfig struct {
	Prefix string
	Expire time.Duration
	Length int
}

// 权限模式
const (
	PermissionModeCasbin   = "casbin"
	PermissionModeRoleMenu = "role-menu"
)

type PermissionConfig struct {
	Mode            string
	RoleMenuExclude []string // 角色菜单模式下始终放行的权限标识
	CasbinExclude   []string // casbin 模式下始终放行的 "METHOD path"
	ReloadInterval  time.Duration
}

type TreeConfig struct {
	BuildType string // traversal 或 recursive
}

type AuditConfig struct {
	QueueSize     int
	Workers       int
	RetentionDays int
	CleanupSpec   string // cron 表达式（秒级）
}

type LogConfig struct {
	Level      string
	FilePath   string
	MaxSize    int    // MB
	MaxBackups int    // 保留的备份文件数
	MaxAge     int    // 保留天数
	Compress   bool   // 是否压缩
	Format     string // json 或 text
}

type CORSConfig struct {
	AllowOrigins     []string // 允许的源
	AllowMethods     []string // 允许的HTTP方法
	AllowHeaders     []string // 允许的请求头
	ExposeHeaders    []string // 暴露的响应头
	AllowCredentials bool     // 是否允许携带凭证
	MaxAge           int      // 预检请求缓存时间（小时）
}

// 获取环境变量，如果不存在则使用默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// 获取环境变量转换为int
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// 获取环境变量转换为bool
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}

// 获取环境变量转换为时长，支持 "30s"、"24h" 以及纯数字秒
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

// 获取环境变量转换为字符串数组（逗号分隔）
func getEnvAsStringArray(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

func LoadConfig() (*Config, error) {
	// .env 不存在时直接使用环境变量
	_ = godotenv.Load()

	apiPrefix := getEnv("SERVER_API_PREFIX", "/api/v1")
	refreshExpire := getEnvAsDuration("TOKEN_REFRESH_EXPIRE", 7*24*time.Hour)

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8000"),
			Mode:           getEnv("SERVER_MODE", "debug"),
			APIPrefix:      apiPrefix,
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "fbb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Timeout:  getEnvAsDuration("REDIS_TIMEOUT", 5*time.Second),
		},
		Token: TokenConfig{
			SecretKey:     getEnv("TOKEN_SECRET_KEY", "default-secret-change-me"),
			Algorithm:     getEnv("TOKEN_ALGORITHM", "HS256"),
			AccessExpire:  getEnvAsDuration("TOKEN_EXPIRE", 24*time.Hour),
			RefreshExpire: refreshExpire,
			AccessPrefix:  getEnv("TOKEN_REDIS_PREFIX", "fbb:token"),
			RefreshPrefix: getEnv("TOKEN_REFRESH_REDIS_PREFIX", "fbb:refresh_token"),
			ExcludePaths: getEnvAsStringArray("TOKEN_REQUEST_PATH_EXCLUDE", []string{
				apiPrefix + "/auth/login",
				apiPrefix + "/auth/captcha",
				apiPrefix + "/auth/token/new",
			}),
		},
		Cookie: CookieConfig{
			RefreshTokenKey: getEnv("COOKIE_REFRESH_TOKEN_KEY", "fbb_refresh_token"),
			Path:            getEnv("COOKIE_PATH", "/"),
			Domain:          getEnv("COOKIE_DOMAIN", ""),
			Secure:          getEnvAsBool("COOKIE_SECURE", false),
		},
		Captcha: CaptchaConfig{
			Prefix: getEnv("CAPTCHA_LOGIN_REDIS_PREFIX", "fbb:captcha:login"),
			Expire: getEnvAsDuration("CAPTCHA_LOGIN_EXPIRE", 5*time.Minute),
			Length: getEnvAsInt("CAPTCHA_LENGTH", 4),
		},
		Permission: PermissionConfig{
			Mode: getEnv("PERMISSION_MODE", PermissionModeCasbin),
			RoleMenuExclude: getEnvAsStringArray("RBAC_ROLE_MENU_EXCLUDE", []string{
				"sys:monitor:redis",
				"sys:monitor:server",
			}),
			CasbinExclude: getEnvAsStringArray("RBAC_CASBIN_EXCLUDE", []string{
				"POST " + apiPrefix + "/auth/logout",
				"POST " + apiPrefix + "/auth/token/new",
			}),
			ReloadInterval: getEnvAsDuration("RBAC_RELOAD_INTERVAL", 30*time.Second),
		},
		Tree: TreeConfig{
			BuildType: getEnv("TREE_BUILD_TYPE", "traversal"),
		},
		Audit: AuditConfig{
			QueueSize:     getEnvAsInt("AUDIT_QUEUE_SIZE", 1024),
			Workers:       getEnvAsInt("AUDIT_WORKERS", 2),
			RetentionDays: getEnvAsInt("AUDIT_LOGIN_LOG_RETENTION_DAYS", 90),
			CleanupSpec:   getEnv("AUDIT_CLEANUP_CRON", "0 30 3 * * *"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/app.log"),
			MaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 7),
			MaxAge:     getEnvAsInt("LOG_MAX_AGE", 30),
			Compress:   getEnvAsBool("LOG_COMPRESS", true),
			Format:     getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowOrigins:     getEnvAsStringArray("CORS_ALLOW_ORIGINS", []string{"http://127.0.0.1:8000", "http://localhost:5173"}),
			AllowMethods:     getEnvAsStringArray("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			AllowHeaders:     getEnvAsStringArray("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"}),
			ExposeHeaders:    getEnvAsStringArray("CORS_EXPOSE_HEADERS", []string{"Content-Length", "Content-Type", "X-Request-ID"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 12),
		},
	}

	return config, nil
}
