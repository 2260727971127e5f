package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/recipekit/core"
)

// EnvPrefix 是环境变量前缀；嵌套字段用双下划线分隔，
// 例如 RECIPEKIT_SERVER__ADDR -> server.addr。
const EnvPrefix = "RECIPEKIT_"

// ConfigPathEnvVar 指定配置文件路径。
const ConfigPathEnvVar = "RECIPEKIT_CONFIG"

// DefaultConfigPaths 是未指定路径时依次查找的配置文件。
var DefaultConfigPaths = []string{
	"recipekit.yaml",
	"config/recipekit.yaml",
	"/etc/recipekit/recipekit.yaml",
}

// Settings 是服务的全部配置。
type Settings struct {
	Server    ServerSettings    `koanf:"server"`
	Log       LogSettings       `koanf:"log"`
	Store     StoreSettings     `koanf:"store"`
	Recommend RecommendSettings `koanf:"recommend"`
}

type ServerSettings struct {
	Addr         string        `koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	// RateLimit 是每个客户端 IP 每分钟的请求上限，0 表示不限流
	RateLimit   int      `koanf:"rate_limit" validate:"gte=0"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type LogSettings struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

type StoreSettings struct {
	// Driver: memory / redis / duckdb
	Driver        string `koanf:"driver" validate:"oneof=memory redis duckdb"`
	RedisAddr     string `koanf:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	// DuckDBPath 为空时使用内存库
	DuckDBPath string `koanf:"duckdb_path"`
	// FixturePath 是启动时导入的种子数据（YAML），为空不导入
	FixturePath string `koanf:"fixture_path"`
}

type RecommendSettings struct {
	HistoryWindow      time.Duration `koanf:"history_window" validate:"gt=0"`
	RecentFollowWindow time.Duration `koanf:"recent_follow_window" validate:"gt=0"`
	KeywordLimit       int           `koanf:"keyword_limit" validate:"gt=0"`
	TitleWeight        float64       `koanf:"title_weight" validate:"gte=0"`
	FollowWeight       float64       `koanf:"follow_weight" validate:"gte=0"`
	MaxConcurrent      int           `koanf:"max_concurrent" validate:"gte=0"`
	DefaultLimit       int           `koanf:"default_limit" validate:"gt=0,ltefield=MaxLimit"`
	MaxLimit           int           `koanf:"max_limit" validate:"gt=0"`
	// CandidateExpr 是候选用户的 CEL 保留条件，为空不过滤
	CandidateExpr string `koanf:"candidate_expr"`
	// BlacklistKey 是 KV 中全局黑名单（JSON 数组）的 key，为空不启用
	BlacklistKey string `koanf:"blacklist_key"`
	// BlockKeyPrefix 是观看者拉黑列表的 key 前缀，为空不启用
	BlockKeyPrefix string `koanf:"block_key_prefix"`
	// PipelinesPath 指定外部 pipeline 配置，为空使用内置配置
	PipelinesPath string `koanf:"pipelines_path"`
}

// Default 返回内置默认配置。
func Default() *Settings {
	return &Settings{
		Server: ServerSettings{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit:    600,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "json",
		},
		Store: StoreSettings{
			Driver: "memory",
		},
		Recommend: RecommendSettings{
			HistoryWindow:      30 * 24 * time.Hour,
			RecentFollowWindow: 24 * time.Hour,
			KeywordLimit:       30,
			TitleWeight:        2,
			FollowWeight:       10,
			MaxConcurrent:      16,
			DefaultLimit:       10,
			MaxLimit:           100,
		},
	}
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载配置并校验。
// path 为空时查找 RECIPEKIT_CONFIG 与 DefaultConfigPaths。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if v, ok := k.Get("server.cors_origins").(string); ok {
		if err := k.Set("server.cors_origins", splitList(v)); err != nil {
			return nil, fmt.Errorf("set server.cors_origins: %w", err)
		}
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return s, nil
}

// envTransform: RECIPEKIT_RECOMMEND__MAX_LIMIT -> recommend.max_limit
func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置取值。
func (s *Settings) Validate() error {
	return validate.Struct(s)
}

var _ core.RecommendConfig = (*Settings)(nil)

func (s *Settings) HistoryWindow() time.Duration      { return s.Recommend.HistoryWindow }
func (s *Settings) RecentFollowWindow() time.Duration { return s.Recommend.RecentFollowWindow }
func (s *Settings) KeywordLimit() int                 { return s.Recommend.KeywordLimit }
func (s *Settings) DefaultPage() int                  { return 1 }
func (s *Settings) DefaultLimit() int                 { return s.Recommend.DefaultLimit }
