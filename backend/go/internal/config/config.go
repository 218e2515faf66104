package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// 默认值，与 config.yaml 模板保持一致。
const (
	DefaultMaxIterations    = 20
	DefaultMaxTokens        = 4096
	DefaultAnthropicModel   = "claude-sonnet-4-5-20250929"
	DefaultOpenAIModel      = "gpt-4o"
	DefaultGeminiModel      = "gemini-1.5-pro"
	DefaultOllamaModel      = "llama3.1"
	DefaultOllamaBaseURL    = "http://localhost:11434"
	DefaultServerAddress    = ":8080"
	DefaultDataDir          = "data"
	DefaultFrameworkPattern = "*.yaml"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address     string `yaml:"address"`     // 监听地址，例如 ":8080"
	GRPCAddress string `yaml:"grpcAddress"` // gRPC 健康检查地址，为空时不启动
}

// AuthConfig 用于配置 API 认证。jwtSecret 为空时不启用认证。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"`
}

// ProviderConfig 描述单个大语言模型提供商的连接信息。
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`  // API 密钥
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // 可选，自定义服务地址
}

// LLMConfig 包含了不同LLM提供商的配置。
type LLMConfig struct {
	Provider  string         `yaml:"provider"` // "anthropic", "openai", "gemini", "ollama"
	Anthropic ProviderConfig `yaml:"anthropic"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Gemini    ProviderConfig `yaml:"gemini"`
	Ollama    ProviderConfig `yaml:"ollama"`
}

// Active 返回当前提供商的配置。
func (c LLMConfig) Active() ProviderConfig {
	switch c.Provider {
	case "openai":
		return c.OpenAI
	case "gemini":
		return c.Gemini
	case "ollama":
		return c.Ollama
	default:
		return c.Anthropic
	}
}

// Credential 返回当前提供商的凭证。Ollama 是本地服务，以其地址作为凭证。
func (c LLMConfig) Credential() string {
	if c.Provider == "ollama" {
		return c.Ollama.BaseURL
	}
	return c.Active().APIKey
}

// CredentialEnv 返回当前提供商凭证对应的环境变量名。
func (c LLMConfig) CredentialEnv() string {
	switch c.Provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "ollama":
		return "OLLAMA_HOST"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// AgentConfig 定义了 Agent 循环的限制。
type AgentConfig struct {
	MaxIterations int `yaml:"maxIterations"` // 单次调用最多的模型轮次
	MaxTokens     int `yaml:"maxTokens"`     // 每轮模型调用的最大输出 token
}

// StorageConfig 定义了本地目录。
type StorageConfig struct {
	DataDir          string `yaml:"dataDir"`          // 数据根目录
	OutputDir        string `yaml:"outputDir"`        // 生成文档的输出目录
	FrameworksDir    string `yaml:"frameworksDir"`    // 合规框架 YAML 所在目录
	FrameworkPattern string `yaml:"frameworkPattern"` // 框架文件匹配模式
}

// OfficeConfig 定义了 Office 文档生成的配置。
type OfficeConfig struct {
	LicenseKey string `yaml:"licenseKey"` // unioffice 计量许可证密钥
}

// SQLiteConfig 定义了 SQLite 数据库文件。
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
	TaskTTL  int    `yaml:"taskTTL"`  // 任务缓存有效期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 报告归档存储桶
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topics  []string `yaml:"topics"`  // 需要自动创建的主题
}

// EtcdConfig 定义了 Etcd 服务注册的连接配置。
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints"` // Etcd 节点地址列表
	TTL       int64    `yaml:"ttl"`       // 租约时长 (秒)
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Driver  string       `yaml:"driver"` // "sqlite" 或 "mysql"
	SQLite  SQLiteConfig `yaml:"sqlite"`
	MySQL   MySQLConfig  `yaml:"mysql"`
	Redis   RedisConfig  `yaml:"redis"`
	MinIO   MinIOConfig  `yaml:"minio"`
	MongoDB MongoConfig  `yaml:"mongodb"`
	Kafka   KafkaConfig  `yaml:"kafka"`
	Etcd    EtcdConfig   `yaml:"etcd"`
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "fixedWindow", "tokenBucket"
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	LLM        LLMConfig        `yaml:"llm"`
	Agent      AgentConfig      `yaml:"agent"`
	Storage    StorageConfig    `yaml:"storage"`
	Office     OfficeConfig     `yaml:"office"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，随后补全默认值并应用环境变量。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	return Parse(yamlFile)
}

// Parse 解析 YAML 内容并返回补全后的配置。
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.Defaults()
	cfg.ApplyEnv(os.Getenv)
	return &cfg, nil
}

// LoadOrDefault 在配置文件不存在时返回默认配置。
func LoadOrDefault(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &AppConfig{}
		cfg.Defaults()
		cfg.ApplyEnv(os.Getenv)
		return cfg, nil
	}
	return LoadConfig(path)
}

// Defaults 为未设置的字段填充默认值。
func (c *AppConfig) Defaults() {
	if c.App.Name == "" {
		c.App.Name = "safety-compliance-manager"
	}
	if c.App.Version == "" {
		c.App.Version = "0.1.0"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "anthropic"
	}
	if c.LLM.Anthropic.Model == "" {
		c.LLM.Anthropic.Model = DefaultAnthropicModel
	}
	if c.LLM.OpenAI.Model == "" {
		c.LLM.OpenAI.Model = DefaultOpenAIModel
	}
	if c.LLM.Gemini.Model == "" {
		c.LLM.Gemini.Model = DefaultGeminiModel
	}
	if c.LLM.Ollama.Model == "" {
		c.LLM.Ollama.Model = DefaultOllamaModel
	}
	if c.Agent.MaxIterations <= 0 {
		c.Agent.MaxIterations = DefaultMaxIterations
	}
	if c.Agent.MaxTokens <= 0 {
		c.Agent.MaxTokens = DefaultMaxTokens
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = filepath.Join(c.Storage.DataDir, "output")
	}
	if c.Storage.FrameworksDir == "" {
		c.Storage.FrameworksDir = filepath.Join(c.Storage.DataDir, "frameworks")
	}
	if c.Storage.FrameworkPattern == "" {
		c.Storage.FrameworkPattern = DefaultFrameworkPattern
	}
	if c.Databases.Driver == "" {
		c.Databases.Driver = "sqlite"
	}
	if c.Databases.SQLite.Path == "" {
		c.Databases.SQLite.Path = filepath.Join(c.Storage.DataDir, "scm.db")
	}
	if c.Databases.Redis.TaskTTL <= 0 {
		c.Databases.Redis.TaskTTL = 3600
	}
	if c.Databases.Etcd.TTL <= 0 {
		c.Databases.Etcd.TTL = 10
	}
}

// ApplyEnv 使用环境变量覆盖凭证等敏感配置。getenv 通常为 os.Getenv。
func (c *AppConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.Anthropic.APIKey = v
	}
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Gemini.APIKey = v
	}
	if v := getenv("OLLAMA_HOST"); v != "" {
		c.LLM.Ollama.BaseURL = v
	}
	if v := getenv("SCM_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := getenv("SCM_LOG_LEVEL"); v != "" {
		c.Logger.Level = strings.ToLower(v)
	}
	if v := getenv("SCM_DATABASE_PATH"); v != "" {
		c.Databases.SQLite.Path = v
	}
}

// Masked 返回隐藏了密钥的配置副本，用于展示。
func (c AppConfig) Masked() AppConfig {
	c.LLM.Anthropic.APIKey = mask(c.LLM.Anthropic.APIKey)
	c.LLM.OpenAI.APIKey = mask(c.LLM.OpenAI.APIKey)
	c.LLM.Gemini.APIKey = mask(c.LLM.Gemini.APIKey)
	c.Auth.JwtSecret = mask(c.Auth.JwtSecret)
	c.Office.LicenseKey = mask(c.Office.LicenseKey)
	c.Databases.MySQL.Password = mask(c.Databases.MySQL.Password)
	c.Databases.Redis.Password = mask(c.Databases.Redis.Password)
	c.Databases.MinIO.SecretKey = mask(c.Databases.MinIO.SecretKey)
	c.Databases.MongoDB.Password = mask(c.Databases.MongoDB.Password)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Marshal 将配置序列化为 YAML。
func (c AppConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteTemplate 在 path 写入一个默认配置模板。文件已存在时返回错误。
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("配置文件 '%s' 已存在", path)
	}
	cfg := AppConfig{}
	cfg.Defaults()
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("序列化默认配置失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}
