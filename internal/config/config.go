// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	RAG           RAGConfig           `mapstructure:"rag"`
	Upload        UploadConfig        `mapstructure:"upload"`
	HeyGen        HeyGenConfig        `mapstructure:"heygen"`
	Seed          SeedConfig          `mapstructure:"seed"`
}

// AppConfig 存储应用元信息。
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 WebSocket 会话令牌相关的配置。
type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	TokenExpireMinutes int    `mapstructure:"token_expire_minutes"`
}

// AdminConfig 存储管理接口的访问密钥（bcrypt 哈希）。
type AdminConfig struct {
	TokenHash string `mapstructure:"token_hash"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses  string `mapstructure:"addresses"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	IndexName  string `mapstructure:"index_name"`
	Dimensions int    `mapstructure:"dimensions"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
// Provider 为 "azure" 时走 Azure OpenAI，其余值按 OpenAI 兼容接口处理。
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	APIVersion string `mapstructure:"api_version"`
	Model      string `mapstructure:"model"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	APIVersion string `mapstructure:"api_version"`
	Model      string `mapstructure:"model"`
}

// RAGConfig 配置检索增强生成的核心参数。
type RAGConfig struct {
	ChunkSize        int     `mapstructure:"chunk_size"`
	ChunkOverlap     int     `mapstructure:"chunk_overlap"`
	MaxRetrievedDocs int     `mapstructure:"max_retrieved_docs"`
	Temperature      float32 `mapstructure:"temperature"`
	MaxTokens        int     `mapstructure:"max_tokens"`
}

// UploadConfig 配置文件摄取的前置限制。
type UploadConfig struct {
	MaxFileSize      int64    `mapstructure:"max_file_size"`
	AllowedFileTypes []string `mapstructure:"allowed_file_types"`
}

// HeyGenConfig 存储 HeyGen 数字人服务相关的配置。
type HeyGenConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	AvatarID string `mapstructure:"avatar_id"`
	VoiceID  string `mapstructure:"voice_id"`
}

// SeedConfig 配置启动时批量导入的目录。
type SeedConfig struct {
	Dir string `mapstructure:"dir"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// 环境变量（例如 LLM_API_KEY）可以覆盖同名配置项。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	if err := Validate(&Conf); err != nil {
		panic(err)
	}
}

// setDefaults 写入与原始部署一致的默认值，保证所有配置项均可省略。
func setDefaults() {
	viper.SetDefault("app.name", "rag-chat-go")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("rag.chunk_size", 1000)
	viper.SetDefault("rag.chunk_overlap", 200)
	viper.SetDefault("rag.max_retrieved_docs", 5)
	viper.SetDefault("rag.temperature", 0.7)
	viper.SetDefault("rag.max_tokens", 1000)
	viper.SetDefault("upload.max_file_size", 10*1024*1024)
	viper.SetDefault("upload.allowed_file_types", []string{".pdf", ".txt", ".md", ".docx"})
	viper.SetDefault("elasticsearch.index_name", "documents")
	viper.SetDefault("elasticsearch.dimensions", 1536)
	viper.SetDefault("heygen.base_url", "https://api.heygen.com")
	viper.SetDefault("jwt.token_expire_minutes", 10)
}

// Validate 在启动阶段校验分块参数，非法组合直接拒绝启动而不是等到调用时才失败。
func Validate(c *Config) error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("配置错误: rag.chunk_size 必须大于 0, 当前为 %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("配置错误: rag.chunk_overlap 必须满足 0 <= overlap < chunk_size, 当前为 %d/%d",
			c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("配置错误: upload.max_file_size 必须大于 0")
	}
	return nil
}
