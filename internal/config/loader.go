// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	apperrors "monk-ai-api/pkg/errors"
)

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	return LoadFromDir("configs")
}

// LoadFromDir 从指定目录加载配置
func LoadFromDir(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置
	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), false); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值 (兜底)
	setDefaults(v)

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验检索相关参数
func (c *Config) Validate() error {
	rag := c.RAG
	switch {
	case rag.TopKRetrieval <= 0:
		return apperrors.New(apperrors.CodeConfigInvalid, "rag.top_k_retrieval must be positive")
	case rag.TopKRerank <= 0:
		return apperrors.New(apperrors.CodeConfigInvalid, "rag.top_k_rerank must be positive")
	case rag.TopKRerank > rag.TopKRetrieval:
		return apperrors.New(apperrors.CodeConfigInvalid, "rag.top_k_rerank must not exceed rag.top_k_retrieval")
	case rag.ChunkSize <= 0 || rag.ChunkOverlap < 0 || rag.ChunkOverlap >= rag.ChunkSize:
		return apperrors.New(apperrors.CodeConfigInvalid, "rag.chunk_overlap must be in [0, chunk_size)")
	case rag.AddBatchSize <= 0:
		return apperrors.New(apperrors.CodeConfigInvalid, "rag.add_batch_size must be positive")
	case rag.Collection == "":
		return apperrors.New(apperrors.CodeConfigInvalid, "rag.collection is required")
	}
	return nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// 执行环境变量替换
	expanded := expandEnv(string(content))

	// 加载到 viper
	reader := strings.NewReader(expanded)
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		// 手动标记已加载文件，防止后续 ReadInConfig 报错
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// envPlaceholder 匹配 ${VAR} 或 ${VAR:default}
var envPlaceholder = regexp.MustCompile(`\$\{(\w+)(:([^}]*))?\}`)

// expandEnv 替换字符串中的 ${VAR:default} 占位符，未定义且无默认值的变量保留原样
func expandEnv(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		sub := envPlaceholder.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		if sub[2] != "" {
			return sub[3]
		}
		return match
	})
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 应用默认值
	v.SetDefault("app.name", "monk-ai-api")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "120s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.max_upload_bytes", 25<<20)

	// 数据库默认值
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "monk_ai")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 50)
	v.SetDefault("database.postgres.max_idle_conns", 10)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")
	v.SetDefault("database.postgres.auto_migrate", true)

	// Redis 默认值
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 100)
	v.SetDefault("cache.redis.min_idle_conns", 10)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")
	v.SetDefault("cache.translation_ttl", "24h")
	v.SetDefault("cache.embedding_lru_size", 1024)

	// Milvus 默认值
	v.SetDefault("vector.backend", "milvus")
	v.SetDefault("vector.milvus.host", "localhost")
	v.SetDefault("vector.milvus.port", 19530)
	v.SetDefault("vector.milvus.index_type", "HNSW")
	v.SetDefault("vector.milvus.metric_type", "COSINE")
	v.SetDefault("vector.milvus.hnsw_m", 16)
	v.SetDefault("vector.milvus.hnsw_ef_construction", 200)
	v.SetDefault("vector.milvus.hnsw_ef", 128)

	// LLM 默认值
	v.SetDefault("llm.default_provider", "groq")

	// Embedding / Rerank 默认值
	v.SetDefault("embedding.provider", "http")
	v.SetDefault("embedding.model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("embedding.dimension", 384)
	v.SetDefault("embedding.batch_size", 64)
	v.SetDefault("embedding.timeout", "30s")
	v.SetDefault("rerank.model", "cross-encoder/ms-marco-MiniLM-L-6-v2")
	v.SetDefault("rerank.timeout", "10s")

	// 语音转写默认值
	v.SetDefault("transcription.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("transcription.model", "whisper-large-v3")
	v.SetDefault("transcription.timeout", "60s")

	// 回答增强默认值
	v.SetDefault("enrichment.translation.enabled", true)
	v.SetDefault("enrichment.translation.target_language", "hi")
	v.SetDefault("enrichment.translation.timeout", "10s")
	v.SetDefault("enrichment.translation.requests_per_second", 5)
	v.SetDefault("enrichment.translation.burst", 5)
	v.SetDefault("enrichment.keywords.enabled", true)
	v.SetDefault("enrichment.keywords.provider", "groq-keywords")
	v.SetDefault("enrichment.keywords.max_terms", 3)
	v.SetDefault("enrichment.keywords.timeout", "15s")
	v.SetDefault("enrichment.keywords.requests_per_second", 2)
	v.SetDefault("enrichment.keywords.burst", 3)

	// RAG 默认值
	v.SetDefault("rag.collection", "hindu_scriptures")
	v.SetDefault("rag.top_k_retrieval", 15)
	v.SetDefault("rag.top_k_rerank", 3)
	v.SetDefault("rag.chunk_size", 700)
	v.SetDefault("rag.chunk_overlap", 140)
	v.SetDefault("rag.add_batch_size", 100)
	v.SetDefault("rag.answer_provider", "groq")
	v.SetDefault("rag.retrieval_timeout", "15s")
	v.SetDefault("rag.generation_timeout", "60s")
	v.SetDefault("rag.enrichment_timeout", "20s")
	v.SetDefault("rag.persist_timeout", "10s")

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.logging.output", "stdout")
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.exporter", "otlp")
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.jwt.enabled", true)
	v.SetDefault("security.jwt.issuer", "monk-ai")
	v.SetDefault("security.jwt.expiration", "24h")
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests_per_minute", 30)
}
