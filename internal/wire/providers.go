// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"strings"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/google/wire"

	"monk-ai-api/internal/application/chat"
	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/config"
	"monk-ai-api/internal/domain/repository"
	infraembedding "monk-ai-api/internal/infrastructure/embedding"
	"monk-ai-api/internal/infrastructure/enrichment"
	"monk-ai-api/internal/infrastructure/llm"
	"monk-ai-api/internal/infrastructure/persistence/memory"
	"monk-ai-api/internal/infrastructure/persistence/milvus"
	"monk-ai-api/internal/infrastructure/persistence/postgres"
	"monk-ai-api/internal/infrastructure/persistence/redis"
	"monk-ai-api/internal/infrastructure/rerank"
	"monk-ai-api/internal/interfaces/http/handler"
	"monk-ai-api/internal/interfaces/http/middleware"
	"monk-ai-api/internal/interfaces/http/router"
	"monk-ai-api/pkg/logger"
)

// App API 网关依赖容器
type App struct {
	Router *router.Router
	Index  *retrieval.VectorIndex
}

// Loader 知识库导入依赖容器
type Loader struct {
	Index       *retrieval.VectorIndex
	Checkpoints repository.CheckpointStore
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewChatSessionRepository,
	postgres.NewChatMessageRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ChatSessionRepository), new(*postgres.ChatSessionRepository)),
	wire.Bind(new(repository.ChatMessageRepository), new(*postgres.ChatMessageRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideTranslationCache,
	ProvideRateLimiter,
)

// VectorSet 向量索引：Embedder + 向量存储（milvus 不可达时禁用）
var VectorSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideVectorStore,
	ProvideEmbedderOptional,
	ProvideVectorIndex,
)

// RetrievalSet 检索引擎
var RetrievalSet = wire.NewSet(
	ProvideReranker,
	ProvideRetrievalEngine,
)

// ChatSet 问答编排
var ChatSet = wire.NewSet(
	ProvideChatModelFactory,
	wire.Bind(new(chat.ChatModelFactory), new(*llm.EinoFactory)),
	chat.NewPromptBuilder,
	ProvideGenerator,
	ProvideTranslator,
	ProvideKeywordExplainer,
	ProvideEnricher,
	ProvideTranscriber,
	chat.NewSessionService,
	wire.Bind(new(chat.SessionStore), new(*chat.SessionService)),
	ProvideOrchestrator,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthConfig,
	handler.NewHealthHandler,
	ProvideChatHandler,
	ProvideSessionHandler,
	ProvideKnowledgeHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端；开启 auto_migrate 时同步表结构
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Postgres.AutoMigrate {
		if err := client.AutoMigrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideTranslationCache(client *redis.Client) *redis.Cache {
	return redis.NewCache(client, "translation")
}

// ProvideRateLimiter 限流关闭时返回 nil
func ProvideRateLimiter(cfg *config.Config, client *redis.Client) middleware.RateLimiter {
	if !cfg.Security.RateLimit.Enabled || client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

func ProvideCheckpointStore(client *redis.Client) repository.CheckpointStore {
	return redis.NewCheckpointStore(client)
}

// ProvideMilvusClientOptional memory 后端或 milvus 不可达时返回 nil，不阻塞启动
func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	if strings.EqualFold(cfg.Vector.Backend, "memory") {
		return nil, func() {}, nil
	}
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, vector features disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideVectorStore(cfg *config.Config, client *milvus.Client) retrieval.VectorStore {
	if strings.EqualFold(cfg.Vector.Backend, "memory") {
		return memory.NewVectorStore(cfg.Embedding.Dimension)
	}
	if client == nil {
		return nil
	}
	repo := milvus.NewRepository(client, cfg.RAG.Collection, cfg.Embedding.Dimension)
	return milvus.NewRetrievalVectorStore(repo)
}

func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) einoembedding.Embedder {
	embedder, err := infraembedding.NewEmbedder(ctx, &cfg.Embedding, cfg.Cache.EmbeddingLRUSize)
	if err != nil {
		logger.Warn(ctx, "embedding not available, vector features disabled", "error", err.Error())
		return nil
	}
	return embedder
}

func ProvideVectorIndex(cfg *config.Config, embedder einoembedding.Embedder, store retrieval.VectorStore) *retrieval.VectorIndex {
	return retrieval.NewVectorIndex(embedder, store, cfg.RAG.AddBatchSize, cfg.Embedding.BatchSize)
}

func ProvideReranker(cfg *config.Config) retrieval.Reranker {
	return rerank.NewClient(&cfg.Rerank)
}

func ProvideRetrievalEngine(cfg *config.Config, index *retrieval.VectorIndex, reranker retrieval.Reranker) *retrieval.Engine {
	return retrieval.NewEngine(index, reranker, cfg.RAG.TopKRetrieval, cfg.RAG.TopKRerank)
}

func ProvideChatModelFactory(cfg *config.Config) *llm.EinoFactory {
	return llm.NewEinoFactory(&cfg.LLM)
}

func ProvideGenerator(cfg *config.Config, models chat.ChatModelFactory) *chat.Generator {
	return chat.NewGenerator(models, cfg.RAG.AnswerProvider, cfg.RAG.GenerationTimeout)
}

// ProvideTranslator 翻译关闭或初始化失败时降级为占位翻译
func ProvideTranslator(ctx context.Context, cfg *config.Config, cache *redis.Cache) chat.Translator {
	tcfg := &cfg.Enrichment.Translation
	if !tcfg.Enabled {
		return chat.NoopTranslator{}
	}
	t, err := enrichment.NewGoogleTranslator(ctx, tcfg, cache, cfg.Cache.TranslationTTL)
	if err != nil {
		logger.Warn(ctx, "translation not available", "error", err.Error())
		return chat.NoopTranslator{}
	}
	return t
}

// ProvideKeywordExplainer 关键词解释关闭或初始化失败时返回空解释
func ProvideKeywordExplainer(ctx context.Context, cfg *config.Config, models chat.ChatModelFactory) chat.KeywordExplainer {
	kcfg := &cfg.Enrichment.Keywords
	if !kcfg.Enabled {
		return chat.NoopKeywordExplainer{}
	}
	lookup, err := enrichment.NewSearchDefinitionLookup(ctx, kcfg)
	if err != nil {
		logger.Warn(ctx, "keyword lookup not available", "error", err.Error())
		return chat.NoopKeywordExplainer{}
	}
	explainer, err := chat.NewLLMKeywordExplainer(models, kcfg.Provider, lookup, kcfg.MaxTerms)
	if err != nil {
		logger.Warn(ctx, "keyword explainer not available", "error", err.Error())
		return chat.NoopKeywordExplainer{}
	}
	return explainer
}

func ProvideEnricher(cfg *config.Config, translator chat.Translator, explainer chat.KeywordExplainer) *chat.Enricher {
	return chat.NewEnricher(translator, explainer, cfg.RAG.EnrichmentTimeout)
}

func ProvideTranscriber(cfg *config.Config) chat.Transcriber {
	return llm.NewWhisperTranscriber(&cfg.Transcription)
}

func ProvideOrchestrator(
	cfg *config.Config,
	engine *retrieval.Engine,
	prompts *chat.PromptBuilder,
	generator *chat.Generator,
	enricher *chat.Enricher,
	store chat.SessionStore,
	transcriber chat.Transcriber,
) *chat.Orchestrator {
	return chat.NewOrchestrator(engine, prompts, generator, enricher, store, transcriber, chat.Timeouts{
		Retrieval:   cfg.RAG.RetrievalTimeout,
		Persistence: cfg.RAG.PersistTimeout,
	})
}

func ProvideChatHandler(cfg *config.Config, orchestrator *chat.Orchestrator) *handler.ChatHandler {
	return handler.NewChatHandler(orchestrator, cfg.Server.HTTP.MaxUploadBytes)
}

func ProvideSessionHandler(sessions *chat.SessionService) *handler.SessionHandler {
	return handler.NewSessionHandler(sessions)
}

func ProvideKnowledgeHandler(cfg *config.Config, index *retrieval.VectorIndex) *handler.KnowledgeHandler {
	return handler.NewKnowledgeHandler(index, KnowledgeInfo(cfg))
}

// KnowledgeInfo 统计展示信息，API 与导入工具共用
func KnowledgeInfo(cfg *config.Config) handler.KnowledgeInfo {
	return handler.KnowledgeInfo{
		Collection:     cfg.RAG.Collection,
		EmbeddingModel: cfg.Embedding.Model,
		RerankerModel:  cfg.Rerank.Model,
	}
}

// ProvideAuthConfig 提供认证配置
func ProvideAuthConfig(cfg *config.Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		Secret:    cfg.Security.JWT.Secret,
		Issuer:    cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
		Enabled:   cfg.Security.JWT.Enabled,
	}
}
