//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"monk-ai-api/internal/config"
)

// InitializeApp 初始化 API 网关
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		VectorSet,
		RetrievalSet,
		ChatSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeLoader 初始化知识库导入工具，只依赖 redis 与向量索引
func InitializeLoader(ctx context.Context, cfg *config.Config) (*Loader, func(), error) {
	wire.Build(
		ProvideRedisClient,
		ProvideCheckpointStore,
		VectorSet,
		wire.Struct(new(Loader), "*"),
	)
	return nil, nil, nil
}
