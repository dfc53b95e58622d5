//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"z-llm-chat-api/internal/config"
)

// InitializeApp 装配应用及其清理函数
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
