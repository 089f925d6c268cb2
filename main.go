package main

import (
	"context"

	"github.com/rs/zerolog/log"

	assistantx "github.com/naratcha/shopmate/agent/assistant"
	catalogx "github.com/naratcha/shopmate/agent/catalog"
	llmx "github.com/naratcha/shopmate/agent/llm"
	promptx "github.com/naratcha/shopmate/agent/prompt"
	runnerx "github.com/naratcha/shopmate/agent/runner"
	statex "github.com/naratcha/shopmate/agent/state"
	toolx "github.com/naratcha/shopmate/agent/tool"
	configx "github.com/naratcha/shopmate/pkg/config"
	_ "github.com/naratcha/shopmate/pkg/logger/autoload"
	openrouterx "github.com/naratcha/shopmate/pkg/openrouter"
	"github.com/naratcha/shopmate/ui"
)

type AppConfig struct {
	UserID         string `envconfig:"USER_ID" split_words:"true" default:"web_user"`
	Title          string `envconfig:"TITLE" split_words:"true"`
	ProductBaseURL string `envconfig:"PRODUCT_BASE_URL" split_words:"true"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("SHOPMATE")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	// Credential sanity check before anything touches the API.
	if openrouterx.NewClient(llmCfg.OpenRouter()) == nil {
		log.Fatal().Msg("openrouter api key is missing")
	}

	ctx := context.Background()

	orCfg := llmCfg.OpenRouter()
	chatModel, err := orCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create chat model")
	}

	catalog, err := catalogx.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load catalog")
	}

	registry, err := toolx.New(catalog, toolx.WithProductBaseURL(appCfg.ProductBaseURL))
	if err != nil {
		log.Fatal().Err(err).Msg("build tool registry")
	}

	store := statex.NewMemoryStore()

	capability, err := assistantx.New(chatModel, registry.Infos(), registry.Executor(), store, assistantx.Config{
		SystemPrompt: promptx.System(),
		Channel:      "chat",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build assistant")
	}

	run, err := runnerx.New(capability, store, runnerx.Config{Channel: "chat"})
	if err != nil {
		log.Fatal().Err(err).Msg("build runner")
	}

	if err := ui.Run(run, ui.Config{Title: appCfg.Title, UserID: appCfg.UserID}); err != nil {
		log.Fatal().Err(err).Msg("chat ui exited")
	}
}
