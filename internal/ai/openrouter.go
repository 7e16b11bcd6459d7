package ai

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

type openrouterConfig struct {
	openAIConfig
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

func createOpenRouterFactory(args interface{}) (IChatProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	client, err := newOpenAIClient("openrouter", &cfg.openAIConfig, defaultOpenRouterBaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.HTTPReferer != "" {
		client.headers["HTTP-Referer"] = cfg.HTTPReferer
	}
	if cfg.XTitle != "" {
		client.headers["X-Title"] = cfg.XTitle
	}
	return client, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
