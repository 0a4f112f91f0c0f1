// Package classifier sends free text to a large language model and returns
// the structured answer as render data.
//
// Two backends are provided:
//   - Gateway talks to an OpenAI compatible chat completions endpoint (the
//     Cloudflare AI gateway or OpenAI itself) and asks for a strict
//     json_schema response.
//   - Adapter uses any provider client from dago-adapters and asks for JSON
//     in the prompt.
//
// Either backend can be wrapped with Cached to reuse answers from Redis.
//
// Example usage:
//
//	gw, err := classifier.NewGateway(classifier.GatewayConfig{
//	    BaseURL:      cfg.GatewayURL,
//	    APIKey:       cfg.OpenAIAPIKey,
//	    GatewayToken: cfg.CFToken,
//	    Model:        cfg.GatewayModel,
//	}, logger)
//
//	result, err := gw.Classify(ctx, category, "the build was red")
//	html := render.Render(category.Template, result.Data)
package classifier
