// Package gobahrain is a Go client for the Go Bahrain recommendation API.
//
//	client, _ := gobahrain.New("https://api.gobahrain.app",
//	    gobahrain.WithAPIKey(os.Getenv("GOBAHRAIN_API_KEY")),
//	)
//	plan, _ := client.Plan(ctx, "a relaxed day with history and seafood",
//	    &gobahrain.Preferences{Food: []string{"Seafood"}},
//	)
//	for _, item := range plan.Items {
//	    fmt.Println(item.Time, item.Spot)
//	}
//
// Every method returns an *APIError for non-2xx responses. Use errors.Is with the
// exported sentinels (ErrInvalidRequest, ErrTokenQuotaExceeded, ...) to branch on the cause.
package gobahrain
