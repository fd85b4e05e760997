// Package askdex embeds the askdex question answering pipeline in a Go
// program. It connects to the Redis passage index and an OpenAI-compatible
// provider and answers questions with citations.
//
//	client, err := askdex.New(ctx,
//	    askdex.WithRedis("localhost:6379", ""),
//	    askdex.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	    askdex.WithModels("gpt-4o", "gpt-4o-mini"),
//	    askdex.WithEmbedding("text-embedding-3-small", 1536),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ans, err := client.Ask(ctx, askdex.Question{Text: "How much is the Pro plan?"})
//	fmt.Println(ans.Text, ans.Citations)
//
// A failing provider never surfaces as an error from Ask: the answer falls
// back to a cheaper path and Diagnostics.Degradations says which.
package askdex
