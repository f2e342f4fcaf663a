// Package extract asks a generative completion provider for data that
// conforms to a compiled target and validates what comes back.
//
// The target's JSON Schema is placed in the system prompt and the model is
// asked to answer with a fenced ```json block. Replies that fail validation
// are retried with the issues appended to the conversation; rate-limited
// attempts are retried unchanged. Everything else aborts the extraction.
//
//	c := extract.New(openai.New(baseURL))
//	res, err := c.Extract(ctx, target, extract.Request{
//		Messages:   []extract.Message{extract.Text(extract.RoleUser, "John, 30")},
//		Model:      "gpt-4o-mini",
//		Credential: apiKey,
//	})
//	var ex *extract.RetriesExhaustedError
//	if errors.As(err, &ex) {
//		log.Printf("gave up after %d attempts (%d tokens)", ex.Attempts, ex.TotalUsage.TotalTokens)
//	}
package extract
