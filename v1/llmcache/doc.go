// Package llmcache caches language model generations in CrateDB.
//
// FullCache is an exact-match cache keyed by prompt and model configuration
// (the "llm string"), stored one row per generation in full_llm_cache.
//
// SemanticCache embeds prompts and answers a lookup with the generations of
// the nearest cached prompt, if its squared euclidean distance is at most the
// configured threshold (DefaultScoreThreshold). Every model configuration gets
// its own vector store collection, named by a hash of the llm string.
//
// Both caches are plain handles; there is no process-wide active cache.
//
//	cache, err := llmcache.NewFullCache(ctx, client)
//	if gens, ok, err := cache.Lookup(ctx, prompt, llm); err == nil && ok {
//	    return gens, nil
//	}
//	gens := callModel(prompt)
//	_ = cache.Update(ctx, prompt, llm, gens)
package llmcache
