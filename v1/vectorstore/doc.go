// Package vectorstore indexes texts as embeddings and retrieves them by
// similarity, on top of any vectordb.Service (normally the CrateDB adapter).
//
// A Store writes to and searches one collection. A MultiCollection searches
// several collections at once, merging their results by distance, and rejects
// every write with ErrReadOnly.
//
// Scores are relevance scores: the squared euclidean distance d of a hit is
// mapped through a RelevanceScoreFunc, by default 1/(1+d), so higher is
// better and an exact match scores 1.
//
// Basic usage:
//
//	backend := cratedb.NewAdapter(client)
//	store, err := vectorstore.New(ctx, backend, embedder,
//	    vectorstore.WithCollectionName("docs"))
//	if err != nil {
//	    return err
//	}
//	_, err = store.AddTexts(ctx, []string{"foo", "bar"}, nil, nil)
//	docs, err := store.SimilaritySearch(ctx, "foo", 4,
//	    vectorstore.WithFilterMap(map[string]any{"page": map[string]any{"$in": []any{"0", "2"}}}))
//
// Retrievers wrap a store for chains:
//
//	rt := store.AsRetriever(
//	    vectorstore.WithSearchType(vectorstore.SearchSimilarityScoreThreshold),
//	    vectorstore.WithSearchOptions(vectorstore.WithScoreThreshold(0.35)))
//	docs, err := rt.Invoke(ctx, "foo")
package vectorstore
