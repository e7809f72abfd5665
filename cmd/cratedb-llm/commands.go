package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/cratedb-llm/v1/chathistory"
	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/embedding"
	"github.com/Aleph-Alpha/cratedb-llm/v1/loader"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectorstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the collection and embedding tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		dimensions, _ := cmd.Flags().GetInt("dimensions")

		client, closeFn, err := connect()
		if err != nil {
			return err
		}
		defer closeFn()

		width, err := cratedb.NewAdapter(client).Migrate(cmd.Context(), dimensions)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tables ready in schema %s, vector width %d\n", cfg.Connection.Schema, width)
		return nil
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage vector collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, closeFn, err := connect()
		if err != nil {
			return err
		}
		defer closeFn()

		adapter := cratedb.NewAdapter(client)
		names, err := adapter.ListCollections(cmd.Context())
		if err != nil {
			return err
		}
		collections := make([]vectordb.Collection, 0, len(names))
		for _, name := range names {
			c, err := adapter.GetCollection(cmd.Context(), name)
			if err != nil {
				return err
			}
			collections = append(collections, *c)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(collections)
		}
		if len(collections) == 0 {
			fmt.Fprintln(out, "No collections found")
			return nil
		}
		for _, c := range collections {
			fmt.Fprintf(out, "%-40s %8d records  %s\n", c.Name, c.PointCount, c.ID)
		}
		return nil
	},
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collection and its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, closeFn, err := connect()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := cratedb.NewAdapter(client).DeleteCollection(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Collection '%s' deleted\n", args[0])
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Similarity search, embedding the query with the EMBEDDING_* service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collections, _ := cmd.Flags().GetStringSlice("collection")
		k, _ := cmd.Flags().GetInt("k")
		filterJSON, _ := cmd.Flags().GetString("filter")

		filter, err := vectordb.ParseFilterJSON([]byte(filterJSON))
		if err != nil {
			return err
		}
		embedder, err := embedding.NewClient(embedding.NewConfig())
		if err != nil {
			return err
		}
		defer embedder.Close()

		client, closeFn, err := connect()
		if err != nil {
			return err
		}
		defer closeFn()

		store, err := vectorstore.NewMultiCollection(cratedb.NewAdapter(client), embedder, collections)
		if err != nil {
			return err
		}
		hits, err := store.SimilaritySearchWithScore(cmd.Context(), args[0], k, vectorstore.WithFilter(filter))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, hit := range hits {
			if err := enc.Encode(map[string]any{
				"id":       hit.Document.ID,
				"score":    hit.Score,
				"content":  hit.Document.PageContent,
				"metadata": hit.Document.Metadata,
			}); err != nil {
				return err
			}
		}
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run a query and print one JSON document per row",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		rawParams, _ := cmd.Flags().GetStringToString("param")
		contentColumns, _ := cmd.Flags().GetStringSlice("content-columns")
		metadataColumns, _ := cmd.Flags().GetStringSlice("metadata-columns")
		rownum, _ := cmd.Flags().GetBool("rownum")

		client, closeFn, err := connect()
		if err != nil {
			return err
		}
		defer closeFn()

		opts := []loader.Option{
			loader.WithPageContentColumns(contentColumns...),
			loader.WithMetadataColumns(metadataColumns...),
		}
		if len(rawParams) > 0 {
			params := make(map[string]any, len(rawParams))
			for k, v := range rawParams {
				params[k] = v
			}
			opts = append(opts, loader.WithParameters(params))
		}
		if rownum {
			opts = append(opts, loader.WithRownumInMetadata())
		}

		l, err := loader.New(client, query, opts...)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		return l.LazyLoad(cmd.Context(), func(doc schema.Document) error { return enc.Encode(doc) })
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect chat message histories",
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Print the messages of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		msgs, err := store.Messages(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, m := range msgs {
			fmt.Fprintf(out, "%s: %s\n", strings.ToUpper(string(m.Role)), m.Content)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear <session>",
	Short: "Delete every message of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Clear(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session '%s' cleared\n", args[0])
		return nil
	},
}

func openHistory(cmd *cobra.Command) (*chathistory.Store, func(), error) {
	table, _ := cmd.Flags().GetString("table")

	client, closeFn, err := connect()
	if err != nil {
		return nil, nil, err
	}
	store, err := chathistory.NewStore(cmd.Context(), client, chathistory.WithTableName(table))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

func init() {
	migrateCmd.Flags().Int("dimensions", 0, "embedding vector width (0 keeps an existing table's width)")

	collectionsCmd.AddCommand(collectionsListCmd, collectionsDeleteCmd)
	collectionsListCmd.Flags().Bool("json", false, "output as JSON")

	searchCmd.Flags().StringSlice("collection", []string{vectorstore.DefaultCollectionName}, "collections to search")
	searchCmd.Flags().IntP("k", "k", vectorstore.DefaultK, "number of results")
	searchCmd.Flags().String("filter", "", `metadata filter as JSON, e.g. {"page": {"$in": ["0", "2"]}}`)

	loadCmd.Flags().String("query", "", "SQL query, named parameters as @name")
	loadCmd.Flags().StringToString("param", nil, "query parameter name=value")
	loadCmd.Flags().StringSlice("content-columns", nil, "columns rendered into the page content (default all)")
	loadCmd.Flags().StringSlice("metadata-columns", nil, "columns copied into the metadata")
	loadCmd.Flags().Bool("rownum", false, "add the row number to the metadata")
	_ = loadCmd.MarkFlagRequired("query")

	historyCmd.AddCommand(historyShowCmd, historyClearCmd)
	historyCmd.PersistentFlags().String("table", chathistory.DefaultTableName, "message table")
}
