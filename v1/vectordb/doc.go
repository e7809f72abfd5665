// Package vectordb provides a database-agnostic abstraction for vector similarity search.
//
// # Overview
//
// This package defines the [Service] interface implemented by the CrateDB
// adapter (package cratedb) and by [Memory], an in-process backend, together with the
// metadata filter language shared by every backend.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│        vectorstore.Store / llmcache.SemanticCache           │
//	│        (uses vectordb.Service, no DB-specific imports)      │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	                           ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                      vectordb.Service                       │
//	│        (common interface + Filter AST + result types)       │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	                  ┌────────┴─────────┐
//	                  ▼                  ▼
//	        ┌──────────────────┐  ┌──────────────────┐
//	        │ cratedb.Adapter  │  │ vectordb.Memory  │
//	        │ (SQL compiler)   │  │ (Evaluate)       │
//	        └──────────────────┘  └──────────────────┘
//
// # Filters
//
// Filters are written in a mapping form and parsed once into an AST:
//
//	f, err := vectordb.ParseFilter(map[string]any{
//	    "source": "handbook.pdf",                  // implicit $eq
//	    "page":   map[string]any{"$between": []any{3, 9}},
//	})
//
// Multiple field keys are AND-ed. Logical operators are $and, $or and $not.
// Field operators:
//
//	| Operator  | Operand                     | SQL Equivalent                     |
//	|-----------|-----------------------------|------------------------------------|
//	| $eq       | scalar (null = IS NULL)     | WHERE field = value                |
//	| $ne       | scalar (null = IS NOT NULL) | WHERE field <> value               |
//	| $lt $lte  | scalar                      | WHERE field < value                |
//	| $gt $gte  | scalar                      | WHERE field > value                |
//	| $in       | list of strings or numbers  | WHERE field IN (...)               |
//	| $nin      | list of strings or numbers  | WHERE field NOT IN (...)           |
//	| $exists   | bool                        | WHERE field IS [NOT] NULL          |
//	| $between  | [low, high]                 | WHERE field BETWEEN low AND high   |
//	| $like     | pattern                     | WHERE field LIKE pattern           |
//	| $ilike    | pattern                     | WHERE field ILIKE pattern          |
//
// Operator names are case-insensitive and the "$" is optional, so "IN",
// "in" and "$in" are the same operator. Malformed expressions fail with
// [ErrInvalidFilter].
//
// Filters can also be built directly:
//
//	vectordb.NewAnd(
//	    vectordb.NewMatch("status", "published"),
//	    vectordb.NewMatchAny("lang", "de", "en"),
//	)
//
// [Evaluate] runs a filter against a metadata map with SQL three-valued
// logic, so in-memory results agree with the database.
//
// # Package Layout
//
//	vectordb/
//	├── interface.go      # Service interface
//	├── types.go          # SearchRequest, SearchResult, EmbeddingInput, Collection
//	├── filters.go        # Filter AST and constructors (New*)
//	├── parse.go          # ParseFilter, ParseFilterJSON, MarshalFilter, Validate
//	├── evaluate.go       # in-memory evaluation
//	├── errors.go         # sentinel errors
//	└── utils.go          # operand normalization
package vectordb
