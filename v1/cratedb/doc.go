// Package cratedb connects to CrateDB over the PostgreSQL wire protocol and
// implements vectordb.Service on top of it.
//
// # Connection
//
// The client wraps a gorm handle opened through pgx. Every new connection
// runs
//
//	SET SESSION error_on_unknown_object_key = false
//
// so filters on metadata keys that no row has written yet evaluate to NULL
// instead of failing. With Config.RefreshAfterDML (on in DefaultConfig) a gorm
// plugin issues REFRESH TABLE after writes, making them visible to the next query.
//
//	client, err := cratedb.NewClient(cratedb.NewConfig(), log)
//	if err != nil {
//	    return err
//	}
//	defer client.GracefulShutdown()
//
// # Tables
//
//	langchain_collection (uuid TEXT, name TEXT PRIMARY KEY, cmetadata OBJECT(DYNAMIC))
//	langchain_embedding  (id TEXT PRIMARY KEY, collection_id TEXT,
//	                      embedding FLOAT_VECTOR(n), document TEXT, cmetadata OBJECT(DYNAMIC))
//
// Adapter.Migrate creates both. The width n is fixed when the embedding table
// is created and checked on every later Migrate.
//
// # Search
//
// Similarity search is exact: VECTOR_SIMILARITY(embedding, ?) is computed for
// every row that passes the metadata filter, so filters never shrink an
// approximate candidate set. VECTOR_SIMILARITY returns 1/(1+d) for the squared
// euclidean distance d; results carry both values.
//
// # Filters
//
// CompileFilter turns a vectordb.Filter into a gorm clause.Expression:
//
//	{"page": {"$in": ["0", "2"]}, "lang": "en"}
//	→ ("cmetadata"['lang'] = $1 AND "cmetadata"['page'] IN ($2,$3))
//
// # Errors
//
// Operations wrap driver errors with context. TranslateError maps them to
// ErrRecordNotFound, ErrDuplicateKey, ErrRelationUnknown, ErrColumnUnknown
// and ErrInvalidData; GetErrorCategory and IsRetryable classify them.
package cratedb
