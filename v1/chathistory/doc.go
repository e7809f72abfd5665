// Package chathistory stores chat conversations in CrateDB.
//
// Every session is an append-only list of messages kept in one table
// (message_store by default), ordered by a per-session position. A session is
// deleted as a whole; single messages are never updated or removed.
//
//	store, err := chathistory.NewStore(ctx, client)
//	history := store.Session("user-42")
//	_ = history.AddUserMessage(ctx, "Hello!")
//	_ = history.AddAIMessage(ctx, "Hi there!")
//	msgs, err := history.Messages(ctx)
package chathistory
