package chathistory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/cratedb-llm/v1/chathistory"
	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb/cratedbtest"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
)

func TestChatHistoryIntegration(t *testing.T) {
	container := cratedbtest.Run(t)
	ctx := context.Background()
	client := container.NewClient(t, "history_it")

	store, err := chathistory.NewStore(ctx, client, chathistory.WithTableName("test_table"))
	require.NoError(t, err)
	history1 := store.Session("123")
	history2 := store.Session("456")

	t.Run("AddMessages", func(t *testing.T) {
		require.NoError(t, history1.AddUserMessage(ctx, "Hello!"))
		require.NoError(t, history1.AddAIMessage(ctx, "Hi there!"))

		msgs, err := history1.Messages(ctx)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, schema.NewHumanMessage("Hello!"), msgs[0])
		assert.Equal(t, schema.NewAIMessage("Hi there!"), msgs[1])
	})

	t.Run("MultipleSessions", func(t *testing.T) {
		require.NoError(t, history1.AddUserMessage(ctx, "Whats cracking?"))
		require.NoError(t, history2.AddUserMessage(ctx, "Hellox"))

		msgs1, err := history1.Messages(ctx)
		require.NoError(t, err)
		msgs2, err := history2.Messages(ctx)
		require.NoError(t, err)

		assert.Len(t, msgs1, 3)
		assert.Equal(t, "Whats cracking?", msgs1[2].Content)
		require.Len(t, msgs2, 1)
		assert.Equal(t, "Hellox", msgs2[0].Content)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, history1.Clear(ctx))
		msgs, err := history1.Messages(ctx)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		msgs, err = history2.Messages(ctx)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
	})

	t.Run("BatchesKeepOrder", func(t *testing.T) {
		store, err := chathistory.NewStore(ctx, client, chathistory.WithTableName("chat_history"))
		require.NoError(t, err)
		h := store.Session("00000000-0000-0000-0000-00000000007b")

		msgs, err := h.Messages(ctx)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		batch := []schema.Message{
			schema.NewSystemMessage("Meow"),
			schema.NewAIMessage("woof"),
			{Role: schema.RoleHuman, Content: "bark", AdditionalKwargs: map[string]any{"name": "dog"}},
		}
		require.NoError(t, h.AddMessages(ctx, batch...))
		require.NoError(t, h.AddMessages(ctx, batch...))

		msgs, err = h.Messages(ctx)
		require.NoError(t, err)
		assert.Equal(t, append(append([]schema.Message{}, batch...), batch...), msgs)

		require.NoError(t, h.Clear(ctx))
		msgs, err = h.Messages(ctx)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("DuplicatePosition", func(t *testing.T) {
		require.NoError(t, client.DB().WithContext(ctx).
			Exec("INSERT INTO test_table (session_id, position, role, content) VALUES (?, ?, ?, ?)", "789", 0, "human", "a").Error)
		require.NoError(t, cratedb.Refresh(client.DB().WithContext(ctx), "test_table"))

		err := client.DB().WithContext(ctx).
			Exec("INSERT INTO test_table (session_id, position, role, content) VALUES (?, ?, ?, ?)", "789", 0, "human", "b").Error
		require.Error(t, err)
		assert.True(t, errors.Is(cratedb.TranslateError(err), cratedb.ErrDuplicateKey))
	})
}
