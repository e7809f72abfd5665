package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"migrate"}, "migrate"},
		{[]string{"collections", "list"}, "list"},
		{[]string{"collections", "delete", "docs"}, "delete"},
		{[]string{"search", "foo"}, "search"},
		{[]string{"load"}, "load"},
		{[]string{"history", "show", "123"}, "show"},
		{[]string{"history", "clear", "123"}, "clear"},
	}
	for _, tt := range tests {
		cmd, _, err := rootCmd.Find(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, cmd.Name())
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := [][]string{
		{"collections", "delete"},
		{"history", "show"},
		{"history", "clear", "a", "b"},
		{"search"},
		{"load"},
	}
	for _, args := range tests {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(args)
		assert.Error(t, rootCmd.Execute(), args)
	}
}

func TestConnectionFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	for _, name := range []string{"host", "port", "user", "password", "schema", "sslmode", "dsn"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
	assert.Equal(t, "0", migrateCmd.Flags().Lookup("dimensions").DefValue)
	assert.Equal(t, "message_store", historyCmd.PersistentFlags().Lookup("table").DefValue)
}
