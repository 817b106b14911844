package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "create-user", "seed"}, names)

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	migrate, err := serve.Flags().GetBool("migrate")
	require.NoError(t, err)
	assert.True(t, migrate)
}

func TestCreateUser_RequiresPassword(t *testing.T) {
	t.Setenv(passwordEnv, "")
	root := newRootCommand()
	root.SetArgs([]string{"create-user", "--username", "dr.who"})

	err := root.Execute()
	assert.ErrorContains(t, err, passwordEnv)
}
