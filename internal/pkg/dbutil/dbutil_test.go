package dbutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizeSwapsLimitArgs(t *testing.T) {
	query, args := Finalize("SELECT id FROM chats WHERE user_id=? ORDER BY mtime DESC LIMIT ?,?", []interface{}{"u1", 20, 10})
	require.Equal(t, "SELECT id FROM chats WHERE user_id=$1 ORDER BY mtime DESC LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"u1", 10, 20}, args)
}

func TestFinalizeWithoutLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM users WHERE email=?", []interface{}{"a@b.c"})
	require.Equal(t, "SELECT id FROM users WHERE email=$1", query)
	require.Equal(t, []interface{}{"a@b.c"}, args)
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `50\% off\_now`, EscapeLike("50% off_now"))
}
