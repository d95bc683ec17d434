package repositories

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/models"
	"parley/internal/utils"
)

// openTestDB needs a disposable database; set PARLEY_TEST_DATABASE_URL to run.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PARLEY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PARLEY_TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, EnsureSchema(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE messages, chats, users`)
	require.NoError(t, err)
	return db
}

func TestPostgres_DirectChatLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	chats := NewChatRepository(db)

	direct := &models.Chat{ChatName: "sender", UserIDs: []string{"a", "b"}, DirectKey: utils.DirectKey("a", "b")}
	require.NoError(t, chats.Create(ctx, direct))

	dup := &models.Chat{ChatName: "sender", UserIDs: []string{"b", "a"}, DirectKey: utils.DirectKey("a", "b")}
	assert.ErrorIs(t, chats.Create(ctx, dup), ErrDuplicateKey)

	found, err := chats.FindDirect(ctx, "b", "a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, direct.ID, found.ID)

	missing, err := chats.FindDirect(ctx, "a", "c")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgres_MembershipAndMessages(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	chats := NewChatRepository(db)
	messages := NewMessageRepository(db)

	group := &models.Chat{ChatName: "g", IsGroupChat: true, UserIDs: []string{"a", "b", "c"}, GroupAdminID: "a"}
	require.NoError(t, chats.Create(ctx, group))

	pushed, err := chats.PushUser(ctx, group.ID, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, pushed.UserIDs)

	pulled, err := chats.PullUser(ctx, group.ID, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, pulled.UserIDs)

	_, err = chats.UpdateName(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, content := range []string{"one", "two"} {
		require.NoError(t, messages.Create(ctx, &models.Message{SenderID: "a", ChatID: group.ID, Content: content}))
	}
	err = messages.Create(ctx, &models.Message{SenderID: "a", ChatID: "missing", Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := messages.FindByChat(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Content)

	updated, err := chats.SetLatestMessage(ctx, group.ID, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, list[1].ID, updated.LatestMessageID)

	mine, err := chats.FindByMember(ctx, "b")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a", mine[0].GroupAdminID)
}

func TestPostgres_FindByMemberUsesMembersIndex(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, `SET enable_seqscan = off`)
	require.NoError(t, err)

	rows, err := conn.QueryContext(ctx, `EXPLAIN `+findByMemberQuery, "a")
	require.NoError(t, err)
	defer rows.Close()
	var plan strings.Builder
	for rows.Next() {
		var line string
		require.NoError(t, rows.Scan(&line))
		plan.WriteString(line + "\n")
	}
	require.NoError(t, rows.Err())
	assert.Contains(t, plan.String(), "chats_users_gin")
}

func TestPostgres_DirectKeysWithColons(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	chats := NewChatRepository(db)

	first := &models.Chat{ChatName: "sender", UserIDs: []string{"a:b", "c"}, DirectKey: utils.DirectKey("a:b", "c")}
	require.NoError(t, chats.Create(ctx, first))
	second := &models.Chat{ChatName: "sender", UserIDs: []string{"a", "b:c"}, DirectKey: utils.DirectKey("a", "b:c")}
	require.NoError(t, chats.Create(ctx, second))

	found, err := chats.FindDirect(ctx, "b:c", "a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, second.ID, found.ID)

	users, err := NewUserRepository(db).FindByIDs(ctx, []string{"nobody"})
	require.NoError(t, err)
	assert.Empty(t, users)
}
