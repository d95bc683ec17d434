package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/authz"
	"parley/internal/models"
	"parley/internal/repositories"
	"parley/internal/utils"
)

type fixture struct {
	users    *repositories.MemoryUserRepository
	chats    *repositories.MemoryChatRepository
	messages *repositories.MemoryMessageRepository
	chatSvc  ChatService
	msgSvc   MessageService
}

func newFixture(t *testing.T, policy authz.GroupPolicy) *fixture {
	t.Helper()
	users := repositories.NewMemoryUserRepository(
		&models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "secret"},
		&models.User{ID: "u2", Name: "Bob", Email: "bob@example.com", PasswordHash: "secret"},
		&models.User{ID: "u3", Name: "Cid", Email: "cid@example.com"},
		&models.User{ID: "u4", Name: "Dee", Email: "dee@example.com"},
	)
	chats := repositories.NewMemoryChatRepository()
	messages := repositories.NewMemoryMessageRepository()
	expander := repositories.NewExpander(users, chats, messages)
	chatSvc := NewChatService(chats, expander, policy)
	return &fixture{
		users:    users,
		chats:    chats,
		messages: messages,
		chatSvc:  chatSvc,
		msgSvc:   NewMessageService(messages, chats, chatSvc, expander),
	}
}

func TestGetOrCreateDirectChat_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	first, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "sender", first.ChatName)
	assert.False(t, first.IsGroupChat)
	require.Len(t, first.Users, 2)
	assert.Equal(t, "Ada", first.Users[0].Name)
	assert.Empty(t, first.Users[0].PasswordHash)

	second, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateDirectChat_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	const callers = 16
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "u1", "u2"
			if i%2 == 1 {
				a, b = b, a
			}
			chat, err := f.chatSvc.GetOrCreateDirectChat(ctx, a, b)
			if assert.NoError(t, err) {
				ids[i] = chat.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	chats, err := f.chats.FindByMember(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestGetOrCreateDirectChat_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	_, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u1", "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.chatSvc.GetOrCreateDirectChat(ctx, "u1", "u1")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateGroupChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	chat, err := f.chatSvc.CreateGroupChat(ctx, "u1", "team", []string{"u2", "u3", "u2", "u1", ""})
	require.NoError(t, err)
	assert.True(t, chat.IsGroupChat)
	assert.Equal(t, "team", chat.ChatName)
	assert.Equal(t, []string{"u2", "u3", "u1"}, chat.UserIDs)
	require.NotNil(t, chat.GroupAdmin)
	assert.Equal(t, "u1", chat.GroupAdmin.ID)

	_, err = f.chatSvc.CreateGroupChat(ctx, "u1", "pair", []string{"u2"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.chatSvc.CreateGroupChat(ctx, "u1", "self", []string{"u2", "u1"})
	assert.ErrorIs(t, err, ErrInvalidArgument, "the requester does not count toward the minimum")

	_, err = f.chatSvc.CreateGroupChat(ctx, "u1", " ", []string{"u2", "u3"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMembershipMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	group, err := f.chatSvc.CreateGroupChat(ctx, "u1", "team", []string{"u2", "u3"})
	require.NoError(t, err)

	added, err := f.chatSvc.AddParticipant(ctx, "u1", group.ID, "u4")
	require.NoError(t, err)
	assert.True(t, added.HasMember("u4"))

	again, err := f.chatSvc.AddParticipant(ctx, "u1", group.ID, "u4")
	require.NoError(t, err)
	assert.Len(t, again.UserIDs, 4)

	removed, err := f.chatSvc.RemoveParticipant(ctx, "u1", group.ID, "u4")
	require.NoError(t, err)
	assert.Equal(t, group.UserIDs, removed.UserIDs)

	renamed, err := f.chatSvc.RenameGroup(ctx, "u2", group.ID, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", renamed.ChatName)

	_, err = f.chatSvc.RenameGroup(ctx, "u1", "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.chatSvc.AddParticipant(ctx, "u1", "missing", "u4")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.chatSvc.RemoveParticipant(ctx, "u1", group.ID, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGroupPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{AdminOnly: true, GroupOnly: true})

	group, err := f.chatSvc.CreateGroupChat(ctx, "u1", "team", []string{"u2", "u3"})
	require.NoError(t, err)
	direct, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = f.chatSvc.RenameGroup(ctx, "u2", group.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.chatSvc.AddParticipant(ctx, "u1", direct.ID, "u3")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.chatSvc.RenameGroup(ctx, "u1", group.ID, "ok")
	assert.NoError(t, err)
}

func TestPostMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	chat, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u1", "u2")
	require.NoError(t, err)

	msg, err := f.msgSvc.PostMessage(ctx, "u1", chat.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Content)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "Ada", msg.Sender.Name)
	assert.Nil(t, msg.Sender.CreatedAt)
	require.NotNil(t, msg.Chat)
	assert.Len(t, msg.Chat.Users, 2)
	assert.Empty(t, msg.Chat.Users[1].PasswordHash)

	chats, err := f.chatSvc.ListChatsForUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.NotNil(t, chats[0].LatestMessage)
	assert.Equal(t, msg.ID, chats[0].LatestMessage.ID)
	require.NotNil(t, chats[0].LatestMessage.Sender)
	assert.Equal(t, "ada@example.com", chats[0].LatestMessage.Sender.Email)
}

func TestPostMessage_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	_, err := f.msgSvc.PostMessage(ctx, "u1", "missing", "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	chat, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = f.msgSvc.PostMessage(ctx, "u1", chat.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	msgs, err := f.messages.FindByChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestListMessagesAndTranscript(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	chat, err := f.chatSvc.CreateGroupChat(ctx, "u1", "team", []string{"u2", "u3"})
	require.NoError(t, err)
	for _, c := range []string{"one", "two", "three"} {
		_, err := f.msgSvc.PostMessage(ctx, "u2", chat.ID, c)
		require.NoError(t, err)
	}

	msgs, err := f.msgSvc.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
	require.NotNil(t, msgs[0].Chat)
	assert.Equal(t, chat.ID, msgs[0].Chat.ID)

	empty, err := f.msgSvc.ListMessages(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	got, history, err := f.msgSvc.Transcript(ctx, "u1", chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "team", got.ChatName)
	require.Len(t, history, 3)
	assert.Equal(t, "Bob", history[1].Sender.Name)

	_, _, err = f.msgSvc.Transcript(ctx, "u1", "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrCreateDirectChat_KeyOutlivesMembershipChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	chat, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = f.chatSvc.RemoveParticipant(ctx, "u1", chat.ID, "u2")
	require.NoError(t, err)

	again, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)
}

// racingChats hides the first lookup so Create hits the unique key, the way
// a concurrent writer would.
type racingChats struct {
	*repositories.MemoryChatRepository
	hidden bool
}

func (r *racingChats) FindDirect(ctx context.Context, a, b string) (*models.Chat, error) {
	if !r.hidden {
		r.hidden = true
		return nil, nil
	}
	return r.MemoryChatRepository.FindDirect(ctx, a, b)
}

func TestGetOrCreateDirectChat_LostRaceReturnsWinner(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewMemoryUserRepository()
	mem := repositories.NewMemoryChatRepository()
	winner := &models.Chat{ChatName: "sender", UserIDs: []string{"u2", "u1"}, DirectKey: utils.DirectKey("u1", "u2")}
	require.NoError(t, mem.Create(ctx, winner))

	chats := &racingChats{MemoryChatRepository: mem}
	expander := repositories.NewExpander(users, chats, repositories.NewMemoryMessageRepository())
	svc := NewChatService(chats, expander, authz.GroupPolicy{})

	got, err := svc.GetOrCreateDirectChat(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
}

func TestGetOrCreateDirectChat_ColonIDsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	first, err := f.chatSvc.GetOrCreateDirectChat(ctx, "a:b", "c")
	require.NoError(t, err)
	second, err := f.chatSvc.GetOrCreateDirectChat(ctx, "a", "b:c")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.HasMember("a"))
	assert.True(t, second.HasMember("b:c"))
	assert.False(t, second.HasMember("a:b"))
}

// foreignKeyChats answers every direct lookup with a chat stored under
// another pair's key.
type foreignKeyChats struct {
	*repositories.MemoryChatRepository
	stray *models.Chat
}

func (r *foreignKeyChats) FindDirect(context.Context, string, string) (*models.Chat, error) {
	return r.stray, nil
}

func TestGetOrCreateDirectChat_RejectsChatOfAnotherPair(t *testing.T) {
	ctx := context.Background()
	mem := repositories.NewMemoryChatRepository()
	stray := &models.Chat{ChatName: "sender", UserIDs: []string{"u3", "u4"}, DirectKey: utils.DirectKey("u3", "u4")}
	require.NoError(t, mem.Create(ctx, stray))

	chats := &foreignKeyChats{MemoryChatRepository: mem, stray: stray}
	expander := repositories.NewExpander(repositories.NewMemoryUserRepository(), chats, repositories.NewMemoryMessageRepository())
	svc := NewChatService(chats, expander, authz.GroupPolicy{})

	_, err := svc.GetOrCreateDirectChat(ctx, "u1", "u2")
	assert.ErrorIs(t, err, ErrStoreFailure)
}

func TestJSONShape_KeepsUnexpandedReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, authz.GroupPolicy{})

	chat, err := f.chatSvc.GetOrCreateDirectChat(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = f.msgSvc.PostMessage(ctx, "u1", chat.ID, "hi")
	require.NoError(t, err)

	msgs, err := f.msgSvc.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	raw, err := json.Marshal(msgs[0])
	require.NoError(t, err)
	var listed map[string]any
	require.NoError(t, json.Unmarshal(raw, &listed))
	assert.ElementsMatch(t, []any{"u1", "u2"}, listed["chat"].(map[string]any)["users"])

	chats, err := f.chatSvc.ListChatsForUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	raw, err = json.Marshal(chats[0])
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal(raw, &summary))
	latest := summary["latestMessage"].(map[string]any)
	assert.Equal(t, chat.ID, latest["chat"])
	assert.Equal(t, "Ada", latest["sender"].(map[string]any)["name"])
}

// countingMessages records history loads.
type countingMessages struct {
	*repositories.MemoryMessageRepository
	loads int
}

func (r *countingMessages) FindByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	r.loads++
	return r.MemoryMessageRepository.FindByChat(ctx, chatID)
}

func TestTranscript_NonMemberSkipsHistory(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewMemoryUserRepository(&models.User{ID: "u1", Name: "Ada"}, &models.User{ID: "u2", Name: "Bob"})
	chats := repositories.NewMemoryChatRepository()
	messages := &countingMessages{MemoryMessageRepository: repositories.NewMemoryMessageRepository()}
	expander := repositories.NewExpander(users, chats, messages)
	chatSvc := NewChatService(chats, expander, authz.GroupPolicy{})
	msgSvc := NewMessageService(messages, chats, chatSvc, expander)

	chat, err := chatSvc.GetOrCreateDirectChat(ctx, "u1", "u2")
	require.NoError(t, err)

	_, _, err = msgSvc.Transcript(ctx, "u3", chat.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, messages.loads)

	_, _, err = msgSvc.Transcript(ctx, "u2", chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, messages.loads)
}
