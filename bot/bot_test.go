package bot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"goatedbot/analytics"
	"goatedbot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingCommandLog struct {
	mu      sync.Mutex
	entries []*models.CommandLogEntry
}

func (c *capturingCommandLog) Log(_ context.Context, entry *models.CommandLogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func memberInteraction(userID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Member: &discordgo.Member{User: &discordgo.User{ID: userID}},
		},
	}
}

func TestRecordCommandOutcome(t *testing.T) {
	repo := &capturingCommandLog{}
	b := &Bot{recorder: analytics.NewRecorder(repo, 8)}

	b.recordCommandOutcome(memberInteraction("42"), "wager", nil)
	b.recordCommandOutcome(memberInteraction("42"), "register", errors.New("username already linked"))
	b.recorder.Close()

	require.Len(t, repo.entries, 2)

	assert.Equal(t, int64(42), repo.entries[0].PlatformUserID)
	assert.Equal(t, "wager", repo.entries[0].Command)
	assert.True(t, repo.entries[0].Success)
	assert.Nil(t, repo.entries[0].ErrorMessage)

	assert.Equal(t, "register", repo.entries[1].Command)
	assert.False(t, repo.entries[1].Success)
	require.NotNil(t, repo.entries[1].ErrorMessage)
	assert.Equal(t, "username already linked", *repo.entries[1].ErrorMessage)
}

func TestRecordCommandOutcome_WithoutRecorder(t *testing.T) {
	b := &Bot{}
	b.recordCommandOutcome(memberInteraction("42"), "wager", nil)
}

func TestInteractionUserID(t *testing.T) {
	t.Run("guild member", func(t *testing.T) {
		id, err := interactionUserID(memberInteraction("12345"))
		require.NoError(t, err)
		assert.Equal(t, int64(12345), id)
	})

	t.Run("direct message", func(t *testing.T) {
		i := &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "67890"}},
		}
		id, err := interactionUserID(i)
		require.NoError(t, err)
		assert.Equal(t, int64(67890), id)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := interactionUserID(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}})
		assert.Error(t, err)
	})
}
