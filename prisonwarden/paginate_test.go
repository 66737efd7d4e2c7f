package prisonwarden

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginatorPages(t *testing.T) {
	pg := &Paginator{
		Lines:    []string{"alpha", "bravo", "charlie", "delta", "echo"},
		PageSize: 2,
	}
	pages := pg.pages()
	require.Len(t, pages, 3)
	assert.Equal(t, "alpha\nbravo", pages[0])
	assert.Equal(t, "charlie\ndelta", pages[1])
	assert.Equal(t, "echo", pages[2])
}

func TestPaginatorPagesNumbered(t *testing.T) {
	pg := &Paginator{
		Lines:    []string{"alpha", "bravo", "charlie"},
		PageSize: 2,
		Numbered: true,
	}
	pages := pg.pages()
	require.Len(t, pages, 2)
	assert.Equal(t, "1) alpha\n2) bravo", pages[0])
	assert.Equal(t, "3) charlie", pages[1])
}

func TestPaginatorEmbedFooter(t *testing.T) {
	pg := &Paginator{
		Title:    "Pending Appeals",
		Lines:    []string{"a", "b", "c"},
		PageSize: 2,
		ItemName: "members",
		Color:    DefaultEmbedColor,
	}
	pages := pg.pages()
	require.Len(t, pages, 2)

	embed := pg.embedForPage(pages, 1)
	assert.Equal(t, "Pending Appeals", embed.Title)
	assert.Equal(t, DefaultEmbedColor, embed.Color)
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "Page 2/2 (3 members)", embed.Footer.Text)
}

func TestPaginatorSendSinglePage(t *testing.T) {
	session := newMockSession(t)
	pg := &Paginator{
		Session:   session,
		ChannelID: "channel-1",
		Title:     "Active Invites",
		Lines:     []string{"only line"},
		PageSize:  10,
	}

	require.NoError(t, pg.Send(context.Background()))
	require.Len(t, session.sentMessages, 1)
	// single page embeds don't register reaction handlers
	assert.Empty(t, session.handlers)
}

func TestPaginatorSendEmpty(t *testing.T) {
	session := newMockSession(t)
	pg := &Paginator{Session: session, ChannelID: "channel-1"}
	require.NoError(t, pg.Send(context.Background()))
	assert.Empty(t, session.sentMessages)
}

func TestPaginatorSendMultiPageRegistersHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := newMockSession(t)
	lines := make([]string, 25)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	pg := &Paginator{
		Session:     session,
		ChannelID:   "channel-1",
		RequesterID: "invoker-1",
		Lines:       lines,
		PageSize:    10,
		Timeout:     50 * time.Millisecond,
	}

	require.NoError(t, pg.Send(ctx))
	require.Len(t, session.sentMessages, 1)
	assert.Len(t, session.handlers, 1)
}
