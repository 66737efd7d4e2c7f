package prisonwarden

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	paginatorEmojiPrev = "◀️" // ◀️
	paginatorEmojiNext = "▶️" // ▶️
)

// Paginator renders a list of lines as a sequence of navigable embed
// pages. Navigation uses reactions: the requesting user flips pages with
// ◀️/▶️ until the timeout elapses, after which the reactions are cleared
// and the embed stays on its last page.
type Paginator struct {
	Session   DiscordSessionHandler
	ChannelID string

	// RequesterID restricts page flipping to one user. Empty allows anyone.
	RequesterID string

	Title  string
	Color  int
	Author *discordgo.MessageEmbedAuthor

	// Lines is the full list of items to render, one line each.
	Lines []string

	// Numbered prefixes each line with its 1-based position ("1) ...").
	Numbered bool

	// ItemName names the items in the page footer ("members", "notes").
	ItemName string

	PageSize int
	Timeout  time.Duration
	Logger   *slog.Logger
}

func (pg *Paginator) logger() *slog.Logger {
	if pg.Logger != nil {
		return pg.Logger
	}
	return slog.Default()
}

func (pg *Paginator) itemName() string {
	if pg.ItemName != "" {
		return pg.ItemName
	}
	return "items"
}

func (pg *Paginator) pageSize() int {
	if pg.PageSize > 0 {
		return pg.PageSize
	}
	return DefaultPaginationPageSize
}

// pages splits the configured lines into rendered page bodies.
func (pg *Paginator) pages() []string {
	lines := pg.Lines
	if pg.Numbered {
		lines = make([]string, len(pg.Lines))
		for i, line := range pg.Lines {
			lines[i] = fmt.Sprintf("%d) %s", i+1, line)
		}
	}
	chunks := chunkItems(pg.pageSize(), lines...)
	bodies := make([]string, len(chunks))
	for i, chunk := range chunks {
		bodies[i] = truncate(
			strings.Join(chunk, "\n"),
			discordMaxMessageLength,
		)
	}
	return bodies
}

func (pg *Paginator) embedForPage(pages []string, index int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       pg.Title,
		Description: pages[index],
		Color:       pg.Color,
		Author:      pg.Author,
		Footer: embedFooter(
			fmt.Sprintf(
				"Page %d/%d (%d %s)",
				index+1,
				len(pages),
				len(pg.Lines),
				pg.itemName(),
			),
			"",
		),
	}
}

// Send posts the first page, and when more than one page exists, starts a
// background reaction loop to navigate until the timeout elapses.
func (pg *Paginator) Send(ctx context.Context) error {
	pages := pg.pages()
	if len(pages) == 0 {
		return nil
	}

	msg, err := pg.Session.ChannelMessageSendEmbed(
		pg.ChannelID,
		pg.embedForPage(pages, 0),
	)
	if err != nil {
		return fmt.Errorf("error sending paginated embed: %w", err)
	}
	if len(pages) == 1 {
		return nil
	}

	for _, emoji := range []string{paginatorEmojiPrev, paginatorEmojiNext} {
		if e := pg.Session.MessageReactionAdd(
			pg.ChannelID,
			msg.ID,
			emoji,
		); e != nil {
			pg.logger().Warn("unable to add paginator reaction", tint.Err(e))
		}
	}

	flips := make(chan string, 4)
	removeHandler := pg.Session.AddHandler(
		func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
			if r.MessageID != msg.ID {
				return
			}
			if pg.RequesterID != "" && r.UserID != pg.RequesterID {
				return
			}
			switch r.Emoji.Name {
			case paginatorEmojiPrev, paginatorEmojiNext:
				select {
				case flips <- r.Emoji.Name:
				default:
				}
			}
		},
	)

	go pg.watchReactions(ctx, pages, msg.ID, flips, removeHandler)
	return nil
}

func (pg *Paginator) watchReactions(
	ctx context.Context,
	pages []string,
	messageID string,
	flips <-chan string,
	removeHandler func(),
) {
	defer func() {
		removeHandler()
		if err := pg.Session.MessageReactionsRemoveAll(
			pg.ChannelID,
			messageID,
		); err != nil {
			pg.logger().Debug(
				"unable to clear paginator reactions",
				tint.Err(err),
			)
		}
	}()

	timeout := pg.Timeout
	if timeout <= 0 {
		timeout = DefaultPaginationTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	index := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case emoji := <-flips:
			next := index
			switch emoji {
			case paginatorEmojiPrev:
				next--
			case paginatorEmojiNext:
				next++
			}
			if next < 0 || next >= len(pages) || next == index {
				continue
			}
			index = next
			if _, err := pg.Session.ChannelMessageEditEmbed(
				pg.ChannelID,
				messageID,
				pg.embedForPage(pages, index),
			); err != nil {
				pg.logger().Warn("unable to edit paginator page", tint.Err(err))
				return
			}
		}
	}
}
