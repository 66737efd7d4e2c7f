package prisonwarden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"gorm.io/gorm"
)

// ErrNoteOutOfRange is returned when a 1-based note index falls outside
// the user's recorded notes.
var ErrNoteOutOfRange = errors.New("note index out of range")

// Note is a moderator note recorded against a user, usually linking to
// evidence relevant to their ban appeal. The text column holds the
// percent-encoded form of the note text.
//
//nolint:lll // struct tags can't be split
type Note struct {
	ModelUintID

	GuildID     string `json:"guild_id" gorm:"column:server_id;index:idx_notes_guild_user"`
	UserID      string `json:"user_id" gorm:"column:user_id;index:idx_notes_guild_user"`
	ModeratorID string `json:"moderator_id" gorm:"column:moderator_id"`
	Link        string `json:"link" gorm:"column:link"`
	Text        string `json:"text" gorm:"column:text"`

	ModelUnixTime
}

func (Note) TableName() string {
	return "notes"
}

// encodeNoteText percent-encodes arbitrary note text so it can be stored
// safely in a single text column (spaces become '+').
func encodeNoteText(text string) string {
	return url.QueryEscape(text)
}

// decodeNoteText reverses encodeNoteText. decodeNoteText(encodeNoteText(x))
// returns x for any x.
func decodeNoteText(stored string) (string, error) {
	return url.QueryUnescape(stored)
}

// DecodedText returns the note text as originally written. Rows written by
// this bot always decode cleanly; a decode error indicates the column was
// edited out-of-band, and the raw value is returned alongside the error.
func (n Note) DecodedText() (string, error) {
	text, err := decodeNoteText(n.Text)
	if err != nil {
		return n.Text, err
	}
	return text, nil
}

func (n Note) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(n.ID)),
		slog.String("server_id", n.GuildID),
		slog.String("user_id", n.UserID),
		slog.String("moderator_id", n.ModeratorID),
		slog.String("link", n.Link),
	)
}

// NotesForUser returns all notes recorded against the given user in the
// given guild, oldest first.
func NotesForUser(
	ctx context.Context,
	db *gorm.DB,
	guildID string,
	userID string,
) ([]Note, error) {
	var notes []Note
	err := db.WithContext(ctx).Where(
		"server_id = ? AND user_id = ?",
		guildID,
		userID,
	).Order("created_at asc").Find(&notes).Error
	return notes, err
}

// CountNotes returns the number of notes recorded against the given user.
func CountNotes(
	ctx context.Context,
	db *gorm.DB,
	guildID string,
	userID string,
) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&Note{}).Where(
		"server_id = ? AND user_id = ?",
		guildID,
		userID,
	).Count(&count).Error
	return count, err
}

// CreateNote records a new note. The text is stored percent-encoded; when
// text is empty it defaults to "Link n", where n is the new note's position
// in the user's note list.
func CreateNote(
	ctx context.Context,
	db *gorm.DB,
	guildID string,
	userID string,
	moderatorID string,
	link string,
	text string,
) (Note, error) {
	if text == "" {
		count, err := CountNotes(ctx, db, guildID, userID)
		if err != nil {
			return Note{}, err
		}
		text = fmt.Sprintf("Link %d", count+1)
	}
	note := Note{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Link:        link,
		Text:        encodeNoteText(text),
	}
	err := db.WithContext(ctx).Create(&note).Error
	return note, err
}

// RenameNote replaces the text of the user's position-th note (1-based,
// oldest first). Returns ErrNoteOutOfRange when position falls outside
// [1, len(notes)].
func RenameNote(
	ctx context.Context,
	db *gorm.DB,
	guildID string,
	userID string,
	position int,
	text string,
) (Note, error) {
	notes, err := NotesForUser(ctx, db, guildID, userID)
	if err != nil {
		return Note{}, err
	}
	if position < 1 || position > len(notes) {
		return Note{}, fmt.Errorf(
			"%w: have %d notes",
			ErrNoteOutOfRange,
			len(notes),
		)
	}
	note := notes[position-1]
	note.Text = encodeNoteText(text)
	err = db.WithContext(ctx).Model(&Note{}).Where(
		"id = ?",
		note.ID,
	).Update("text", note.Text).Error
	return note, err
}
