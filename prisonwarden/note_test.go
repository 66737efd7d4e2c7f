package prisonwarden

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteTextCodecRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "plain", text: "screenshot of the incident"},
		{name: "spaces", text: "a b  c   d"},
		{
			name: "url reserved characters",
			text: "50% done & counting? #1 = yes/no",
		},
		{name: "plus signs", text: "1+1=2"},
		{name: "unicode", text: "たこ焼き 🐙"},
		{name: "newlines", text: "line one\nline two"},
	}

	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				decoded, err := decodeNoteText(encodeNoteText(tc.text))
				require.NoError(t, err)
				assert.Equal(t, tc.text, decoded)
			},
		)
	}
}

func TestNoteDecodedTextBadColumn(t *testing.T) {
	// a bare '%' is not valid percent-encoding
	note := Note{Text: "100% broken"}
	text, err := note.DecodedText()
	require.Error(t, err)
	assert.Equal(t, "100% broken", text)
}

func TestCreateNoteDefaultText(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		note, err := CreateNote(
			ctx,
			db,
			"guild-1",
			"user-1",
			"mod-1",
			fmt.Sprintf("https://example.com/evidence/%d", i),
			"",
		)
		require.NoError(t, err)
		text, decodeErr := note.DecodedText()
		require.NoError(t, decodeErr)
		assert.Equal(t, fmt.Sprintf("Link %d", i), text)
	}

	// explicit text is kept as-is
	note, err := CreateNote(
		ctx,
		db,
		"guild-1",
		"user-1",
		"mod-1",
		"https://example.com/evidence/4",
		"ban evasion screenshot",
	)
	require.NoError(t, err)
	text, err := note.DecodedText()
	require.NoError(t, err)
	assert.Equal(t, "ban evasion screenshot", text)

	count, err := CountNotes(ctx, db, "guild-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestNotesForUserOrderingAndScope(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := CreateNote(
		ctx, db, "guild-1", "user-1", "mod-1",
		"https://example.com/1", "first",
	)
	require.NoError(t, err)
	_, err = CreateNote(
		ctx, db, "guild-1", "user-1", "mod-1",
		"https://example.com/2", "second",
	)
	require.NoError(t, err)

	// different user and different guild must not leak in
	_, err = CreateNote(
		ctx, db, "guild-1", "user-2", "mod-1",
		"https://example.com/3", "other user",
	)
	require.NoError(t, err)
	_, err = CreateNote(
		ctx, db, "guild-2", "user-1", "mod-1",
		"https://example.com/4", "other guild",
	)
	require.NoError(t, err)

	notes, err := NotesForUser(ctx, db, "guild-1", "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "https://example.com/1", notes[0].Link)
	assert.Equal(t, "https://example.com/2", notes[1].Link)
}

func TestRenameNote(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := CreateNote(
		ctx, db, "guild-1", "user-1", "mod-1",
		"https://example.com/1", "",
	)
	require.NoError(t, err)
	_, err = CreateNote(
		ctx, db, "guild-1", "user-1", "mod-1",
		"https://example.com/2", "",
	)
	require.NoError(t, err)

	renamed, err := RenameNote(
		ctx, db, "guild-1", "user-1", 2, "main account proof",
	)
	require.NoError(t, err)
	text, err := renamed.DecodedText()
	require.NoError(t, err)
	assert.Equal(t, "main account proof", text)

	notes, err := NotesForUser(ctx, db, "guild-1", "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)

	firstText, err := notes[0].DecodedText()
	require.NoError(t, err)
	assert.Equal(t, "Link 1", firstText)

	secondText, err := notes[1].DecodedText()
	require.NoError(t, err)
	assert.Equal(t, "main account proof", secondText)
}

func TestRenameNoteOutOfRange(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := CreateNote(
		ctx, db, "guild-1", "user-1", "mod-1",
		"https://example.com/1", "",
	)
	require.NoError(t, err)

	for _, position := range []int{0, -1, 2} {
		_, err = RenameNote(ctx, db, "guild-1", "user-1", position, "nope")
		assert.ErrorIs(t, err, ErrNoteOutOfRange)
	}
}
