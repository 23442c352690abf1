package mapstyle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Choice
	}{
		{"street", Street},
		{"mono", Mono},
		{"night", Night},
		{" Night ", Night},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("satellite")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestCatalog_TotalOverChoices(t *testing.T) {
	cat, err := NewCatalog("mapbox://styles/me/faded", "mapbox://styles/me/mono")
	require.NoError(t, err)

	for _, c := range Choices() {
		url, err := cat.URL(c)
		require.NoError(t, err, c)
		assert.NotEmpty(t, url, c)
	}

	night, _ := cat.URL(Night)
	assert.Equal(t, NightURL, night)
}

func TestCatalog_RejectsMissingURL(t *testing.T) {
	_, err := NewCatalog("", "mapbox://styles/me/mono")
	assert.Error(t, err)

	_, err = NewCatalog("mapbox://styles/me/faded", "")
	assert.Error(t, err)
}

func TestCatalog_UnknownChoice(t *testing.T) {
	cat, err := NewCatalog("a", "b")
	require.NoError(t, err)

	_, err = cat.URL(Choice("satellite"))
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestCatalog_Entries(t *testing.T) {
	cat, err := NewCatalog("a", "b")
	require.NoError(t, err)

	entries := cat.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Key: Street, Label: "Street", URL: "a"}, entries[0])
	assert.Equal(t, Entry{Key: Mono, Label: "Mono", URL: "b"}, entries[1])
	assert.Equal(t, Entry{Key: Night, Label: "Night", URL: NightURL}, entries[2])
}
