package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in   string
		want Locale
	}{
		{in: "", want: Japanese},
		{in: "ja", want: Japanese},
		{in: "ja-JP", want: Japanese},
		{in: "en", want: English},
		{in: "en-GB", want: English},
		{in: "fr", want: Japanese},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocale(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want.AllDayTitle, got.AllDayTitle)
		})
	}
}

func TestParseLocaleInvalid(t *testing.T) {
	_, err := ParseLocale("not a tag!")
	assert.Error(t, err)
}

func TestLocaleHeader(t *testing.T) {
	assert.Equal(t, "今日 2024/06/10 (月)の予定", Japanese.header(now))
	assert.Equal(t, "Schedule for 2024/06/10 (Mon)", English.header(now))
}
