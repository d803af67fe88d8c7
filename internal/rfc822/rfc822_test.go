package rfc822

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	raw := "Message-ID: <abc@x>\r\n" +
		"newsgroups: comp.lang, misc.test\r\n" +
		"Subject: first\r\n" +
		"Subject: second\r\n" +
		"\r\n" +
		"Body: not a header\r\n"

	h, err := ParseHeaders(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "<abc@x>", h.Get("message-id"))
	assert.Equal(t, "<abc@x>", h.Get("Message-ID"))
	assert.Equal(t, "comp.lang, misc.test", h.Get("Newsgroups"))
	assert.Equal(t, "first", h.Get("Subject"), "first occurrence wins")
	assert.False(t, h.Has("Body"))
}

func TestParseHeaders_Folded(t *testing.T) {
	raw := "Subject: Hi\r\n there\r\nFrom: a@b\r\n\r\n"

	h, err := ParseHeaders(strings.NewReader(raw))
	require.NoError(t, err)

	subject := h.Get("Subject")
	assert.NotContains(t, subject, "\n")
	assert.Contains(t, subject, "Hi")
	assert.Contains(t, subject, "there")
	assert.Equal(t, "a@b", h.Get("From"))
}

func TestParseHeaders_NoBlankLine(t *testing.T) {
	h, err := ParseHeaders(strings.NewReader("Message-ID: <a@b>\nNewsgroups: x\n"))
	require.NoError(t, err)
	assert.Equal(t, "<a@b>", h.Get("Message-ID"))
	assert.Equal(t, "x", h.Get("Newsgroups"))
}

func TestParseHeaders_Malformed(t *testing.T) {
	_, err := ParseHeaders(strings.NewReader("this is not a header\n\nbody\n"))
	assert.Error(t, err)
}

func TestHeaderClone(t *testing.T) {
	h := Header{}
	h.Set("lines", "3")
	c := h.Clone()
	c.Set("Lines", "4")

	assert.Equal(t, "3", h.Get("Lines"))
	assert.Equal(t, "4", c.Get("LINES"))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2003, time.March, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"rfc5322", "Sat, 01 Mar 2003 12:30:00 +0000"},
		{"rfc5322 no weekday", "1 Mar 2003 12:30:00 GMT"},
		{"iso8601 fallback", "2003-03-01T12:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("")
	assert.ErrorIs(t, err, ErrEmptyDate)

	_, err = ParseDate("not a date at all")
	assert.Error(t, err)
}
