package worker

import (
	"strings"
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fetchedMessage mirrors how the IMAP client delivers a BODY[] literal: the
// Body map is keyed by a pointer the client allocated, never one the caller
// holds.
func fetchedMessage(t *testing.T, raw string) *imap.Message {
	t.Helper()
	key, err := imap.ParseBodySectionName(imap.FetchItem("BODY[]"))
	require.NoError(t, err)
	return &imap.Message{
		Body: map[*imap.BodySectionName]imap.Literal{
			key: strings.NewReader(raw),
		},
	}
}

func TestExtractTextBodyPlainMessage(t *testing.T) {
	raw := "From: sam@acme.test\r\n" +
		"To: hello@leadflow.test\r\n" +
		"Subject: Re: quick intro\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Sounds good, let's talk Tuesday."

	body, err := extractTextBody(fetchedMessage(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "Sounds good, let's talk Tuesday.", body)
}

func TestExtractTextBodyPrefersPlainOverHTML(t *testing.T) {
	raw := "From: sam@acme.test\r\n" +
		"To: hello@leadflow.test\r\n" +
		"Subject: Re: quick intro\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>Works for me</p>\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Works for me\r\n" +
		"--b1--\r\n"

	body, err := extractTextBody(fetchedMessage(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "Works for me", body)
}

func TestExtractTextBodyMissingSection(t *testing.T) {
	msg := &imap.Message{Body: map[*imap.BodySectionName]imap.Literal{}}
	_, err := extractTextBody(msg)
	assert.Error(t, err)

	body, err := extractTextBody(&imap.Message{})
	require.NoError(t, err)
	assert.Empty(t, body)
}
