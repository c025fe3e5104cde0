package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify(t *testing.T) {
	t.Parallel()

	var path, chat, text, mode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = r.ParseForm()
		chat = r.PostForm.Get("chat_id")
		text = r.PostForm.Get("text")
		mode = r.PostForm.Get("parse_mode")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier("tok", "42").WithAPIBase(srv.URL + "/")
	require.NoError(t, n.Notify(context.Background(), "Novo rascunho: <Economia & Mercado>"))
	assert.Equal(t, "/bottok/sendMessage", path)
	assert.Equal(t, "42", chat)
	assert.Equal(t, "HTML", mode)
	assert.Equal(t, "Novo rascunho: &lt;Economia &amp; Mercado&gt;", text)
}

func TestNotifyErrors(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, NewNotifier("", "").Notify(context.Background(), "x"), ErrMisconfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := NewNotifier("t", "c").WithAPIBase(srv.URL).Notify(context.Background(), "x")
	require.ErrorContains(t, err, "400")
	require.ErrorContains(t, err, "chat not found")
}

func TestFormatMessageTruncates(t *testing.T) {
	t.Parallel()

	short := FormatMessage("  olá  ")
	assert.Equal(t, "olá", short)

	long := FormatMessage(strings.Repeat("á", 5000))
	assert.Equal(t, maxMessageRunes, utf8.RuneCountInString(long))
	assert.True(t, strings.HasSuffix(long, "…"))

	amp := FormatMessage(strings.Repeat("a", maxMessageRunes-3) + "&&&")
	assert.LessOrEqual(t, utf8.RuneCountInString(amp), maxMessageRunes)
	assert.NotContains(t, strings.TrimSuffix(amp, "…"), "&am")
}
