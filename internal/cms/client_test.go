package cms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDecodesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/content/quiz-style", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stages": [{"id": "s1", "type": "intro", "components": []}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	content, err := c.Fetch(context.Background(), "quiz-style")
	require.NoError(t, err)
	require.Len(t, content.Stages, 1)
	assert.Equal(t, "s1", content.Stages[0].ID)
	assert.Nil(t, content.Theme)
}

func TestFetchNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), "quiz-style")
	assert.Error(t, err)
}

func TestFetchEmptyContentIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stages": []}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), "quiz-style")
	assert.Error(t, err)
}

func TestFetchUnreachableIsError(t *testing.T) {
	c := New("http://127.0.0.1:1")
	_, err := c.Fetch(context.Background(), "quiz-style")
	assert.Error(t, err)
}

func TestConfigured(t *testing.T) {
	assert.False(t, New("").Configured())
	assert.True(t, New("http://cms.local").Configured())
	var nilClient *Client
	assert.False(t, nilClient.Configured())
}
