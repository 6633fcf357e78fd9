package images

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(endpoint string) *Client {
	c := NewClient("test-client-id")
	c.Endpoint = endpoint
	return c
}

func TestUploadSendsMultipartWithClientID(t *testing.T) {
	var gotAuth, gotField string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		gotField = header.Filename
		fmt.Fprintf(w, `{"success":true,"status":200,"data":{"link":"https://i.example.com/abc.png"}}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	url, err := client.Upload(context.Background(), File{Name: "photo.png", Reader: strings.NewReader("fakepng")})
	require.NoError(t, err)

	assert.Equal(t, "https://i.example.com/abc.png", url)
	assert.Equal(t, "Client-ID test-client-id", gotAuth)
	assert.Equal(t, "photo.png", gotField)
}

func TestUploadReportsHostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprintf(w, `{"success":false,"status":403,"data":{"error":"invalid client id"}}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Upload(context.Background(), File{Name: "photo.png", Reader: strings.NewReader("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "invalid client id")
}

func TestUploadAllStopsAtFirstFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 2 {
			fmt.Fprintf(w, `{"success":false,"status":500,"data":{"error":"over capacity"}}`)
			return
		}
		fmt.Fprintf(w, `{"success":true,"status":200,"data":{"link":"https://i.example.com/%d.png"}}`, n)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	files := []File{
		{Name: "one.png", Reader: strings.NewReader("1")},
		{Name: "two.png", Reader: strings.NewReader("2")},
		{Name: "three.png", Reader: strings.NewReader("3")},
	}

	urls, err := client.UploadAll(context.Background(), files)
	require.Error(t, err)

	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr))
	assert.Equal(t, "two.png", uploadErr.Filename)
	assert.Equal(t, []string{"https://i.example.com/1.png"}, uploadErr.Uploaded)
	assert.Equal(t, []string{"https://i.example.com/1.png"}, urls)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUploadAllSucceedsInOrder(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		fmt.Fprintf(w, `{"success":true,"status":200,"data":{"link":"https://i.example.com/%d.png"}}`, n)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	urls, err := client.UploadAll(context.Background(), []File{
		{Name: "one.png", Reader: strings.NewReader("1")},
		{Name: "two.png", Reader: strings.NewReader("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.example.com/1.png", "https://i.example.com/2.png"}, urls)
}

func TestUploadAllEmpty(t *testing.T) {
	client := newTestClient("http://unused.invalid")
	urls, err := client.UploadAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
