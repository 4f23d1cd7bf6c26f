package cloudinary

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClient(baseURL string) *Client {
	c := New("demo", "key", "secret", "reports")
	c.BaseURL = baseURL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestSignKnownVector(t *testing.T) {
	c := fixedClient("")
	sig := c.sign(map[string]string{
		"timestamp":       "1700000000",
		"api_key":         "key",
		"use_filename":    "true",
		"unique_filename": "false",
		"folder":          "reports",
	})
	assert.Equal(t, "c9a73e15896e5ebaeb569c07c25e184e42821144", sig)
}

func TestUploadRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/raw/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "c9a73e15896e5ebaeb569c07c25e184e42821144", r.FormValue("signature"))
		assert.Equal(t, "reports", r.FormValue("folder"))

		file, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "CS101_att_9 am_5-3-2024.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.3", string(data))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"public_id":     "reports/CS101_att_9 am_5-3-2024.pdf",
			"secure_url":    "https://res.cloudinary.com/demo/raw/upload/reports/CS101.pdf",
			"resource_type": "raw",
			"bytes":         len(data),
		})
	}))
	defer srv.Close()

	res, err := fixedClient(srv.URL).UploadRaw(context.Background(), []byte("%PDF-1.3"), "CS101_att_9 am_5-3-2024.pdf")
	require.NoError(t, err)
	assert.Equal(t, "raw", res.ResourceType)
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/reports/CS101.pdf", res.SecureURL)
}

func TestUploadRawErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := fixedClient(srv.URL).UploadRaw(context.Background(), []byte("x"), "a.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestConfigured(t *testing.T) {
	assert.True(t, New("demo", "key", "secret", "").Configured())
	assert.False(t, New("demo", "", "secret", "").Configured())
	var nilClient *Client
	assert.False(t, nilClient.Configured())
}
