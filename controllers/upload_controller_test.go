package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagelib/models"
)

func TestEcho(t *testing.T) {
	_, _, r := newTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/s2/?txt=hello", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"hello"}`, w.Body.String())
}

func TestUploadRoundTrip(t *testing.T) {
	db, _, r := newTestEnv(t)
	content := []byte("\x89PNG fake image bytes")

	body, contentType := multipartBody(t, "cat", "photo.png", content)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/s2/", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ID       uint   `json:"id"`
		Result   string `json:"result"`
		Filename string `json:"filename"`
		Path     string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "cat", resp.Result)
	assert.True(t, strings.HasSuffix(resp.Filename, ".png"))

	// The file exists at the returned path with byte-identical content.
	got, err := os.ReadFile(resp.Path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// The row is visible to a subsequent query.
	var row models.Upload
	require.NoError(t, db.First(&row, resp.ID).Error)
	assert.Equal(t, "cat", row.Caption)
	assert.Equal(t, resp.Filename, row.Filename)

	// And the gallery page renders it.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gallery/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resp.Filename)
	assert.Contains(t, w.Body.String(), "cat")
}

func TestUploadIdenticalOriginalNames(t *testing.T) {
	_, _, r := newTestEnv(t)

	var filenames []string
	for _, content := range []string{"first", "second"} {
		body, contentType := multipartBody(t, "dup", "photo.png", []byte(content))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/s2/", body)
		req.Header.Set("Content-Type", contentType)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Filename string `json:"filename"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		filenames = append(filenames, resp.Filename)
	}

	require.Len(t, filenames, 2)
	assert.NotEqual(t, filenames[0], filenames[1])

	// Both retrievable independently with their own bytes.
	for i, want := range []string{"first", "second"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/s2/read?fileName="+url.QueryEscape(filenames[i]), nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Body.String())
	}
}

func TestUploadMissingCaption(t *testing.T) {
	db, _, r := newTestEnv(t)

	// A form carrying only the file, no txt field at all.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/s2/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 0, rowCount(t, db))
}

func TestUploadEmptyCaptionAllowed(t *testing.T) {
	_, _, r := newTestEnv(t)

	body, contentType := multipartBody(t, "", "photo.png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/s2/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Result string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "", resp.Result)
}

func TestUploadMissingFile(t *testing.T) {
	db, _, r := newTestEnv(t)

	form := url.Values{"txt": {"cat"}}
	req := httptest.NewRequest(http.MethodPost, "/s2/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 0, rowCount(t, db))
}

func TestStoredFilename(t *testing.T) {
	name := storedFilename("photo.png")
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.Len(t, name, 32+len(".png"))

	// No extension: the token keeps its trailing separator.
	name = storedFilename("photo")
	assert.True(t, strings.HasSuffix(name, "."))
	assert.Len(t, name, 33)

	// Only the last dot counts.
	name = storedFilename("archive.tar.gz")
	assert.True(t, strings.HasSuffix(name, ".gz"))
	assert.False(t, strings.Contains(name, "tar"))

	assert.NotEqual(t, storedFilename("a.png"), storedFilename("a.png"))
}

func TestReadInfersContentType(t *testing.T) {
	_, dir, r := newTestEnv(t)
	content := []byte("png bytes")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pic.png"), content, 0o644))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/s2/read?fileName=pic.png", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "image/png")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, content, w.Body.Bytes())
}

func TestReadNotFound(t *testing.T) {
	_, _, r := newTestEnv(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/s2/read?fileName=absent.png", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadMissingParam(t *testing.T) {
	_, _, r := newTestEnv(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/s2/read", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadClampsTraversal(t *testing.T) {
	_, dir, r := newTestEnv(t)
	// A file one level above the upload directory must be unreachable.
	outside := filepath.Join(filepath.Dir(dir), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/s2/read?fileName="+url.QueryEscape("../secret.txt"), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
