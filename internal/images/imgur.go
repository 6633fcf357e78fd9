package images

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

var ErrUploadFailed = errors.New("image upload failed")

// UploadError reports which file failed and which URLs were already
// uploaded, so a caller can retry the save without re-uploading them.
type UploadError struct {
	Filename string
	Uploaded []string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed after %d successful uploads: %v", e.Filename, len(e.Uploaded), e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// File is one image to upload.
type File struct {
	Name   string
	Reader io.Reader
}

// Client talks to an Imgur-style image host: single-file multipart upload
// with a client-credential Authorization header, returning a public URL.
type Client struct {
	ClientID   string
	Endpoint   string
	HTTPClient *http.Client
}

func NewClient(clientID string) *Client {
	return &Client{
		ClientID: clientID,
		Endpoint: "https://api.imgur.com/3/image",
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		Link  string `json:"link"`
		Error string `json:"error"`
	} `json:"data"`
}

// Upload sends one file and returns its public URL.
func (c *Client) Upload(ctx context.Context, file File) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", file.Name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return "", fmt.Errorf("failed to read image %q: %w", file.Name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Client-ID "+c.ClientID)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image host unreachable: %w", err)
	}
	defer resp.Body.Close()

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("unreadable image host response: %w", err)
	}
	if !parsed.Success || parsed.Data.Link == "" {
		if parsed.Data.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrUploadFailed, parsed.Data.Error)
		}
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}
	return parsed.Data.Link, nil
}

// UploadAll uploads files sequentially. On failure it returns the URLs
// uploaded so far together with an *UploadError naming the failed file;
// the caller aborts the save but keeps the successful URLs for retry.
func (c *Client) UploadAll(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := c.Upload(ctx, f)
		if err != nil {
			return urls, &UploadError{Filename: f.Name, Uploaded: urls, Err: err}
		}
		urls = append(urls, url)
	}
	return urls, nil
}
