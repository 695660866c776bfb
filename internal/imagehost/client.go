// Package imagehost uploads product images to an external host that answers
// with the public URL of the stored file.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

var ErrNotConfigured = errors.New("image upload is not configured")

type Client struct {
	uploadURL string
	preset    string
	client    *http.Client
}

func NewClient(uploadURL, preset string, client *http.Client) *Client {
	return &Client{
		uploadURL: uploadURL,
		preset:    preset,
		client:    client,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Upload posts one file as multipart "file" (plus "upload_preset" when set)
// and returns the URL the host reports.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	if c.uploadURL == "" {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if c.preset != "" {
		if err := form.WriteField("upload_preset", c.preset); err != nil {
			return "", err
		}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("image host returned status %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode image host response: %w", err)
	}

	switch {
	case out.SecureURL != "":
		return out.SecureURL, nil
	case out.URL != "":
		return out.URL, nil
	default:
		return "", errors.New("image host response has no url")
	}
}
