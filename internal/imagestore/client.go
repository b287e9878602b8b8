package imagestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/madadental/clinic-api/config"
)

// Client talks to a Cloudinary-style image host over HTTP. Uploads are
// relayed through a local temp file so the request body can be streamed from
// disk instead of held twice in memory.
type Client struct {
	cfg        config.ImageHostConfig
	httpClient *http.Client
}

func NewClient(cfg config.ImageHostConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s", uuid.New(), filepath.Base(filename)))
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to buffer image: %w", err)
	}
	defer os.Remove(tempPath)

	file, err := os.Open(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to reopen buffered image: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		defer pw.Close()
		part, err := writer.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		_ = writer.WriteField("api_key", c.cfg.APIKey)
		_ = writer.WriteField("folder", c.cfg.Folder)
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, pr)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.SecureURL == "" {
		return "", fmt.Errorf("image host rejected upload (status %d): %s", resp.StatusCode, result.Error.Message)
	}
	return result.SecureURL, nil
}

func (c *Client) Delete(ctx context.Context, hostedURL string) error {
	publicID := c.publicID(hostedURL)

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("api_key", c.cfg.APIKey)
	form.Set("api_secret", c.cfg.APISecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.DeleteURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("image delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image host rejected delete (status %d)", resp.StatusCode)
	}
	return nil
}

// publicID derives the host-side asset id from a hosted URL: the folder plus
// the last path segment without its extension.
func (c *Client) publicID(hostedURL string) string {
	base := path.Base(hostedURL)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if c.cfg.Folder == "" {
		return base
	}
	return c.cfg.Folder + "/" + base
}
