package drive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client talks to the cloud file store that keeps material images and
// payment receipts. Uploads return a direct-link URL persisted on the
// owning record; deletes are keyed by the file id.
type Client struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		FileID    string `json:"file_id"`
		DirectURL string `json:"direct_url"`
	} `json:"data"`
}

// UploadResult is the stored reference for an uploaded file.
type UploadResult struct {
	FileID    string
	DirectURL string
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		BaseURL:     baseURL,
		AccessToken: accessToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Upload pushes file content to the store under the given folder and
// name, returning the file id and a direct-link URL.
func (c *Client) Upload(folder, filename string, content io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("folder", folder); err != nil {
		return nil, fmt.Errorf("failed to write folder field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to buffer file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/files/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("upload rejected: %s", parsed.Message)
	}

	return &UploadResult{
		FileID:    parsed.Data.FileID,
		DirectURL: parsed.Data.DirectURL,
	}, nil
}

// Delete removes a previously uploaded file.
func (c *Client) Delete(fileID string) error {
	req, err := http.NewRequest("DELETE", c.BaseURL+"/files/"+fileID, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete failed with status %d", resp.StatusCode)
	}
	return nil
}
