package infra

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/uploadkit/upload-gateway/config"
)

// RelayClient forwards staged files to an external processing service for
// routes that do not land directly in object storage.
type RelayClient struct {
	RelayServiceURL string `json:"relay_service_url"`
	PrivateKey      string `json:"private_key,omitempty"`
}

// InitRelayClient returns nil when no relay service is configured; relay
// routes are then rejected at initialize time.
func InitRelayClient(cfg *config.EnvConfig) *RelayClient {
	if cfg.ExternalService.RelayServiceURL == "" {
		return nil
	}
	return &RelayClient{
		RelayServiceURL: cfg.ExternalService.RelayServiceURL,
		PrivateKey:      cfg.PrivateKey,
	}
}

// RelayResponse represents the response from the relay service
type RelayResponse struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Status      int    `json:"status"`
	Message     string `json:"message"`
}

// UploadStream forwards fileData to the relay service as multipart form data.
// The body is streamed through an io.Pipe so large files are never buffered.
func (p *RelayClient) UploadStream(fileData io.Reader, filename, contentType, routeID, key string) (*RelayResponse, error) {
	url := fmt.Sprintf("%s/api/v1/relay/file", p.RelayServiceURL)

	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	errChan := make(chan error, 1)

	go func() {
		defer pw.Close()
		defer w.Close()

		if err := w.WriteField("route_id", routeID); err != nil {
			errChan <- fmt.Errorf("failed to write route_id field: %w", err)
			return
		}

		if err := w.WriteField("key", key); err != nil {
			errChan <- fmt.Errorf("failed to write key field: %w", err)
			return
		}

		h := make(map[string][]string)
		h["Content-Disposition"] = []string{
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename),
		}
		h["Content-Type"] = []string{contentType}

		fw, err := w.CreatePart(h)
		if err != nil {
			errChan <- fmt.Errorf("failed to create form file: %w", err)
			return
		}

		if _, err := io.Copy(fw, fileData); err != nil {
			errChan <- fmt.Errorf("failed to stream file data: %w", err)
			return
		}

		errChan <- nil
	}()

	req, err := http.NewRequest(http.MethodPost, url, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Private-Key", p.PrivateKey)

	client := &http.Client{}
	resp, err := client.Do(req)

	writeErr := <-errChan
	if writeErr != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, writeErr
	}

	if err != nil {
		return nil, fmt.Errorf("failed to relay file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("relay service returned %d: %s", resp.StatusCode, raw)
	}

	var response RelayResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}
