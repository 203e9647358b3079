package shopify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	// uploadFileField is the multipart field carrying the binary; it must come last
	uploadFileField = "file"

	// externalVideoMarker appears in resource URLs of video staged uploads
	externalVideoMarker = "external_video_id"
)

// StagedResource classifies a staged upload
type StagedResource string

const (
	ResourceImage StagedResource = "IMAGE"
	ResourceVideo StagedResource = "VIDEO"
	ResourceFile  StagedResource = "FILE"
)

// ResourceForMIME derives the staged resource from a MIME type prefix
func ResourceForMIME(mimeType string) StagedResource {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return ResourceImage
	case strings.HasPrefix(mt, "video/"):
		return ResourceVideo
	default:
		return ResourceFile
	}
}

// StagedUploadParameter is one form parameter required by the upload target
type StagedUploadParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StagedUploadTarget is a single-use, pre-authorised upload destination
type StagedUploadTarget struct {
	URL         string                  `json:"url"`
	ResourceURL string                  `json:"resourceUrl"`
	Parameters  []StagedUploadParameter `json:"parameters"`
	Resource    StagedResource          `json:"-"`
}

// Param returns the value of the named parameter
func (t *StagedUploadTarget) Param(name string) (string, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// StageRequest describes the binary about to be uploaded
type StageRequest struct {
	Filename string
	MIMEType string
	Size     int64
}

// UploadedFile is a file registered with the store
type UploadedFile struct {
	ID         string `json:"id"`
	FileStatus string `json:"fileStatus"`
}

const stagedUploadsCreateMutation = `mutation StageUpload($input: [StagedUploadInput!]!) {
	stagedUploadsCreate(input: $input) {
		stagedTargets { url resourceUrl parameters { name value } }
		userErrors { field message }
	}
}`

// StageUpload requests an upload target for one binary
func (c *Client) StageUpload(ctx context.Context, req StageRequest) (*StagedUploadTarget, error) {
	resource := ResourceForMIME(req.MIMEType)

	input := map[string]any{
		"filename":   req.Filename,
		"mimeType":   req.MIMEType,
		"httpMethod": http.MethodPost,
		"resource":   resource,
	}
	// Video targets are sized up front; other resources must not send it
	if resource == ResourceVideo {
		input["fileSize"] = strconv.FormatInt(req.Size, 10)
	}

	var out struct {
		StagedUploadsCreate struct {
			StagedTargets []StagedUploadTarget `json:"stagedTargets"`
			UserErrors    []UserError          `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}

	const operation = "stagedUploadsCreate"
	vars := map[string]any{"input": []map[string]any{input}}
	if err := c.execute(ctx, operation, modeOnce, stagedUploadsCreateMutation, vars, &out); err != nil {
		return nil, &MediaUploadError{Phase: PhaseStage, Err: err}
	}
	if err := userErrorsToErr(operation, out.StagedUploadsCreate.UserErrors); err != nil {
		return nil, &MediaUploadError{Phase: PhaseStage, Err: err}
	}
	if len(out.StagedUploadsCreate.StagedTargets) == 0 {
		return nil, &MediaUploadError{Phase: PhaseStage, Err: fmt.Errorf("no staged target returned")}
	}

	target := out.StagedUploadsCreate.StagedTargets[0]
	target.Resource = resource
	return &target, nil
}

// UploadStaged posts the binary to the staged target. The target's parameters
// are sent verbatim and in order, with the file appended last.
func (c *Client) UploadStaged(ctx context.Context, target *StagedUploadTarget, filename, mimeType string, data []byte) error {
	start := time.Now()
	const operation = "stagedUpload"

	err := c.postMultipart(ctx, target, filename, mimeType, data)

	duration := metrics.MeasureDuration(start)
	status := metrics.Outcome(err)
	metrics.ShopifyRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.ShopifyRequestTotal.WithLabelValues(operation, status).Inc()

	if err != nil {
		logger.LogAPICall(ctx, "shopify", operation, status, duration, zap.Error(err))
		return &MediaUploadError{Phase: PhaseUpload, Err: err}
	}

	logger.LogAPICall(ctx, "shopify", operation, status, duration,
		zap.Int("size_bytes", len(data)),
		zap.String("resource", string(target.Resource)))
	return nil
}

func (c *Client) postMultipart(ctx context.Context, target *StagedUploadTarget, filename, mimeType string, data []byte) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for _, p := range target.Parameters {
		if err := w.WriteField(p.Name, p.Value); err != nil {
			return fmt.Errorf("failed to write parameter %s: %w", p.Name, err)
		}
	}

	part, err := w.CreatePart(fileHeader(filename, mimeType))
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalise multipart body: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("upload target returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return nil
}

func fileHeader(filename, mimeType string) textproto.MIMEHeader {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(filename)
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadFileField, escaped)},
		"Content-Type":        {mimeType},
	}
}

// ResolveOriginalSource computes the URL and filename handed to fileCreate.
// Video targets already carry an external video ID in the resource URL, which
// is used as is with no filename. Everything else is the target URL with the
// "key" parameter appended, named after the key's last path segment.
func ResolveOriginalSource(target *StagedUploadTarget) (source, filename string, err error) {
	if strings.Contains(target.ResourceURL, externalVideoMarker) {
		return target.ResourceURL, "", nil
	}

	key, ok := target.Param("key")
	if !ok || key == "" {
		return "", "", fmt.Errorf("staged target has no key parameter")
	}

	filename = key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		filename = key[i+1:]
	}

	return target.URL + key, filename, nil
}

const fileCreateMutation = `mutation RegisterFile($files: [FileCreateInput!]!) {
	fileCreate(files: $files) {
		files { id fileStatus }
		userErrors { field message code }
	}
}`

// RegisterFile exchanges a completed staged upload for a permanent file ID
func (c *Client) RegisterFile(ctx context.Context, target *StagedUploadTarget) (*UploadedFile, error) {
	source, filename, err := ResolveOriginalSource(target)
	if err != nil {
		return nil, &MediaUploadError{Phase: PhaseRegister, Err: err}
	}

	input := map[string]any{
		"originalSource": source,
		"contentType":    target.Resource,
	}
	if filename != "" {
		input["filename"] = filename
	}

	var out struct {
		FileCreate struct {
			Files      []UploadedFile `json:"files"`
			UserErrors []UserError    `json:"userErrors"`
		} `json:"fileCreate"`
	}

	const operation = "fileCreate"
	if err := c.execute(ctx, operation, modeOnce, fileCreateMutation, map[string]any{"files": []map[string]any{input}}, &out); err != nil {
		return nil, &MediaUploadError{Phase: PhaseRegister, Err: err}
	}
	if err := userErrorsToErr(operation, out.FileCreate.UserErrors); err != nil {
		return nil, &MediaUploadError{Phase: PhaseRegister, Err: err}
	}
	if len(out.FileCreate.Files) == 0 {
		return nil, &MediaUploadError{Phase: PhaseRegister, Err: fmt.Errorf("no file returned")}
	}

	return &out.FileCreate.Files[0], nil
}
