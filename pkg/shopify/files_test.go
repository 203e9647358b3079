package shopify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceForMIME(t *testing.T) {
	assert.Equal(t, ResourceImage, ResourceForMIME("image/png"))
	assert.Equal(t, ResourceVideo, ResourceForMIME("VIDEO/mp4"))
	assert.Equal(t, ResourceFile, ResourceForMIME("application/pdf"))
}

func TestResolveOriginalSource(t *testing.T) {
	tests := []struct {
		name         string
		target       StagedUploadTarget
		wantSource   string
		wantFilename string
		wantErr      bool
	}{
		{
			name: "video uses resource url verbatim",
			target: StagedUploadTarget{
				URL:         "https://upload.example/",
				ResourceURL: "https://upload.example/?external_video_id=123",
				Parameters:  []StagedUploadParameter{{Name: "key", Value: "ignored/clip.mp4"}},
			},
			wantSource: "https://upload.example/?external_video_id=123",
		},
		{
			name: "image joins url and key",
			target: StagedUploadTarget{
				URL:         "https://bucket.example/",
				ResourceURL: "https://bucket.example/tmp/abc/photo.png",
				Parameters: []StagedUploadParameter{
					{Name: "Content-Type", Value: "image/png"},
					{Name: "key", Value: "tmp/abc/photo.png"},
				},
			},
			wantSource:   "https://bucket.example/tmp/abc/photo.png",
			wantFilename: "photo.png",
		},
		{
			name: "key without slashes",
			target: StagedUploadTarget{
				URL:        "https://bucket.example/",
				Parameters: []StagedUploadParameter{{Name: "key", Value: "photo.png"}},
			},
			wantSource:   "https://bucket.example/photo.png",
			wantFilename: "photo.png",
		},
		{
			name:    "missing key",
			target:  StagedUploadTarget{URL: "https://bucket.example/"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, filename, err := ResolveOriginalSource(&tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, source)
			assert.Equal(t, tt.wantFilename, filename)
		})
	}
}

func TestStageUpload_FileSizeOnlyForVideo(t *testing.T) {
	fa, client := newFakeAdmin(t)
	fa.on("stagedUploadsCreate", func(map[string]any) (int, string) {
		return http.StatusOK, `{"data":{"stagedUploadsCreate":{"stagedTargets":[
			{"url":"https://bucket.example/","resourceUrl":"https://bucket.example/k","parameters":[{"name":"key","value":"k"}]}],
			"userErrors":[]}}}`
	})

	target, err := client.StageUpload(context.Background(), StageRequest{Filename: "a.png", MIMEType: "image/png", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, ResourceImage, target.Resource)
	input := fa.vars("stagedUploadsCreate")["input"].([]any)[0].(map[string]any)
	assert.NotContains(t, input, "fileSize")
	assert.Equal(t, "POST", input["httpMethod"])

	_, err = client.StageUpload(context.Background(), StageRequest{Filename: "a.mp4", MIMEType: "video/mp4", Size: 2048})
	require.NoError(t, err)
	input = fa.vars("stagedUploadsCreate")["input"].([]any)[0].(map[string]any)
	assert.Equal(t, "2048", input["fileSize"])
	assert.Equal(t, "VIDEO", input["resource"])
}

func TestStageUpload_UserErrorsAreStagePhase(t *testing.T) {
	fa, client := newFakeAdmin(t)
	fa.on("stagedUploadsCreate", func(map[string]any) (int, string) {
		return http.StatusOK, `{"data":{"stagedUploadsCreate":{"stagedTargets":[],"userErrors":[{"field":["input"],"message":"bad mime"}]}}}`
	})

	_, err := client.StageUpload(context.Background(), StageRequest{Filename: "a.png", MIMEType: "image/png"})

	var mu *MediaUploadError
	require.ErrorAs(t, err, &mu)
	assert.Equal(t, PhaseStage, mu.Phase)
	assert.True(t, IsRemoteValidation(err))
}

func TestUploadStaged_ParametersThenFile(t *testing.T) {
	var fieldOrder []string
	var fileBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reader, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			fieldOrder = append(fieldOrder, part.FormName())
			if part.FormName() == "file" {
				b, _ := io.ReadAll(part)
				fileBody = string(b)
				assert.Equal(t, "photo.png", part.FileName())
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, client := newFakeAdmin(t)
	target := &StagedUploadTarget{
		URL: srv.URL,
		Parameters: []StagedUploadParameter{
			{Name: "policy", Value: "p"},
			{Name: "key", Value: "tmp/photo.png"},
			{Name: "signature", Value: "s"},
		},
		Resource: ResourceImage,
	}

	err := client.UploadStaged(context.Background(), target, "photo.png", "image/png", []byte("binary"))

	require.NoError(t, err)
	assert.Equal(t, []string{"policy", "key", "signature", "file"}, fieldOrder)
	assert.Equal(t, "binary", fileBody)
}

func TestUploadStaged_Non2xxIsUploadPhase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "<Error>AccessDenied</Error>")
	}))
	defer srv.Close()

	_, client := newFakeAdmin(t)
	err := client.UploadStaged(context.Background(), &StagedUploadTarget{URL: srv.URL}, "a.png", "image/png", []byte("x"))

	var mu *MediaUploadError
	require.ErrorAs(t, err, &mu)
	assert.Equal(t, PhaseUpload, mu.Phase)
	assert.Contains(t, err.Error(), "403")
}

func TestUploadStaged_SlowTargetTimesOut(t *testing.T) {
	srv, hits, _ := stallingServer(t)
	_, client := newFakeAdminWith(t, Config{RequestTimeout: 100 * time.Millisecond})

	start := time.Now()
	err := client.UploadStaged(context.Background(), &StagedUploadTarget{URL: srv.URL}, "a.png", "image/png", []byte("x"))

	var mu *MediaUploadError
	require.ErrorAs(t, err, &mu)
	assert.Equal(t, PhaseUpload, mu.Phase)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), hits.Load())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestUploadStaged_CancelledCallerStopsUpload(t *testing.T) {
	srv, hits, arrived := stallingServer(t)
	_, client := newFakeAdmin(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-arrived
		cancel()
	}()

	start := time.Now()
	err := client.UploadStaged(ctx, &StagedUploadTarget{URL: srv.URL}, "a.png", "image/png", []byte("x"))

	var mu *MediaUploadError
	require.ErrorAs(t, err, &mu)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), hits.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestRegisterFile(t *testing.T) {
	fa, client := newFakeAdmin(t)
	fa.on("fileCreate", func(map[string]any) (int, string) {
		return http.StatusOK, `{"data":{"fileCreate":{"files":[{"id":"gid://shopify/MediaImage/5","fileStatus":"UPLOADED"}],"userErrors":[]}}}`
	})

	file, err := client.RegisterFile(context.Background(), &StagedUploadTarget{
		URL:        "https://bucket.example/",
		Parameters: []StagedUploadParameter{{Name: "key", Value: "tmp/x/photo.png"}},
		Resource:   ResourceImage,
	})

	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/MediaImage/5", file.ID)
	input := fa.vars("fileCreate")["files"].([]any)[0].(map[string]any)
	assert.Equal(t, "https://bucket.example/tmp/x/photo.png", input["originalSource"])
	assert.Equal(t, "photo.png", input["filename"])
	assert.Equal(t, "IMAGE", input["contentType"])
}

func TestRegisterFile_VideoOmitsFilename(t *testing.T) {
	fa, client := newFakeAdmin(t)
	fa.on("fileCreate", func(map[string]any) (int, string) {
		return http.StatusOK, `{"data":{"fileCreate":{"files":[{"id":"gid://shopify/Video/9","fileStatus":"UPLOADED"}],"userErrors":[]}}}`
	})

	_, err := client.RegisterFile(context.Background(), &StagedUploadTarget{
		URL:         "https://videos.example/",
		ResourceURL: "https://videos.example/?external_video_id=9",
		Resource:    ResourceVideo,
	})

	require.NoError(t, err)
	input := fa.vars("fileCreate")["files"].([]any)[0].(map[string]any)
	assert.NotContains(t, input, "filename")
	assert.Equal(t, "https://videos.example/?external_video_id=9", input["originalSource"])
}
