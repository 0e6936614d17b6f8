package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
)

type fileEnvelope struct {
	File model.UploadedFile `json:"file"`
}

// Upload sends one file as multipart field "file".
func (c *Client) Upload(ctx context.Context, name, contentType string, r io.Reader) (model.UploadedFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return model.UploadedFile{}, fmt.Errorf("multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return model.UploadedFile{}, fmt.Errorf("read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return model.UploadedFile{}, fmt.Errorf("multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/files/upload"), &buf)
	if err != nil {
		return model.UploadedFile{}, errs.Transport(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out fileEnvelope
	if err := c.send(req, true, &out); err != nil {
		return model.UploadedFile{}, err
	}
	return out.File, nil
}

// GetFile returns upload metadata.
func (c *Client) GetFile(ctx context.Context, id string) (model.UploadedFile, error) {
	var out fileEnvelope
	err := c.doJSON(ctx, http.MethodGet, "/files/"+seg(id), true, nil, &out)
	return out.File, err
}

// Download is the raw content of an uploaded file.
type Download struct {
	ContentType string
	FileName    string
	Data        []byte
}

// DownloadFile fetches the stored bytes.
func (c *Client) DownloadFile(ctx context.Context, id string) (Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/files/"+seg(id)+"/download"), nil)
	if err != nil {
		return Download{}, errs.Transport(err)
	}
	resp, err := c.httpFor(true).Do(req)
	if err != nil {
		return Download{}, errs.Transport(unwrapURLError(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Download{}, Normalize(resp.StatusCode, resp.Body)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Download{}, errs.Transport(err)
	}
	return Download{
		ContentType: resp.Header.Get("Content-Type"),
		FileName:    dispositionName(resp.Header.Get("Content-Disposition")),
		Data:        data,
	}, nil
}

func dispositionName(v string) string {
	if v == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}

// ImportFile asks the backend to import a file from an external source.
func (c *Client) ImportFile(ctx context.Context, source string) (model.UploadedFile, error) {
	var out fileEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/files/import", true, map[string]string{"source": source}, &out)
	return out.File, err
}
