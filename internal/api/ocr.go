package api

import (
	"context"
	"net/http"

	"github.com/and161185/jobassist/internal/model"
)

// RunOCR extracts text from an uploaded file. docType defaults to "resume".
func (c *Client) RunOCR(ctx context.Context, fileID, docType string) (model.Document, error) {
	if docType == "" {
		docType = DefaultDocType
	}
	var out struct {
		Document model.Document `json:"document"`
		Text     string         `json:"text"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/ocr/run", true,
		map[string]string{"file_id": fileID, "doc_type": docType}, &out)
	if err != nil {
		return model.Document{}, err
	}
	d := out.Document
	d.FileID = fileID
	d.RawText = out.Text
	return d, nil
}

// GetDocument returns a document with both its raw and edited text.
func (c *Client) GetDocument(ctx context.Context, id string) (model.Document, error) {
	var out struct {
		Document   model.Document `json:"document"`
		RawText    string         `json:"raw_text"`
		EditedText *string        `json:"edited_text"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/ocr/"+seg(id), true, nil, &out); err != nil {
		return model.Document{}, err
	}
	d := out.Document
	d.RawText = out.RawText
	d.EditedText = out.EditedText
	return d, nil
}

// EditDocument stores the user's corrected text.
func (c *Client) EditDocument(ctx context.Context, id, editedText string) (model.Document, error) {
	var out struct {
		Document model.Document `json:"document"`
	}
	err := c.doJSON(ctx, http.MethodPut, "/ocr/"+seg(id)+"/edit", true,
		map[string]string{"edited_text": editedText}, &out)
	if err != nil {
		return model.Document{}, err
	}
	d := out.Document
	text := editedText
	d.EditedText = &text
	return d, nil
}
