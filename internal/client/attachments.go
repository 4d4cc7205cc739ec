package client

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
	"strconv"
	"strings"

	"taskflow/internal/models"
)

func attachmentsPath(taskID int64) string { return taskPath(taskID) + "/attachments" }

func attachmentPath(taskID, attachmentID int64) string {
	return attachmentsPath(taskID) + "/" + strconv.FormatInt(attachmentID, 10)
}

// UploadAttachment sends one file as the multipart field "file".
func (c *Client) UploadAttachment(ctx context.Context, taskID int64, filename string, r io.Reader) (*models.Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(filename))))
	ct := mime.TypeByExtension(filepath.Ext(filename))
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("upload %s: read: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	var a models.Attachment
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        attachmentsPath(taskID),
		body:        &buf,
		contentType: mw.FormDataContentType(),
		auth:        true,
	}, &a)
	if err != nil {
		return nil, err
	}
	a.TaskID = taskID
	return &a, nil
}

func (c *Client) DeleteAttachment(ctx context.Context, taskID, attachmentID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: attachmentPath(taskID, attachmentID), auth: true}, nil)
}

func (c *Client) ListAttachments(ctx context.Context, taskID int64) ([]models.Attachment, error) {
	var list []models.Attachment
	if err := c.do(ctx, request{method: http.MethodGet, path: attachmentsPath(taskID), auth: true}, &list); err != nil {
		return nil, err
	}
	for i := range list {
		list[i].TaskID = taskID
	}
	if list == nil {
		list = []models.Attachment{}
	}
	return list, nil
}

// AttachmentDownload resolves where an attachment can be fetched from. The
// server answers either with a JSON body or with a redirect; redirects are
// not followed and their Location is returned instead.
func (c *Client) AttachmentDownload(ctx context.Context, taskID, attachmentID int64) (*models.AttachmentDownload, error) {
	resp, err := c.send(ctx, request{
		method:     http.MethodGet,
		path:       attachmentPath(taskID, attachmentID) + "/download",
		auth:       true,
		noRedirect: true,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc, err := resp.Location()
		if err != nil {
			return nil, fmt.Errorf("download attachment %d: %w", attachmentID, err)
		}
		return &models.AttachmentDownload{URL: loc.String()}, nil
	}

	var d models.AttachmentDownload
	if err := decodeJSON(resp.Body, &d); err != nil {
		return nil, fmt.Errorf("download attachment %d: %w", attachmentID, err)
	}
	return &d, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
