package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
)

// maxJSONBody caps JSON replies. Live frames are the largest JSON bodies
// the backend sends.
const maxJSONBody = 32 * 1024 * 1024

// maxErrorText is the longest plain-text error body shown verbatim.
const maxErrorText = 200

// Part is one file of a multipart upload.
type Part interface {
	// Name is the file name sent to the server.
	Name() string
	// Open returns the file content.
	Open() (io.ReadCloser, error)
}

// typedPart is implemented by parts that know their MIME type.
type typedPart interface {
	MIME() string
}

// Blob is a downloaded file.
type Blob struct {
	Data        []byte
	ContentType string
	// Filename comes from Content-Disposition and may be empty.
	Filename string
}

// failer is implemented by every payload that embeds model.Envelope.
type failer interface {
	Failed() bool
	ErrorText(fallback string) string
}

// send issues one request. Transport failures are wrapped with ErrNetwork
// unless the context was cancelled, in which case the context error is
// returned as is.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Debug("request failed", "method", method, "endpoint", path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	c.logger.Debug("response received", "method", method, "endpoint", path, "status", resp.StatusCode)
	return resp, nil
}

// readAll reads and closes the body.
func readAll(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrNetwork, err)
	}
	return data, nil
}

// statusError returns nil for a 2xx reply and an *HTTPError otherwise.
// The error text is the JSON "error" field, then the "message" field, then
// a short plain-text body.
func statusError(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: serverText(resp.Header.Get("Content-Type"), body)}
}

func serverText(contentType string, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		return payload.Message
	}

	mediaType, _, _ := mime.ParseMediaType(contentType) //nolint:errcheck // empty on failure
	text := strings.TrimSpace(string(body))
	if mediaType == "text/plain" && len(text) <= maxErrorText {
		return text
	}
	return ""
}

// decode unmarshals a JSON reply into out and converts "success": false
// into a *DomainError with fallback as the text when the server gave none.
func decode(body []byte, out any, fallback string) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return malformed("Empty response", nil)
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return malformed("Invalid response format", err)
	}
	if f, ok := out.(failer); ok && f.Failed() {
		return &DomainError{Message: f.ErrorText(fallback)}
	}
	return nil
}

// doJSON sends a request and decodes the JSON reply into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any, fallback string) error {
	resp, err := c.send(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	data, err := readAll(resp, maxJSONBody)
	if err != nil {
		return err
	}
	if err := statusError(resp, data); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(data, out, fallback)
}

// getJSON issues a query GET.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any, fallback string) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, "", out, fallback)
}

// postJSON issues a JSON POST. A nil in sends an empty body.
func (c *Client) postJSON(ctx context.Context, path string, in, out any, fallback string) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		payload, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.doJSON(ctx, http.MethodPost, path, nil, body, contentType, out, fallback)
}

// postMultipart uploads parts under one form field name.
//
// Design decision: the body is built in memory so it carries a
// Content-Length. Upload sizes are capped by staging limits before this
// point, and the backend rejects chunked multipart bodies.
func (c *Client) postMultipart(ctx context.Context, path, field string, parts []Part, out any, fallback string) error {
	if len(parts) == 0 {
		return ErrNoFiles
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if err := writePart(mw, field, p); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	c.logger.Debug("uploading files", "endpoint", path, "files", len(parts), "bytes", buf.Len())
	return c.doJSON(ctx, http.MethodPost, path, nil, &buf, mw.FormDataContentType(), out, fallback)
}

func writePart(mw *multipart.Writer, field string, p Part) error {
	contentType := "application/octet-stream"
	if tp, ok := p.(typedPart); ok && tp.MIME() != "" {
		contentType = tp.MIME()
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": p.Name(),
	}))
	h.Set("Content-Type", contentType)

	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", p.Name(), err)
	}

	rc, err := p.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p.Name(), err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to read %s: %w", p.Name(), err)
	}
	return nil
}

// getBlob downloads a file.
//
// The content type decides whether the body is the file or a JSON error:
// a JSON body with an "error" field becomes a *DomainError. When wantType
// is set, any other type is a malformed payload. A missing or generic
// Content-Type header is replaced by the sniffed type of the body.
func (c *Client) getBlob(ctx context.Context, path string, query url.Values, wantType, wrongTypeDetail string) (*Blob, error) {
	resp, err := c.send(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	data, err := readAll(resp, 0)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp, data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, malformed("Empty file received", nil)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType) //nolint:errcheck // empty on failure
	if mediaType == "" || mediaType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
		mediaType, _, _ = mime.ParseMediaType(contentType) //nolint:errcheck // empty on failure
	}

	if mediaType == "application/json" && wantType != "application/json" {
		if text := serverText(contentType, data); text != "" {
			return nil, &DomainError{Message: text}
		}
		return nil, malformed(wrongTypeDetail, nil)
	}
	if wantType != "" && !strings.EqualFold(mediaType, wantType) {
		c.logger.Warn("unexpected content type", "endpoint", path, "content_type", contentType)
		return nil, malformed(wrongTypeDetail, nil)
	}

	return &Blob{
		Data:        data,
		ContentType: contentType,
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
	}, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// isStatus reports whether err is an HTTPError with the given status.
func isStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}
