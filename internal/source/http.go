package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 30 * time.Second

// acceptHeader prefers CSV but tolerates servers that label it text/plain.
const acceptHeader = "text/csv, text/plain;q=0.9, */*;q=0.1"

// HTTPSource downloads a CSV document with a GET request.
type HTTPSource struct {
	URL       string
	Client    *http.Client
	MaxBytes  int64
	UserAgent string
}

// NewHTTPSource creates an HTTPSource with its own client. Zero timeout or
// maxBytes select the defaults.
func NewHTTPSource(url string, timeout time.Duration, maxBytes int64) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPSource{
		URL:       url,
		Client:    &http.Client{Timeout: timeout},
		MaxBytes:  maxBytes,
		UserAgent: "sheetview/1.0",
	}
}

func (s *HTTPSource) String() string {
	return s.URL
}

// Fetch downloads the configured URL.
func (s *HTTPSource) Fetch(ctx context.Context) (Payload, error) {
	return s.Get(ctx, s.URL)
}

// Get downloads url and returns its body as UTF-8 text.
//
// Non-2xx responses, HTML pages (a private Google Sheet answers with its
// sign-in page) and bodies over MaxBytes are reported as *FetchError.
func (s *HTTPSource) Get(ctx context.Context, url string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Payload{}, &FetchError{Kind: KindNetwork, Source: url, Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Payload{}, transportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Payload{}, &FetchError{Kind: KindStatus, Source: url, Status: resp.StatusCode}
	}

	counter := NewCountingReader(resp.Body, s.MaxBytes)
	body, err := io.ReadAll(counter)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return Payload{}, &FetchError{
				Kind:   KindTooLarge,
				Source: url,
				Detail: fmt.Sprintf("limit %d bytes", s.MaxBytes),
				Err:    ErrTooLarge,
			}
		}
		return Payload{}, transportError(url, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if isHTML(contentType, body) {
		return Payload{}, &FetchError{Kind: KindNotCSV, Source: url, Detail: htmlTitle(body)}
	}

	text, err := decodeBody(body, contentType)
	if err != nil {
		return Payload{}, &FetchError{Kind: KindNotCSV, Source: url, Err: err}
	}

	return Payload{
		Text:        text,
		ContentType: contentType,
		Bytes:       counter.BytesRead,
		FetchedAt:   time.Now(),
	}, nil
}

// transportError classifies client errors into timeout vs network.
func transportError(url string, err error) *FetchError {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &FetchError{Kind: KindTimeout, Source: url, Err: err}
	}
	return &FetchError{Kind: KindNetwork, Source: url, Err: err}
}

// isHTML reports whether the response is an HTML page, either by its
// declared media type or by sniffing the body.
func isHTML(contentType string, body []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "text/html", "application/xhtml+xml":
			return true
		}
	}
	return strings.HasPrefix(http.DetectContentType(body), "text/html")
}

// htmlTitle returns the trimmed <title> text of an HTML document, or "".
func htmlTitle(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		} else {
			b.WriteString(textContent(c))
		}
	}
	return b.String()
}

// decodeBody converts body to UTF-8 text.
//
// Valid UTF-8 is taken as-is unless the server declares another charset.
// Otherwise the declared charset, or a sniffed one, drives the conversion.
func decodeBody(body []byte, contentType string) (string, error) {
	if utf8.Valid(body) && !declaresForeignCharset(contentType) {
		return cleanText(body), nil
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("charset: %w", err)
	}
	converted, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("charset: %w", err)
	}
	return cleanText(converted), nil
}

func declaresForeignCharset(contentType string) bool {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	cs := strings.ToLower(strings.TrimSpace(params["charset"]))
	return cs != "" && cs != "utf-8" && cs != "utf8"
}
