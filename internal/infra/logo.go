package infra

// logo.go
// Fetches the company logo at render time. Logo hosts are slow and flaky;
// the fetch is bounded at 10 seconds and any failure degrades to a
// document without a logo instead of a failed render.

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const logoFetchTimeout = 10 * time.Second

// LogoImage is a fetched logo ready for PDF embedding.
type LogoImage struct {
	Data []byte
	Type string // "PNG" | "JPG" | "GIF", the names fpdf registers
}

// LogoFetcher downloads company logos over HTTP.
type LogoFetcher struct {
	client *resty.Client
}

func NewLogoFetcher() *LogoFetcher {
	return &LogoFetcher{client: resty.New().SetTimeout(logoFetchTimeout)}
}

func (f *LogoFetcher) Fetch(ctx context.Context, url string) (*LogoImage, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("logo: fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("logo: %s returned %d", url, resp.StatusCode())
	}
	imgType := imageType(resp.Header().Get("Content-Type"), url)
	if imgType == "" {
		return nil, fmt.Errorf("logo: unsupported image type at %s", url)
	}
	return &LogoImage{Data: resp.Body(), Type: imgType}, nil
}

// imageType maps the response content type, falling back to the URL
// extension, onto fpdf's image type names.
func imageType(contentType, url string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return "PNG"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "JPG"
	case strings.Contains(ct, "gif"):
		return "GIF"
	}

	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "PNG"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "JPG"
	case strings.HasSuffix(lower, ".gif"):
		return "GIF"
	}
	return ""
}
