package storage

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestParseDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("fake-png-bytes"))
	img, err := ParseDataURL("data:image/png;base64," + payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if img.ContentType != "image/png" || img.Ext != ".png" {
		t.Fatalf("unexpected content type %q ext %q", img.ContentType, img.Ext)
	}
	if string(img.Data) != "fake-png-bytes" {
		t.Fatalf("unexpected payload %q", img.Data)
	}
}

func TestParseDataURLRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-a-data-url",
		"data:image/png;base64",
		"data:image/png,missing-encoding",
		"data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte("<html>")),
		"data:image/png;base64,%%%invalid%%%",
		"data:image/png;base64," + base64.StdEncoding.EncodeToString(nil),
	}
	for _, raw := range cases {
		if _, err := ParseDataURL(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestParseDataURLSizeCap(t *testing.T) {
	huge := strings.Repeat("A", base64.StdEncoding.EncodedLen(maxImageBytes+1024))
	_, err := ParseDataURL("data:image/jpeg;base64," + huge)
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}
