package downloader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imgsqueeze/web/dataurl"
)

func testPNG(t *testing.T) []byte {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDownload(t *testing.T) {
	img := testPNG(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/images/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	type tc struct {
		name         string
		path         string
		maxSize      int64
		expectedName string
		expectErr    bool
	}

	tcs := []tc{
		{name: "named image", path: "/images/cat.png", maxSize: 1 << 20, expectedName: "cat.png"},
		{name: "root path", path: "/", maxSize: 1 << 20, expectedName: "image"},
		{name: "not an image", path: "/text", maxSize: 1 << 20, expectErr: true},
		{name: "not found", path: "/missing", maxSize: 1 << 20, expectErr: true},
		{name: "too large", path: "/images/cat.png", maxSize: 8, expectErr: true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			f, err := New(srv.Client(), tc.maxSize).Download(context.Background(), srv.URL+tc.path)
			if tc.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if f.Name != tc.expectedName {
				t.Fatalf("expected name %s but got: %s", tc.expectedName, f.Name)
			}
			if f.MIME != "image/png" {
				t.Fatalf("expected image/png but got: %s", f.MIME)
			}
			if !bytes.Equal(f.Data, img) {
				t.Fatal("downloaded bytes differ")
			}
		})
	}
}

func TestDownloadNotImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := New(nil, 1<<20).Download(context.Background(), srv.URL)
	if !errors.Is(err, dataurl.ErrNotImage) {
		t.Fatalf("expected ErrNotImage but got: %v", err)
	}
}
