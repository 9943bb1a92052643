package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/joseph-ayodele/receipt-renamer/constants"
	"github.com/joseph-ayodele/receipt-renamer/internal/common"
)

// fakeRunner pretends to be pdftoppm: it writes a page-sized PNG to <prefix>.png.
type fakeRunner struct {
	page  image.Image
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte("Syntax Error: Couldn't read xref table"), f.err
	}
	prefix := args[len(args)-1]
	out, err := os.Create(prefix + ".png")
	if err != nil {
		return nil, nil, err
	}
	defer out.Close()
	return nil, nil, png.Encode(out, f.page)
}

func page(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

func writeImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch filepath.Ext(path) {
	case ".jpg", ".JPG":
		err = jpeg.Encode(&buf, img, nil)
	case ".png":
		err = png.Encode(&buf, img)
	case ".bmp":
		err = bmp.Encode(&buf, img)
	case ".tiff", ".tif":
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("no encoder for %s", path)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func smallConfig() Config {
	// 72 DPI on a 2 inch page keeps test images tiny: long edge 144px.
	return Config{DPI: 72, PageLongEdgeInches: 2}
}

func TestNormalizeSizeParityAcrossFormats(t *testing.T) {
	dir := t.TempDir()

	// The "same" page: a PDF render at target DPI and a high resolution photo of it.
	runner := &fakeRunner{page: page(102, 144)}
	pdfPath := filepath.Join(dir, "scan001.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	photoPath := filepath.Join(dir, "photo.JPG")
	writeImage(t, photoPath, page(1020, 1440))

	n := NewNormalizer(smallConfig(), nil, WithRunner(runner))

	fromPDF, err := n.Normalize(context.Background(), pdfPath)
	if err != nil {
		t.Fatalf("normalize pdf: %v", err)
	}
	fromPhoto, err := n.Normalize(context.Background(), photoPath)
	if err != nil {
		t.Fatalf("normalize photo: %v", err)
	}

	if fromPDF.Height != 144 || fromPhoto.Height != 144 {
		t.Fatalf("expected both long edges at 144px, got pdf=%dx%d photo=%dx%d",
			fromPDF.Width, fromPDF.Height, fromPhoto.Width, fromPhoto.Height)
	}
	ratio := float64(fromPDF.Width*fromPDF.Height) / float64(fromPhoto.Width*fromPhoto.Height)
	if ratio < 0.95 || ratio > 1.05 {
		t.Fatalf("pixel count ratio %.3f outside bound", ratio)
	}
	if fromPDF.SourceFormat != constants.PDF || fromPhoto.SourceFormat != constants.IMAGE {
		t.Fatalf("unexpected source formats %q %q", fromPDF.SourceFormat, fromPhoto.SourceFormat)
	}
	if fromPhoto.SourceWidth != 1020 {
		t.Fatalf("expected source width recorded, got %d", fromPhoto.SourceWidth)
	}

	if _, err := png.Decode(bytes.NewReader(fromPhoto.PNG)); err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
}

func TestNormalizeRendersOnlyFirstPageAtTargetDPI(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{page: page(10, 14)}
	n := NewNormalizer(Config{DPI: 300, PageLongEdgeInches: 0.1, Pdftoppm: "/opt/poppler/pdftoppm"}, nil, WithRunner(runner))

	if _, err := n.Normalize(context.Background(), pdfPath); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one pdftoppm call, got %d", len(runner.calls))
	}
	got := strings.Join(runner.calls[0], " ")
	for _, want := range []string{"/opt/poppler/pdftoppm ", "-f 1 -l 1", "-singlefile", "-r 300", "-png " + pdfPath} {
		if !strings.Contains(got, want) {
			t.Fatalf("pdftoppm args %q missing %q", got, want)
		}
	}
}

func TestNormalizeDecodesEveryImageFormat(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(smallConfig(), nil)

	for _, name := range []string{"a.jpg", "b.png", "c.bmp", "d.tiff", "e.tif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeImage(t, path, page(40, 20))
			img, err := n.Normalize(context.Background(), path)
			if err != nil {
				t.Fatalf("normalize %s: %v", name, err)
			}
			if img.Width != 144 || img.Height != 72 {
				t.Fatalf("expected 144x72, got %dx%d", img.Width, img.Height)
			}
		})
	}
}

func TestNormalizeErrors(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(smallConfig(), nil, WithRunner(&fakeRunner{err: errors.New("exit status 1")}))

	unsupported := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unsupported, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	corrupt := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(corrupt, []byte("\x89PNG not really"), 0o644); err != nil {
		t.Fatal(err)
	}
	badPDF := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(badPDF, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "unsupported extension", path: unsupported, want: common.ErrUnsupportedFormat},
		{name: "corrupt image", path: corrupt, want: common.ErrDecode},
		{name: "renderer failure", path: badPDF, want: common.ErrDecode},
		{name: "missing file", path: filepath.Join(dir, "gone.jpg"), want: common.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(context.Background(), tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFitLongEdgeKeepsAspect(t *testing.T) {
	out := fitLongEdge(page(300, 100), 60)
	if b := out.Bounds(); b.Dx() != 60 || b.Dy() != 20 {
		t.Fatalf("expected 60x20, got %dx%d", b.Dx(), b.Dy())
	}
}
