package extract

import (
	"context"
	"strings"
	"testing"
)

func TestExtractText_PlainText(t *testing.T) {
	got, err := ExtractText(context.Background(), []byte("  Intimação nº 123\n"), "text/plain; charset=utf-8", "notice.txt")
	if err != nil {
		t.Fatalf("expected plain text to extract, got error: %v", err)
	}
	if got != "Intimação nº 123" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtractText_TxtExtensionFallback(t *testing.T) {
	got, err := ExtractText(context.Background(), []byte("prazo em dobro"), "application/octet-stream", "notice.txt")
	if err != nil {
		t.Fatalf("expected .txt fallback to extract, got error: %v", err)
	}
	if got != "prazo em dobro" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtractText_PdfMagicBytesDetected(t *testing.T) {
	// Truncated payload: detection must route it to the PDF parser,
	// which then rejects it.
	_, err := ExtractText(context.Background(), []byte("%PDF-1.7 garbage"), "", "upload.bin")
	if err == nil {
		t.Fatal("expected truncated pdf to fail")
	}
	if strings.Contains(err.Error(), "unsupported mime type") {
		t.Fatalf("payload should have been routed to the pdf parser: %v", err)
	}
}

func TestExtractText_UnsupportedMime(t *testing.T) {
	_, err := ExtractText(context.Background(), []byte{0x50, 0x4b, 0x03, 0x04}, "application/zip", "notice.zip")
	if err == nil || !strings.Contains(err.Error(), "unsupported mime type") {
		t.Fatalf("expected unsupported mime error, got: %v", err)
	}
}

func TestExtractText_InvalidUTF8Rejected(t *testing.T) {
	_, err := ExtractText(context.Background(), []byte{0xff, 0xfe, 0x00}, "text/plain", "notice.txt")
	if err == nil {
		t.Fatal("expected invalid utf-8 to be rejected")
	}
}

func TestExtractText_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractText(ctx, []byte("x"), "text/plain", "notice.txt"); err == nil {
		t.Fatal("expected context error")
	}
}
