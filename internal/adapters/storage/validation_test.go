package storage

import (
	"strings"
	"testing"
)

func TestValidateContentType(t *testing.T) {
	if err := ValidateContentType("application/pdf; charset=binary"); err != nil {
		t.Fatalf("expected pdf to be accepted: %v", err)
	}
	if err := ValidateContentType("application/x-msdownload"); err == nil {
		t.Fatalf("expected executable to be rejected")
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := ValidateFileSize(0, 10); err == nil {
		t.Fatalf("expected empty file to be rejected")
	}
	if err := ValidateFileSize(11, 10); err == nil {
		t.Fatalf("expected oversized file to be rejected")
	}
	if err := ValidateFileSize(11, 0); err != nil {
		t.Fatalf("expected unbounded size to pass: %v", err)
	}
}

func TestObjectPathSanitizesName(t *testing.T) {
	key := ObjectPath("leases/abc", "../Signed Lease (final).PDF")
	if !strings.HasPrefix(key, "leases/abc/Signed_Lease_final_") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("unexpected object key %q", key)
	}
}

func TestPublicURLEscapesSegments(t *testing.T) {
	got := PublicURL("https://files.example.com/", "lease-attachments", "leases/abc/my file.pdf")
	want := "https://files.example.com/lease-attachments/leases/abc/my%20file.pdf"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
