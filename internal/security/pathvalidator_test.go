package security

import (
	"strings"
	"testing"
)

// ============================================================================
// Deletion-time validation
// ============================================================================

func TestValidatePathForDeletion(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"user temp file ok", `C:\Users\demo\AppData\Local\Temp\a.tmp`, ""},
		{"downloads ok", `C:\Users\demo\Downloads\setup.exe`, ""},
		{"empty path", "   ", "empty"},
		{"relative path", `Temp\a.tmp`, "absolute"},
		{"traversal", `C:\Users\demo\..\..\Windows\System32\cfg.dll`, "suspicious"},
		{"system32", `C:\Windows\System32\kernel32.dll`, "protected"},
		{"winsxs lowercase", `c:\windows\winsxs\x.manifest`, "protected"},
		{"program files", `C:\Program Files\App\app.exe`, "protected"},
		{"program files x86", `C:\Program Files (x86)\App\app.exe`, "protected"},
		{"system volume information", `C:\System Volume Information\x`, "protected"},
		{"forward slashes still protected", `C:/Windows/System32/drivers/disk.sys`, "protected"},
		{"shell metacharacters", `C:\Users\demo\a;rm.txt`, "dangerous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForDeletion(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsProtectedPath(t *testing.T) {
	pv := NewPathValidator()

	if !pv.IsProtectedPath(`C:\Windows\System32`) {
		t.Error("System32 root should be protected")
	}
	if !pv.IsProtectedPath(`c:\windows\system32\drivers\etc\hosts`) {
		t.Error("files under System32 should be protected")
	}
	if pv.IsProtectedPath(`C:\Users\demo\Downloads\big.iso`) {
		t.Error("user downloads should not be protected")
	}
}

func TestAddProtectedPath(t *testing.T) {
	pv := NewPathValidator()
	pv.AddProtectedPath(`D:\Backups`)

	if err := pv.ValidatePathForDeletion(`D:\Backups\2026\full.bak`); err == nil {
		t.Error("custom protected root not enforced")
	}
	if err := pv.ValidatePathForDeletion(`D:\Scratch\junk.tmp`); err != nil {
		t.Errorf("sibling path rejected: %v", err)
	}
}
