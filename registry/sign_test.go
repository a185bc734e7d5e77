package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// generateTestKey creates a fresh ASCII-armored private key.
func generateTestKey(t *testing.T) string {
	t.Helper()
	entity, err := openpgp.NewEntity("Test User", "test", "test@example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	var keyBuf bytes.Buffer
	w, _ := armor.Encode(&keyBuf, openpgp.PrivateKeyType, nil)
	entity.SerializePrivate(w, nil)
	w.Close()
	return keyBuf.String()
}

func TestSignArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package-map.json")
	if err := os.WriteFile(path, []byte(`{"geometry": "tex-geometry"}`), 0644); err != nil {
		t.Fatal(err)
	}

	key := generateTestKey(t)
	if err := SignArtifact(path, key); err != nil {
		t.Fatalf("SignArtifact failed: %v", err)
	}

	signed, err := os.ReadFile(path + ".asc")
	if err != nil {
		t.Fatalf("signed copy missing: %v", err)
	}
	text := string(signed)
	if !strings.Contains(text, "BEGIN PGP SIGNED MESSAGE") {
		t.Error("output is not clearsigned")
	}
	if !strings.Contains(text, `"geometry": "tex-geometry"`) {
		t.Error("signed copy does not embed the artifact content")
	}

	// The plain artifact stays untouched.
	plain, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != `{"geometry": "tex-geometry"}` {
		t.Error("plain artifact modified by signing")
	}
}

func TestSignArtifactBadKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package-map.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := SignArtifact(path, "not a key"); err == nil {
		t.Error("expected error for invalid key")
	}
	if _, err := os.Stat(path + ".asc"); !os.IsNotExist(err) {
		t.Error("signed copy written despite failure")
	}
}

func TestSignArtifactMissingFile(t *testing.T) {
	key := generateTestKey(t)
	if err := SignArtifact(filepath.Join(t.TempDir(), "absent.json"), key); err == nil {
		t.Error("expected error for missing artifact")
	}
}
