package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestGodotenvQuoting(t *testing.T) {
	content := "DB_PASSWORD='p#ss \"word\"'\nSNAPSHOT_DIR=\"/var/lib/flow metrics\"\n"
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	tests := map[string]string{
		"DB_PASSWORD":  `p#ss "word"`,
		"SNAPSHOT_DIR": "/var/lib/flow metrics",
	}
	for key, expected := range tests {
		if env[key] != expected {
			t.Errorf("%s: expected %s, got %s", key, expected, env[key])
		}
	}
}
