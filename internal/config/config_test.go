package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitializeCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "setu")

	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("Expected data dir %s to exist", dir)
	}
	if HistoryFile != filepath.Join(dir, "history.json") {
		t.Errorf("Unexpected history path %s", HistoryFile)
	}
	if CollectionsFile != filepath.Join(dir, "collections.json") {
		t.Errorf("Unexpected collections path %s", CollectionsFile)
	}
	if KeybindsFile != filepath.Join(dir, "keybinds.json") {
		t.Errorf("Unexpected keybinds path %s", KeybindsFile)
	}
}

func TestDefaultDataDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	dir, err := DefaultDataDir()
	if err != nil {
		t.Fatalf("DefaultDataDir failed: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", AppName) {
		t.Errorf("Expected XDG path, got %s", dir)
	}
}

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Settings
		wantErr bool
	}{
		{
			name: "missing file uses defaults",
			want: DefaultSettings(),
		},
		{
			name:    "partial file keeps defaults",
			content: "history_max_entries: 50\n",
			want: Settings{
				HistoryMaxEntries: 50,
				UserAgent:         DefaultUserAgent(),
				AnalyticsEnabled:  true,
			},
		},
		{
			name:    "full file",
			content: "history_max_entries: 10\nuser_agent: probe/1\nanalytics_enabled: false\nrequest_timeout: 5s\n",
			want: Settings{
				HistoryMaxEntries: 10,
				UserAgent:         "probe/1",
				AnalyticsEnabled:  false,
				RequestTimeout:    5 * time.Second,
			},
		},
		{
			name:    "non-positive cap falls back",
			content: "history_max_entries: 0\n",
			want:    DefaultSettings(),
		},
		{
			name:    "malformed yaml",
			content: "history_max_entries: [\n",
			want:    DefaultSettings(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), FilePermissions); err != nil {
					t.Fatal(err)
				}
			}

			got, err := LoadSettings(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LoadSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	want := Settings{HistoryMaxEntries: 42, UserAgent: "x", AnalyticsEnabled: true, RequestTimeout: time.Minute}

	if err := SaveSettings(path, want); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}
