package game

import (
	"testing"

	"github.com/quasilyte/gdata/v2"
)

func openTestGdata(t *testing.T, app string) *gdata.Manager {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")
	m, err := gdata.Open(gdata.Config{AppName: app})
	if err != nil {
		t.Skipf("gdata not available: %v", err)
	}
	return m
}

func TestSettingsDegradedMode(t *testing.T) {
	sm := NewSettingsManager(nil)
	if sm.Persistent() {
		t.Error("nil manager must not be persistent")
	}
	s := sm.Settings()
	if s.LastSlot != "slot1" || !s.ShowHelp || s.Fullscreen {
		t.Errorf("Expected defaults, got %+v", s)
	}
	s.Fullscreen = true
	if err := sm.Save(); err != nil {
		t.Errorf("Save in degraded mode should not fail: %v", err)
	}
}

func TestSettingsLoadSave(t *testing.T) {
	m := openTestGdata(t, "hearthvale_test_settings")

	sm1 := NewSettingsManager(m)
	sm1.Settings().Fullscreen = true
	sm1.Settings().LastSlot = "farm_run"
	sm1.Settings().ShowHelp = false
	if err := sm1.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sm2 := NewSettingsManager(m)
	got := sm2.Settings()
	if !got.Fullscreen || got.LastSlot != "farm_run" || got.ShowHelp {
		t.Errorf("Reloaded settings mismatch: %+v", got)
	}
}

func TestSettingsLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		want    Settings
	}{
		{"损坏的数据回退到默认值", "fullscreen: [", true, *DefaultSettings()},
		{"缺少槽位名使用默认槽位", "fullscreen: true\nlastSlot: \"\"\n", false, Settings{Fullscreen: true, LastSlot: "slot1", ShowHelp: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := openTestGdata(t, "hearthvale_test_settings_errors")
			if err := m.SaveObjectProp(settingsObject, settingsProperty, []byte(tt.data)); err != nil {
				t.Fatalf("SaveObjectProp failed: %v", err)
			}
			sm := &SettingsManager{gdataManager: m}
			err := sm.Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if *sm.Settings() != tt.want {
				t.Errorf("got %+v, want %+v", *sm.Settings(), tt.want)
			}
		})
	}
}
