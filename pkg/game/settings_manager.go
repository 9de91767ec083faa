package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// Settings 演示程序的全局设置，与存档槽位无关
type Settings struct {
	// Fullscreen 启动时是否全屏
	Fullscreen bool `yaml:"fullscreen"`
	// LastSlot 上次使用的存档槽位，命令行未指定槽位时使用
	LastSlot string `yaml:"lastSlot"`
	// ShowHelp 状态栏是否显示按键提示
	ShowHelp bool `yaml:"showHelp"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *Settings {
	return &Settings{
		LastSlot: "slot1",
		ShowHelp: true,
	}
}

const (
	settingsObject   = "settings"
	settingsProperty = "global"
)

// SettingsManager 负责设置的加载和保存
type SettingsManager struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式，仅内存设置）
	settings     *Settings
}

// NewSettingsManager 创建设置管理器并尝试加载已保存的设置
//
// 加载失败时记录警告并使用默认设置。
func NewSettingsManager(gdataManager *gdata.Manager) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}
	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}
	return sm
}

// Load 从 gdata 加载设置
//
// 返回：
//   - error: 数据存在但无法读取或解析时返回错误，此时设置被重置为默认值
func (sm *SettingsManager) Load() error {
	sm.settings = DefaultSettings()
	if sm.gdataManager == nil || !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if loaded.LastSlot == "" {
		loaded.LastSlot = DefaultSettings().LastSlot
	}
	sm.settings = loaded
	return nil
}

// Save 保存设置，降级模式下直接返回 nil
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}
	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	log.Printf("[SettingsManager] Settings saved")
	return nil
}

// Settings 返回当前设置（修改后需调用 Save 持久化）
func (sm *SettingsManager) Settings() *Settings {
	return sm.settings
}

// Persistent 是否能跨进程保存
func (sm *SettingsManager) Persistent() bool {
	return sm.gdataManager != nil
}
