package game

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/quasilyte/gdata/v2"
)

const (
	// saveSlotsObject gdata 中存放存档槽位的对象名
	saveSlotsObject = "saves"
	slotFileExt     = ".yaml"
)

// ErrSlotNotFound 槽位中没有数据
var ErrSlotNotFound = errors.New("save slot not found")

// SlotStorage 存档槽位的字节级存储后端
//
// Write 必须是原子的：要么完整写入新内容，要么保留旧内容。
type SlotStorage interface {
	Read(slot string) ([]byte, error)
	Write(slot string, data []byte) error
	Delete(slot string) error
	Exists(slot string) bool
}

// GdataStorage 基于 gdata 的跨平台存储
type GdataStorage struct {
	manager *gdata.Manager
}

// NewGdataStorage 使用已打开的 gdata Manager 创建存储
func NewGdataStorage(manager *gdata.Manager) (*GdataStorage, error) {
	if manager == nil {
		return nil, fmt.Errorf("gdata manager is nil")
	}
	return &GdataStorage{manager: manager}, nil
}

// OpenGdataStorage 按应用名打开 gdata 并创建存储
func OpenGdataStorage(appName string) (*GdataStorage, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open gdata for %s: %w", appName, err)
	}
	log.Printf("[SaveSlot] gdata storage opened for app %s", appName)
	return &GdataStorage{manager: manager}, nil
}

func (s *GdataStorage) Read(slot string) ([]byte, error) {
	if !s.manager.ObjectPropExists(saveSlotsObject, slot) {
		return nil, ErrSlotNotFound
	}
	data, err := s.manager.LoadObjectProp(saveSlotsObject, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", slot, err)
	}
	return data, nil
}

// Write 覆盖槽位数据
func (s *GdataStorage) Write(slot string, data []byte) error {
	if err := s.manager.SaveObjectProp(saveSlotsObject, slot, data); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", slot, err)
	}
	return nil
}

func (s *GdataStorage) Delete(slot string) error {
	if !s.manager.ObjectPropExists(saveSlotsObject, slot) {
		return nil
	}
	if err := s.manager.DeleteObjectProp(saveSlotsObject, slot); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", slot, err)
	}
	return nil
}

func (s *GdataStorage) Exists(slot string) bool {
	return s.manager.ObjectPropExists(saveSlotsObject, slot)
}

// FileStorage 把每个槽位保存为目录下的一个 YAML 文件
type FileStorage struct {
	dir string
}

// NewFileStorage 创建文件存储，目录不存在时自动创建
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir 返回存档目录
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) path(slot string) string {
	return filepath.Join(s.dir, slot+slotFileExt)
}

func (s *FileStorage) Read(slot string) ([]byte, error) {
	data, err := os.ReadFile(s.path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return data, nil
}

// Write 先写临时文件再重命名，中途失败不会破坏旧存档
func (s *FileStorage) Write(slot string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, slot+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for slot %s: %w", slot, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for slot %s: %w", slot, err)
	}
	if err := os.Rename(tmpName, s.path(slot)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace slot %s: %w", slot, err)
	}
	return nil
}

func (s *FileStorage) Delete(slot string) error {
	if err := os.Remove(s.path(slot)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete slot %s: %w", slot, err)
	}
	return nil
}

func (s *FileStorage) Exists(slot string) bool {
	_, err := os.Stat(s.path(slot))
	return err == nil
}

// Slots 列出目录中已有的槽位名（已排序）
func (s *FileStorage) Slots() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list save directory: %w", err)
	}
	var slots []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), slotFileExt) {
			continue
		}
		slots = append(slots, strings.TrimSuffix(e.Name(), slotFileExt))
	}
	sort.Strings(slots)
	return slots, nil
}

// MemoryStorage 内存存储，用于测试和无持久化运行
type MemoryStorage struct {
	mu      sync.Mutex
	slots   map[string][]byte
	failErr error
}

// NewMemoryStorage 创建空的内存存储
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string][]byte)}
}

// FailWrites 让后续 Write 返回 err；传 nil 恢复正常
func (s *MemoryStorage) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *MemoryStorage) Read(slot string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.slots[slot]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStorage) Write(slot string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.slots[slot] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStorage) Delete(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	return nil
}

func (s *MemoryStorage) Exists(slot string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[slot]
	return ok
}
