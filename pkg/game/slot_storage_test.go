package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gonewx/hearthvale/pkg/types"
	"github.com/quasilyte/gdata/v2"
)

// createTestGdataStorage 创建用于测试的 gdata 存储，无法打开时返回 nil
func createTestGdataStorage(t *testing.T, testName string) *GdataStorage {
	appName := fmt.Sprintf("hearthvale_test_%s_%d", testName, time.Now().UnixNano())
	manager, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil
	}

	// 测试结束后删除测试目录
	t.Cleanup(func() {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			os.RemoveAll(filepath.Join(homeDir, ".local", "share", appName))
		}
	})

	storage, err := NewGdataStorage(manager)
	if err != nil {
		return nil
	}
	return storage
}

func TestSlotStorageBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) SlotStorage{
		"内存": func(t *testing.T) SlotStorage {
			return NewMemoryStorage()
		},
		"文件": func(t *testing.T) SlotStorage {
			s, err := NewFileStorage(filepath.Join(t.TempDir(), "saves"))
			if err != nil {
				t.Fatalf("NewFileStorage failed: %v", err)
			}
			return s
		},
		"gdata": func(t *testing.T) SlotStorage {
			s := createTestGdataStorage(t, "backend")
			if s == nil {
				t.Skip("Cannot create gdata manager for testing")
			}
			return s
		},
	}

	for name, create := range backends {
		t.Run(name, func(t *testing.T) {
			storage := create(t)

			if storage.Exists("slot1") {
				t.Error("Expected slot1 to be absent initially")
			}
			if _, err := storage.Read("slot1"); !errors.Is(err, ErrSlotNotFound) {
				t.Errorf("Expected ErrSlotNotFound, got %v", err)
			}

			if err := storage.Write("slot1", []byte("first")); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := storage.Write("slot1", []byte("second")); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			data, err := storage.Read("slot1")
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if string(data) != "second" {
				t.Errorf("Expected %q, got %q", "second", data)
			}

			if err := storage.Delete("slot1"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if storage.Exists("slot1") {
				t.Error("Expected slot1 to be gone after delete")
			}
			// 删除不存在的槽位不是错误
			if err := storage.Delete("slot1"); err != nil {
				t.Errorf("Deleting a missing slot should succeed, got %v", err)
			}
		})
	}
}

// TestFileStorageLeavesNoTempFiles 写入完成后目录中只剩槽位文件
func TestFileStorageLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := storage.Write("slot1", []byte(fmt.Sprintf("v%d", i))); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := storage.Write("slot2", []byte("other")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected exactly 2 files, got %v", names)
	}

	slots, err := storage.Slots()
	if err != nil {
		t.Fatalf("Slots failed: %v", err)
	}
	if len(slots) != 2 || slots[0] != "slot1" || slots[1] != "slot2" {
		t.Errorf("Expected [slot1 slot2], got %v", slots)
	}
}

// TestPersistenceStoreOnFileStorage 文件后端上的完整保存/恢复流程
func TestPersistenceStoreOnFileStorage(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	store := NewPersistenceStore(storage, "farm_run", newTestCatalog(t, "berry"))
	live := []types.PlacedEntitySnapshot{snap("berry", "Town", 4, 2)}
	if err := store.Save("Town", live); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened := NewPersistenceStore(storage, "farm_run", newTestCatalog(t, "berry"))
	if _, ok := reopened.ResumeSession(); !ok {
		t.Fatal("Expected ResumeSession to read the file")
	}
	restored, err := reopened.RestoreForLocation("Town")
	if err != nil {
		t.Fatalf("RestoreForLocation failed: %v", err)
	}
	if len(restored) != 1 || restored[0] != live[0] {
		t.Errorf("Expected %+v, got %+v", live, restored)
	}
}
