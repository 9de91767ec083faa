package game

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/types"
	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
)

// ErrStorageWrite 存档写入失败
//
// Save / SaveSession 返回的写入错误都包装了它，可以用 errors.Is 判断。
var ErrStorageWrite = errors.New("save storage write failed")

// SlotInfo 槽位概要，用于读档界面和命令行工具
type SlotInfo struct {
	Slot            string
	Label           string
	LastSave        time.Time
	PlayTimeSeconds float64
	CurrentLocation string
	LocationCounts  map[string]int
	SessionID       string
}

// PersistenceStore 单个槽位的存档读写
//
// 每次保存都会读取现有记录，丢弃当前地点的全部快照，再追加当前地点的存活实体，
// 其他地点的分区保持原样。记录不存在或无法解析时按空记录处理。
//
// 每个 PersistenceStore 属于一个游戏会话（SessionID）。新建的存储默认继续槽位中的会话：
// 第一次读取记录时沿用记录的会话 ID。只有调用 BeginNewSession 之后，
// 其他会话写入的记录才会在合并时被当作空记录，旧进度被整体覆盖。
type PersistenceStore struct {
	storage   SlotStorage
	slot      string
	catalog   catalog.EntityCatalog
	sessionID string
	now       func() time.Time
}

// NewPersistenceStore 创建存档存储
//
// 会话 ID 在第一次读取记录时从记录中沿用；槽位为空时在第一次写入时生成。
//
// 参数：
//   - storage: 槽位存储后端
//   - slot: 槽位名
//   - cat: 恢复时解析原型键用的目录
func NewPersistenceStore(storage SlotStorage, slot string, cat catalog.EntityCatalog) *PersistenceStore {
	return &PersistenceStore{
		storage:   storage,
		slot:      slot,
		catalog:   cat,
		now:       time.Now,
	}
}

// Slot 返回槽位名
func (s *PersistenceStore) Slot() string {
	return s.slot
}

// SessionID 返回当前会话 ID，尚未读写过槽位时为空
func (s *PersistenceStore) SessionID() string {
	return s.sessionID
}

// BeginNewSession 开始新游戏：换一个新的会话 ID
func (s *PersistenceStore) BeginNewSession() {
	s.sessionID = uuid.NewString()
	log.Printf("[PersistenceStore] New session %s on slot %s", s.sessionID, s.slot)
}

// ResumeSession 继续槽位中的存档
//
// 读取现有记录并沿用其会话 ID。槽位为空或记录损坏时返回 (nil, false)，
// 会话 ID 保持不变。
func (s *PersistenceStore) ResumeSession() (*SaveRecord, bool) {
	record, ok := s.readRecord()
	if !ok {
		return nil, false
	}
	if record.SessionID == "" {
		// 旧格式存档没有会话 ID，下次保存时写入
		if s.sessionID == "" {
			s.sessionID = uuid.NewString()
		}
		record.SessionID = s.sessionID
	}
	s.sessionID = record.SessionID
	log.Printf("[PersistenceStore] Resumed session %s from slot %s (%d placed entities)",
		s.sessionID, s.slot, len(record.PlacedEntities))
	return record, true
}

// Save 保存一个地点的放置实体
//
// 参数：
//   - locationID: 当前地点
//   - live: 当前地点存活的持久化实体
//
// 返回：
//   - error: 写入失败时返回包装了 ErrStorageWrite 的错误
func (s *PersistenceStore) Save(locationID string, live []types.PlacedEntitySnapshot) error {
	record := s.mergeBase()
	record.PlacedEntities = MergeLocationPartition(record.PlacedEntities, locationID, live)
	return s.write(record, locationID)
}

// SaveSession 保存会话标量状态和当前地点的放置实体
func (s *PersistenceStore) SaveSession(session *Session, locationID string, live []types.PlacedEntitySnapshot) error {
	record := s.mergeBase()
	if session != nil {
		session.applyTo(record)
	}
	record.PlacedEntities = MergeLocationPartition(record.PlacedEntities, locationID, live)
	return s.write(record, locationID)
}

// RestoreForLocation 返回指定地点已保存的快照
//
// 无法解析原型键的快照被丢弃，每条记录一次警告。
// 其他会话写入的记录视为不存在。
func (s *PersistenceStore) RestoreForLocation(locationID string) ([]types.PlacedEntitySnapshot, error) {
	record, ok := s.readRecord()
	if !ok {
		return nil, nil
	}
	s.adopt(record)
	if record.SessionID != "" && record.SessionID != s.sessionID {
		log.Printf("[PersistenceStore] Slot %s belongs to session %s, nothing to restore for %s",
			s.slot, record.SessionID, locationID)
		return nil, nil
	}

	var restored []types.PlacedEntitySnapshot
	for _, snap := range record.SnapshotsFor(locationID) {
		if s.catalog != nil {
			if _, ok := s.catalog.Resolve(snap.ArchetypeKey); !ok {
				log.Printf("[PersistenceStore] Warning: dropping saved entity at %s cell (%d,%d): unknown archetype %q",
					locationID, snap.GridCell.X, snap.GridCell.Y, snap.ArchetypeKey)
				continue
			}
		}
		restored = append(restored, snap)
	}
	return restored, nil
}

// Load 返回完整存档记录；槽位为空或损坏时返回 (nil, false)
func (s *PersistenceStore) Load() (*SaveRecord, bool) {
	return s.readRecord()
}

// HasRecord 槽位中是否有数据
func (s *PersistenceStore) HasRecord() bool {
	return s.storage.Exists(s.slot)
}

// DeleteRecord 删除槽位数据
func (s *PersistenceStore) DeleteRecord() error {
	if err := s.storage.Delete(s.slot); err != nil {
		return fmt.Errorf("failed to delete save record: %w", err)
	}
	log.Printf("[PersistenceStore] Deleted slot %s", s.slot)
	return nil
}

// Info 返回槽位概要；槽位为空或损坏时返回 false
func (s *PersistenceStore) Info() (SlotInfo, bool) {
	record, ok := s.readRecord()
	if !ok {
		return SlotInfo{}, false
	}
	return SlotInfo{
		Slot:            s.slot,
		Label:           record.SaveLabel,
		LastSave:        record.LastSaveTimestamp,
		PlayTimeSeconds: record.TotalPlayTimeSeconds,
		CurrentLocation: record.CurrentLocation,
		LocationCounts:  record.LocationCounts(),
		SessionID:       record.SessionID,
	}, true
}

// readRecord 读取并解析槽位；不存在、读失败或解析失败都返回 false
func (s *PersistenceStore) readRecord() (*SaveRecord, bool) {
	data, err := s.storage.Read(s.slot)
	if err != nil {
		if !errors.Is(err, ErrSlotNotFound) {
			log.Printf("[PersistenceStore] Warning: cannot read slot %s, treating as empty: %v", s.slot, err)
		}
		return nil, false
	}
	record, err := decodeSaveRecord(data)
	if err != nil {
		log.Printf("[PersistenceStore] Warning: slot %s is corrupt, treating as empty: %v", s.slot, err)
		return nil, false
	}
	return record, true
}

// mergeBase 返回本次保存的合并基础记录
func (s *PersistenceStore) mergeBase() *SaveRecord {
	record, ok := s.readRecord()
	if !ok {
		return &SaveRecord{}
	}
	s.adopt(record)
	if record.SessionID != "" && record.SessionID != s.sessionID {
		log.Printf("[PersistenceStore] Slot %s was written by session %s, overwriting with session %s",
			s.slot, record.SessionID, s.sessionID)
		return &SaveRecord{}
	}
	return record
}

// adopt 尚未确定会话时沿用记录的会话
func (s *PersistenceStore) adopt(record *SaveRecord) {
	if s.sessionID == "" {
		s.sessionID = record.SessionID
	}
}

func (s *PersistenceStore) write(record *SaveRecord, locationID string) error {
	if s.sessionID == "" {
		s.sessionID = uuid.NewString()
	}
	record.SessionID = s.sessionID
	record.LastSaveTimestamp = s.now().UTC()

	data, err := encodeSaveRecord(record)
	if err != nil {
		return fmt.Errorf("failed to write save record: %w: %w", ErrStorageWrite, err)
	}
	if err := s.storage.Write(s.slot, data); err != nil {
		return fmt.Errorf("failed to write save record: %w: %w", ErrStorageWrite, err)
	}
	log.Printf("[PersistenceStore] Saved slot %s: location %s, %d placed entities in total",
		s.slot, locationID, len(record.PlacedEntities))
	return nil
}

// MergeLocationPartition 用 live 替换 existing 中 locationID 的分区
//
// 其他地点的快照原样保留且顺序不变；live 中的快照统一标记为 locationID，
// 同一格子出现多次时保留最后一条。
func MergeLocationPartition(existing []types.PlacedEntitySnapshot, locationID string, live []types.PlacedEntitySnapshot) []types.PlacedEntitySnapshot {
	merged := make([]types.PlacedEntitySnapshot, 0, len(existing)+len(live))
	for _, snap := range existing {
		if snap.Location != locationID {
			merged = append(merged, snap)
		}
	}

	// 倒序扫描，先见到的就是最后写入的
	seen := mapset.New[types.GridCell]()
	partition := make([]types.PlacedEntitySnapshot, 0, len(live))
	for i := len(live) - 1; i >= 0; i-- {
		snap := live[i]
		snap.Location = locationID
		if seen.Has(snap.GridCell) {
			continue
		}
		seen.Put(snap.GridCell)
		partition = append(partition, snap)
	}
	for i := len(partition) - 1; i >= 0; i-- {
		merged = append(merged, partition[i])
	}
	return merged
}
