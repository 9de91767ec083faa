// inspect_save 打印存档槽位的概要和各地点的快照数量
//
// 用法：
//
//	go run ./cmd/inspect_save --dir saves --slot slot1
//	go run ./cmd/inspect_save --dir saves --slot slot1 --location farm
//
// 不指定 --dir 时读取 gdata 用户数据目录；不指定 --slot 时列出目录中的所有槽位。
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gonewx/hearthvale/pkg/game"
)

func main() {
	var (
		dir      = flag.String("dir", "", "存档目录（文件存储）")
		slot     = flag.String("slot", "", "槽位名")
		location = flag.String("location", "", "同时列出该地点的每个快照")
	)
	flag.Parse()

	var storage game.SlotStorage
	if *dir != "" {
		fs, err := game.NewFileStorage(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *dir, err)
			os.Exit(1)
		}
		if *slot == "" {
			slots, err := fs.Slots()
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to list slots: %v\n", err)
				os.Exit(1)
			}
			for _, s := range slots {
				report(os.Stdout, fs, s, "")
			}
			return
		}
		storage = fs
	} else {
		gs, err := game.OpenGdataStorage("hearthvale")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open gdata storage: %v\n", err)
			os.Exit(1)
		}
		storage = gs
	}

	if *slot == "" {
		fmt.Fprintln(os.Stderr, "--slot is required without --dir")
		os.Exit(1)
	}
	if !report(os.Stdout, storage, *slot, *location) {
		os.Exit(1)
	}
}

// report 打印一个槽位，槽位为空或损坏时返回 false
func report(w io.Writer, storage game.SlotStorage, slot, location string) bool {
	store := game.NewPersistenceStore(storage, slot, nil)
	info, ok := store.Info()
	if !ok {
		fmt.Fprintf(w, "%s: empty\n", slot)
		return false
	}

	fmt.Fprintf(w, "%s: %q saved %s, played %s, at %s (session %s)\n",
		info.Slot, info.Label, info.LastSave.Local().Format(time.DateTime),
		time.Duration(info.PlayTimeSeconds*float64(time.Second)).Round(time.Second),
		info.CurrentLocation, info.SessionID)

	record, _ := store.Load()
	for _, loc := range record.Locations() {
		fmt.Fprintf(w, "  %-12s %d\n", loc, info.LocationCounts[loc])
	}

	if location != "" {
		for _, snap := range record.SnapshotsFor(location) {
			fmt.Fprintf(w, "    %-14s (%d,%d) at %.2f,%.2f\n",
				snap.ArchetypeKey, snap.GridCell.X, snap.GridCell.Y, snap.Position.X, snap.Position.Y)
		}
	}
	return true
}
