package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gonewx/hearthvale/pkg/app"
	"github.com/gonewx/hearthvale/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	// 命令行参数
	verbose   = flag.Bool("verbose", false, "显示详细日志")
	slot      = flag.String("slot", "", "存档槽位名（默认为上次使用的槽位）")
	location  = flag.String("location", "", "起始地点（覆盖存档中的地点）")
	fileSaves = flag.String("file-saves", "", "把存档写到此目录（默认使用用户数据目录）")
	newGame   = flag.Bool("new", false, "忽略现有存档，开始新游戏")
)

func main() {
	flag.Parse()

	embedded.Init(dataFS)

	gameApp, err := app.NewApp(app.Config{
		Verbose:   *verbose,
		Slot:      *slot,
		Location:  *location,
		FileSaves: *fileSaves,
		NewGame:   *newGame,
	})
	if err != nil {
		// 非 verbose 模式下 log 输出已被丢弃
		fmt.Fprintf(os.Stderr, "游戏初始化失败: %v\n", err)
		os.Exit(1)
	}

	ebiten.SetWindowSize(app.ScreenWidth, app.ScreenHeight)
	ebiten.SetWindowTitle("Hearthvale")
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(gameApp); err != nil && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := gameApp.Close(); err != nil {
		log.Printf("[Main] Warning: save on exit failed: %v", err)
	}
}
