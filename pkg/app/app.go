// Package app 提供演示程序的 ebiten 包装器
//
// 该包把初始化逻辑从 main 包提取出来：加载数据、选择存档后端、
// 创建 Controller，并把键盘输入翻译成 Controller 调用。
package app

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/gonewx/hearthvale/pkg/game"
	"github.com/gonewx/hearthvale/pkg/gamedata"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

const (
	// ScreenWidth 逻辑屏幕宽度
	ScreenWidth = 960
	// ScreenHeight 逻辑屏幕高度
	ScreenHeight = 600
	// gdataAppName gdata 存档目录名
	gdataAppName = "hearthvale"
)

// ErrQuit 窗口关闭时由 Update 返回，用于正常结束游戏循环
var ErrQuit = errors.New("quit")

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Slot 存档槽位名
	Slot string
	// Location 指定起始地点，为空则从存档或新游戏配置决定
	Location string
	// FileSaves 非空时把存档写到该目录，而不是 gdata 目录
	FileSaves string
	// NewGame 忽略现有存档
	NewGame bool
}

// App 实现 ebiten.Game 接口
type App struct {
	ctrl     *Controller
	bundle   *gamedata.Bundle
	settings *game.SettingsManager
	verbose  bool
}

// NewApp 创建并初始化应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化数据文件系统。
func NewApp(cfg Config) (*App, error) {
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	bundle, err := gamedata.Load()
	if err != nil {
		return nil, fmt.Errorf("游戏数据加载失败: %w", err)
	}

	manager, err := gdata.Open(gdata.Config{AppName: gdataAppName})
	if err != nil {
		log.Printf("[App] Warning: gdata unavailable, settings and saves will not survive restart: %v", err)
		manager = nil
	}
	settings := game.NewSettingsManager(manager)

	storage, err := openStorage(cfg.FileSaves, manager)
	if err != nil {
		return nil, err
	}

	slot := cfg.Slot
	if slot == "" {
		slot = settings.Settings().LastSlot
	}
	ctrl, err := NewController(bundle, storage, slot, cfg.NewGame)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Start(cfg.Location); err != nil {
		return nil, fmt.Errorf("无法进入起始地点: %w", err)
	}

	settings.Settings().LastSlot = slot
	if err := settings.Save(); err != nil {
		log.Printf("[App] Warning: %v", err)
	}
	ebiten.SetFullscreen(settings.Settings().Fullscreen)

	return &App{ctrl: ctrl, bundle: bundle, settings: settings, verbose: cfg.Verbose}, nil
}

// openStorage 选择存档后端；gdata 不可用时降级为内存存储
func openStorage(fileDir string, manager *gdata.Manager) (game.SlotStorage, error) {
	if fileDir != "" {
		storage, err := game.NewFileStorage(fileDir)
		if err != nil {
			return nil, fmt.Errorf("存档目录不可用: %w", err)
		}
		log.Printf("[App] Using file saves in %s", fileDir)
		return storage, nil
	}
	if manager == nil {
		return game.NewMemoryStorage(), nil
	}
	return game.NewGdataStorage(manager)
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ErrQuit
	}
	deltaTime := 1.0 / 60.0

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		full := !ebiten.IsFullscreen()
		ebiten.SetFullscreen(full)
		a.settings.Settings().Fullscreen = full
		a.saveSettings()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		a.settings.Settings().ShowHelp = !a.settings.Settings().ShowHelp
		a.saveSettings()
	}

	dx, dy := 0.0, 0.0
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		dx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		dx++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		dy--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		dy++
	}
	a.ctrl.MovePlayer(dx, dy, deltaTime)

	// 数字键前往对应地点
	ids := a.bundle.Locations.IDs()
	for i := 0; i < len(ids) && i < 9; i++ {
		if inpututil.IsKeyJustPressed(ebiten.Key1 + ebiten.Key(i)) {
			if err := a.ctrl.Travel(ids[i]); err != nil {
				log.Printf("[App] Warning: travel to %s failed: %v", ids[i], err)
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		a.ctrl.Harvest()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if err := a.ctrl.PlaceSelected(); err != nil {
			log.Printf("[App] Place failed: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		s := a.ctrl.Session()
		if n := len(s.Inventory); n > 0 {
			a.ctrl.SelectSlot((s.SelectedItemIndex + 1) % n)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := a.ctrl.Save(); err != nil {
			log.Printf("[App] Warning: %v", err)
		}
	}

	a.ctrl.Update(deltaTime)
	return nil
}

// Draw 绘制游戏画面
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 24, G: 28, B: 24, A: 255})
	a.drawLocation(screen)
	a.drawHUD(screen)
}

// Layout 返回游戏的逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

// Close 退出前保存
func (a *App) Close() error {
	return a.ctrl.Save()
}

func (a *App) saveSettings() {
	if err := a.settings.Save(); err != nil {
		log.Printf("[App] Warning: %v", err)
	}
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
