// placement_preview 在终端中预览某个地点的一次程序化放置
//
// 用法：
//
//	go run ./cmd/placement_preview --location forest --seed 7
//
// 按 r 换一个种子重新生成，q 或 Esc 退出。--print 直接把结果打印到标准输出。
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/gonewx/hearthvale/pkg/catalog"
	"github.com/gonewx/hearthvale/pkg/embedded"
	"github.com/gonewx/hearthvale/pkg/gamedata"
	"github.com/gonewx/hearthvale/pkg/placement"
	"github.com/gonewx/hearthvale/pkg/types"
	"github.com/gonewx/hearthvale/pkg/world"
)

var (
	dataDir  = flag.String("data", ".", "data/ 目录所在的目录")
	location = flag.String("location", "farm", "地点 ID")
	seed     = flag.Int64("seed", 1, "随机种子")
	printOut = flag.Bool("print", false, "不打开终端界面，直接打印结果")
)

// cell 预览网格中的一个字符
type cell struct {
	r     rune
	color string // #RRGGBB，空为默认颜色
}

// preview 一次生成的结果
type preview struct {
	grid    [][]cell
	summary []string
}

func main() {
	flag.Parse()

	embedded.Init(os.DirFS(*dataDir))
	bundle, err := gamedata.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load data: %v\n", err)
		os.Exit(1)
	}
	tm, ok := bundle.Locations.TileMap(*location)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown location %q, known: %s\n", *location, strings.Join(bundle.Locations.IDs(), ", "))
		os.Exit(1)
	}

	if *printOut {
		p := generate(bundle, tm, *seed)
		for _, row := range p.grid {
			var sb strings.Builder
			for _, c := range row {
				sb.WriteRune(c.r)
			}
			fmt.Println(sb.String())
		}
		for _, line := range p.summary {
			fmt.Println(line)
		}
		return
	}

	if err := run(bundle, tm, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(bundle *gamedata.Bundle, tm *world.TileMap, seed int64) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	p := generate(bundle, tm, seed)
	for {
		draw(screen, p, fmt.Sprintf("%s  seed %d  [r] regenerate  [q] quit", tm.Name(), seed))
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
				return nil
			}
			if ev.Rune() == 'r' {
				seed++
				p = generate(bundle, tm, seed)
			}
		}
	}
}

func draw(screen tcell.Screen, p preview, title string) {
	screen.Clear()
	drawText(screen, 0, 0, title, tcell.StyleDefault.Bold(true))
	for y, row := range p.grid {
		for x, c := range row {
			style := tcell.StyleDefault
			if c.color != "" {
				style = style.Foreground(tcell.GetColor(c.color))
			}
			screen.SetContent(x, y+2, c.r, nil, style)
		}
	}
	for i, line := range p.summary {
		drawText(screen, 0, len(p.grid)+3+i, line, tcell.StyleDefault)
	}
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

// generate 按放置配置为每个生成配置跑一遍生成器
//
// 锚定的生成配置以地图中心为锚点，和玩家刚进入地点时一致。
func generate(bundle *gamedata.Bundle, tm *world.TileMap, seed int64) preview {
	rng := rand.New(rand.NewSource(seed))
	b := tm.Bounds()
	center := types.Vec2{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}

	var all []types.PlacedEntitySnapshot
	var summary []string
	for _, profile := range bundle.Placement.Profiles {
		constraints, ok := bundle.Placement.ConstraintsFor(tm.ID(), profile.Name)
		if !ok || constraints.TargetCount == 0 {
			continue
		}
		req := placement.Request{
			LocationID:  tm.ID(),
			Constraints: constraints,
			Query:       tm,
			Rand:        rng,
			Occupied:    all,
		}
		if profile.Anchored {
			req.Anchor = &center
		}
		out, err := placement.GenerateAll(req)
		if err != nil {
			summary = append(summary, fmt.Sprintf("%-8s error: %v", profile.Name, err))
			continue
		}
		summary = append(summary, fmt.Sprintf("%-8s %d/%d placed", profile.Name, len(out), constraints.TargetCount))
		all = append(all, out...)
	}

	return preview{grid: renderGrid(tm, all, bundle.Catalog), summary: summary}
}

// renderGrid 把地块和放置结果合成为字符网格
func renderGrid(tm *world.TileMap, placed []types.PlacedEntitySnapshot, cat *catalog.Catalog) [][]cell {
	grid := make([][]cell, tm.Rows())
	for y := range grid {
		grid[y] = make([]cell, tm.Cols())
		for x := range grid[y] {
			grid[y][x] = cell{r: tm.Tile(types.GridCell{X: x, Y: y}), color: "#5a5a5a"}
		}
	}
	for _, o := range tm.Obstacles() {
		c := tm.CellAt(o.Center)
		if c.Y >= 0 && c.Y < len(grid) && c.X >= 0 && c.X < len(grid[c.Y]) {
			grid[c.Y][c.X] = cell{r: 'O', color: "#2e7d32"}
		}
	}
	for _, snap := range placed {
		c := snap.GridCell
		if c.Y < 0 || c.Y >= len(grid) || c.X < 0 || c.X >= len(grid[c.Y]) {
			continue
		}
		glyph, clr := '?', ""
		if arch, ok := cat.Resolve(snap.ArchetypeKey); ok {
			if rs := []rune(arch.Glyph); len(rs) > 0 {
				glyph = rs[0]
			}
			clr = arch.Color
		}
		grid[c.Y][c.X] = cell{r: glyph, color: clr}
	}
	return grid
}
