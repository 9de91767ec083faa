package systems

// TaskState 协作任务状态
type TaskState int

const (
	TaskPending    TaskState = iota // 已创建，尚未推进
	TaskGenerating                  // 正在逐步生成
	TaskCommitted                   // 正常完成（包括提前停止的部分结果）
	TaskCancelled                   // 地点代数变化，停止且不再物化
	TaskAborted                     // 配置缺失，未物化任何实体
)

// String 返回状态名（用于日志）
func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "Pending"
	case TaskGenerating:
		return "Generating"
	case TaskCommitted:
		return "Committed"
	case TaskCancelled:
		return "Cancelled"
	case TaskAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Terminal 是否为终态
func (s TaskState) Terminal() bool {
	return s == TaskCommitted || s == TaskCancelled || s == TaskAborted
}

// CooperativeTask 可被调度器逐步推进的任务
//
// Step 执行一小步后立即返回；两次 Step 之间即为挂起点。
type CooperativeTask interface {
	Step() TaskState
	State() TaskState
}

type scheduledTask struct {
	task CooperativeTask
	wait float64 // 距离下一步的剩余等待时间（秒）
}

// TaskScheduler 单线程协作调度器
//
// 由游戏主循环每帧调用 Update。每个任务在等待时间耗尽后推进一步，
// 推进后重新等待 stagger 秒；stagger 为 0 时每次 Update 推进一步。
// 到达终态的任务在同一次 Update 中移出队列。
type TaskScheduler struct {
	stagger float64
	tasks   []*scheduledTask
}

// NewTaskScheduler 创建调度器
//
// 参数：
//   - staggerSeconds: 相邻两步之间的等待时间，负数按 0 处理
func NewTaskScheduler(staggerSeconds float64) *TaskScheduler {
	if staggerSeconds < 0 {
		staggerSeconds = 0
	}
	return &TaskScheduler{stagger: staggerSeconds}
}

// Stagger 返回步间等待时间
func (s *TaskScheduler) Stagger() float64 {
	return s.stagger
}

// Add 加入任务，第一步在下一次 Update 时执行
func (s *TaskScheduler) Add(task CooperativeTask) {
	if task == nil || task.State().Terminal() {
		return
	}
	s.tasks = append(s.tasks, &scheduledTask{task: task})
}

// Update 推进所有到期的任务
func (s *TaskScheduler) Update(deltaTime float64) {
	if len(s.tasks) == 0 {
		return
	}

	remaining := s.tasks[:0]
	for _, st := range s.tasks {
		st.wait -= deltaTime
		if st.wait <= 0 {
			st.task.Step()
			st.wait = s.stagger
		}
		if !st.task.State().Terminal() {
			remaining = append(remaining, st)
		}
	}
	// 清掉尾部引用
	for i := len(remaining); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = remaining
}

// Drain 不等待地推进指定任务直到终态，并将其移出队列
//
// 返回任务的最终状态。
func (s *TaskScheduler) Drain(task CooperativeTask) TaskState {
	state := task.State()
	for !state.Terminal() {
		state = task.Step()
	}
	s.remove(task)
	return state
}

// Pending 返回队列中尚未结束的任务数
func (s *TaskScheduler) Pending() int {
	return len(s.tasks)
}

func (s *TaskScheduler) remove(task CooperativeTask) {
	for i, st := range s.tasks {
		if st.task == task {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}
