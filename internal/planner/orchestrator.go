package planner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ════════════════════════════════════════════════════════════
// 逐门课程的选课对话状态机
// ════════════════════════════════════════════════════════════
//
// idle → welcome → fetching_sections → awaiting_primary
//      → [awaiting_waitlist_confirmation] → awaiting_backup_1
//      → awaiting_backup_2 → saving → course_complete
//      → (下一门课程 fetching_sections) … → session_complete
//
// 旁路：no_valid_sections（需用户显式选择）、error（可重试）、cancelled。
//
// 同一实例的调用必须串行；并发保护由持有方（SessionService）负责。

// SectionFetcher 按学期拉取课程班级
type SectionFetcher interface {
	FetchSections(ctx context.Context, universityID int, termName string, courseCodes []string) ([]CourseSection, error)
}

// SelectionPersister 保存一门课程的主选 + 备选
type SelectionPersister interface {
	SaveSelection(ctx context.Context, in SelectionInput) (SelectionResult, error)
}

// Config 列表展示数量
type Config struct {
	PrimaryListSize int
	BackupListSize  int
}

// DefaultConfig 主选展示 5 个，备选展示 3 个
func DefaultConfig() Config {
	return Config{PrimaryListSize: 5, BackupListSize: 3}
}

// ── 阶段（sum type）──

// Phase 阶段名称
type Phase string

const (
	PhaseIdle                         Phase = "idle"
	PhaseWelcome                      Phase = "welcome"
	PhaseFetchingSections             Phase = "fetching_sections"
	PhaseAwaitingPrimary              Phase = "awaiting_primary"
	PhaseAwaitingWaitlistConfirmation Phase = "awaiting_waitlist_confirmation"
	PhaseAwaitingBackup1              Phase = "awaiting_backup_1"
	PhaseAwaitingBackup2              Phase = "awaiting_backup_2"
	PhaseSaving                       Phase = "saving"
	PhaseCourseComplete               Phase = "course_complete"
	PhaseNoValidSections              Phase = "no_valid_sections"
	PhaseError                        Phase = "error"
	PhaseSessionComplete              Phase = "session_complete"
	PhaseCancelled                    Phase = "cancelled"
)

type phase interface {
	phaseName() Phase
}

// courseWork 当前课程的候选与已选结果
type courseWork struct {
	code       string
	title      string
	ranked     []RankedSection
	primary    *RankedSection
	backup1    *RankedSection
	backup2    *RankedSection
	waitlisted bool
}

// remaining 排除已选为主选 / 备选 1 的候选
func (w *courseWork) remaining() []RankedSection {
	out := make([]RankedSection, 0, len(w.ranked))
	for _, r := range w.ranked {
		id := r.Section.OfferingID
		if w.primary != nil && w.primary.Section.OfferingID == id {
			continue
		}
		if w.backup1 != nil && w.backup1.Section.OfferingID == id {
			continue
		}
		out = append(out, r)
	}
	return out
}

type (
	idlePhase            struct{}
	welcomePhase         struct{}
	fetchingPhase        struct{ code string }
	awaitingPrimaryPhase struct{ work *courseWork }
	waitlistConfirmPhase struct {
		work   *courseWork
		choice RankedSection
	}
	awaitingBackup1Phase struct{ work *courseWork }
	awaitingBackup2Phase struct{ work *courseWork }
	savingPhase          struct{ work *courseWork }
	courseCompletePhase  struct{}
	noValidSectionsPhase struct {
		code    string
		checked int
	}
	errorPhase struct {
		op    Operation
		work  *courseWork // 仅保存失败时非空
		cause error
	}
	sessionCompletePhase struct{}
	cancelledPhase       struct{}
)

func (idlePhase) phaseName() Phase            { return PhaseIdle }
func (welcomePhase) phaseName() Phase         { return PhaseWelcome }
func (fetchingPhase) phaseName() Phase        { return PhaseFetchingSections }
func (awaitingPrimaryPhase) phaseName() Phase { return PhaseAwaitingPrimary }
func (waitlistConfirmPhase) phaseName() Phase { return PhaseAwaitingWaitlistConfirmation }
func (awaitingBackup1Phase) phaseName() Phase { return PhaseAwaitingBackup1 }
func (awaitingBackup2Phase) phaseName() Phase { return PhaseAwaitingBackup2 }
func (savingPhase) phaseName() Phase          { return PhaseSaving }
func (courseCompletePhase) phaseName() Phase  { return PhaseCourseComplete }
func (noValidSectionsPhase) phaseName() Phase { return PhaseNoValidSections }
func (errorPhase) phaseName() Phase           { return PhaseError }
func (sessionCompletePhase) phaseName() Phase { return PhaseSessionComplete }
func (cancelledPhase) phaseName() Phase       { return PhaseCancelled }

// ── 用户输入 ──

// Input 自由文本，或点击卡片 / 按钮产生的结构化输入
type Input struct {
	Text      string `json:"text,omitempty"`
	SectionID int64  `json:"section_id,omitempty"`
	Action    string `json:"action,omitempty"`
}

// TextInput 便捷构造
func TextInput(text string) Input { return Input{Text: text} }

func (in Input) command() string {
	if in.Action != "" {
		return strings.ToLower(strings.TrimSpace(in.Action))
	}
	return strings.ToLower(strings.TrimSpace(in.Text))
}

var startCommands = map[string]bool{
	"start":     true,
	"let's go":  true,
	"let's go!": true,
	"lets go":   true,
	"yes":       true,
	"begin":     true,
}

var sectionPattern = regexp.MustCompile(`(?i)section\s+#?(\S+)`)

// findSection 按 offering id、"section 002" 或裸班级号匹配候选
func findSection(candidates []RankedSection, in Input) (RankedSection, bool) {
	if in.SectionID != 0 {
		for _, c := range candidates {
			if c.Section.OfferingID == in.SectionID {
				return c, true
			}
		}
		return RankedSection{}, false
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return RankedSection{}, false
	}
	label, fromPattern := text, false
	if m := sectionPattern.FindStringSubmatch(text); m != nil {
		label, fromPattern = m[1], true
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Section.SectionLabel, label) {
			return c, true
		}
	}
	// "section 1" 只匹配 "001"，不会误选 "010"
	if fromPattern {
		want := trimLabelZeros(label)
		for _, c := range candidates {
			if strings.EqualFold(trimLabelZeros(c.Section.SectionLabel), want) {
				return c, true
			}
		}
	}
	return RankedSection{}, false
}

func trimLabelZeros(label string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(label), "0")
	if trimmed == "" && label != "" {
		return "0"
	}
	return trimmed
}

// ── Orchestrator ──

// Orchestrator 单个选课会话
type Orchestrator struct {
	input     SessionInput
	fetcher   SectionFetcher
	persister SelectionPersister
	cfg       Config
	logger    *zap.Logger

	phase        phase
	currentIndex int
	completed    []string
	calendar     []CalendarEvent
}

// NewOrchestrator 创建会话；偏好非法时直接返回错误
func NewOrchestrator(input SessionInput, fetcher SectionFetcher, persister SelectionPersister, cfg Config, logger *zap.Logger) (*Orchestrator, error) {
	if err := input.Preferences.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil || persister == nil {
		return nil, errors.New("planner: fetcher 与 persister 不能为空")
	}
	if cfg.PrimaryListSize <= 0 {
		cfg.PrimaryListSize = DefaultConfig().PrimaryListSize
	}
	if cfg.BackupListSize <= 0 {
		cfg.BackupListSize = DefaultConfig().BackupListSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// 复制切片，避免与调用方共享底层数组
	input.CourseCodes = append([]string(nil), input.CourseCodes...)
	input.InitialEvents = append([]CalendarEvent(nil), input.InitialEvents...)

	o := &Orchestrator{
		input:     input,
		fetcher:   fetcher,
		persister: persister,
		cfg:       cfg,
		logger:    logger.With(zap.String("schedule_id", input.ScheduleID)),
	}
	o.resetState()
	return o, nil
}

func (o *Orchestrator) resetState() {
	o.phase = idlePhase{}
	o.currentIndex = 0
	o.completed = []string{}
	o.calendar = append([]CalendarEvent{}, o.input.InitialEvents...)
}

func (o *Orchestrator) enter(next phase) {
	o.logger.Debug("阶段切换",
		zap.String("from", string(o.phase.phaseName())),
		zap.String("to", string(next.phaseName())),
		zap.Int("course_index", o.currentIndex),
	)
	o.phase = next
}

func (o *Orchestrator) totalCourses() int { return len(o.input.CourseCodes) }

func (o *Orchestrator) currentCode() string {
	if o.currentIndex < o.totalCourses() {
		return o.input.CourseCodes[o.currentIndex]
	}
	return ""
}

// Start idle → welcome
func (o *Orchestrator) Start(ctx context.Context) (Message, error) {
	if _, ok := o.phase.(idlePhase); !ok {
		return Message{}, ErrInvalidPhase
	}
	o.enter(welcomePhase{})
	return welcomeMessage(o.input.TermName, o.input.CourseCodes), nil
}

// ProcessUserInput 按当前阶段分发用户输入。
// 外部协作方失败以可重试消息返回；只有非法数据（调用方缺陷）才返回 error。
func (o *Orchestrator) ProcessUserInput(ctx context.Context, in Input) (Message, error) {
	switch p := o.phase.(type) {
	case idlePhase:
		return o.handleIdle(ctx, in)
	case welcomePhase:
		return o.handleWelcome(ctx, in)
	case awaitingPrimaryPhase:
		return o.handlePrimary(ctx, p, in)
	case waitlistConfirmPhase:
		return o.handleWaitlistConfirm(ctx, p, in)
	case awaitingBackup1Phase:
		return o.handleBackup1(ctx, p, in)
	case awaitingBackup2Phase:
		return o.handleBackup2(ctx, p, in)
	case courseCompletePhase:
		return o.handleCourseComplete(ctx, in)
	case noValidSectionsPhase:
		return o.handleNoValidSections(ctx, p, in)
	case errorPhase:
		return o.handleError(ctx, p, in)
	case sessionCompletePhase:
		return o.handleSessionComplete(ctx, in)
	case cancelledPhase:
		return o.handleCancelled(ctx, in)
	default:
		// fetching / saving 只在单次调用内部出现
		return Message{Text: "Processing...", Prompt: "Please wait"}, nil
	}
}

// SkipCurrentCourse 跳过当前课程：记为 "<code> (skipped)"，不写日历、不保存
func (o *Orchestrator) SkipCurrentCourse(ctx context.Context) (Message, error) {
	switch o.phase.(type) {
	case fetchingPhase, awaitingPrimaryPhase, waitlistConfirmPhase, awaitingBackup1Phase,
		awaitingBackup2Phase, savingPhase, courseCompletePhase, noValidSectionsPhase, errorPhase:
	default:
		return Message{}, ErrNoCurrentCourse
	}
	code := o.currentCode()
	if code == "" {
		return Message{}, ErrNoCurrentCourse
	}

	o.completed = append(o.completed, code+" (skipped)")
	o.currentIndex++
	o.enter(courseCompletePhase{})
	o.logger.Info("跳过课程", zap.String("course_code", code))

	next, err := o.beginCourse(ctx)
	if err != nil {
		return Message{}, err
	}
	return mergeMessages(Message{Text: fmt.Sprintf("⏭️ Skipped **%s**.", code)}, next), nil
}

// Reset 回到构造时的状态；不触发任何拉取
func (o *Orchestrator) Reset() {
	o.resetState()
	o.logger.Info("会话已重置")
}

// CalendarEvents 当前日历（副本）
func (o *Orchestrator) CalendarEvents() []CalendarEvent {
	return append([]CalendarEvent{}, o.calendar...)
}

// ProgressIndicator 由 currentIndex 实时推导
func (o *Orchestrator) ProgressIndicator() string {
	return formatProgress(o.currentIndex, o.totalCourses(), o.currentCode())
}

// State 状态快照
type State struct {
	Phase              Phase           `json:"phase"`
	ScheduleID         string          `json:"schedule_id"`
	TermName           string          `json:"term_name"`
	CurrentCourseIndex int             `json:"current_course_index"`
	TotalCourses       int             `json:"total_courses"`
	CurrentCourse      string          `json:"current_course,omitempty"`
	CoursesCompleted   []string        `json:"courses_completed"`
	CalendarEvents     []CalendarEvent `json:"calendar_events"`
	AvailableSections  []RankedSection `json:"available_sections,omitempty"`
	PrimarySelected    *CourseSection  `json:"primary_selected,omitempty"`
	Backup1Selected    *CourseSection  `json:"backup_1_selected,omitempty"`
	Backup2Selected    *CourseSection  `json:"backup_2_selected,omitempty"`
	IsWaitlisted       bool            `json:"is_waitlisted"`
	LastError          string          `json:"last_error,omitempty"`
}

// State 返回当前状态的副本
func (o *Orchestrator) State() State {
	st := State{
		Phase:              o.phase.phaseName(),
		ScheduleID:         o.input.ScheduleID,
		TermName:           o.input.TermName,
		CurrentCourseIndex: o.currentIndex,
		TotalCourses:       o.totalCourses(),
		CurrentCourse:      o.currentCode(),
		CoursesCompleted:   append([]string{}, o.completed...),
		CalendarEvents:     o.CalendarEvents(),
	}

	var work *courseWork
	switch p := o.phase.(type) {
	case awaitingPrimaryPhase:
		work = p.work
		st.AvailableSections = append([]RankedSection{}, p.work.ranked...)
	case waitlistConfirmPhase:
		work = p.work
		pending := p.choice.Section
		st.PrimarySelected = &pending
	case awaitingBackup1Phase:
		work = p.work
		st.AvailableSections = p.work.remaining()
	case awaitingBackup2Phase:
		work = p.work
		st.AvailableSections = p.work.remaining()
	case savingPhase:
		work = p.work
	case errorPhase:
		work = p.work
		st.LastError = p.cause.Error()
	}
	if work != nil {
		if work.primary != nil {
			s := work.primary.Section
			st.PrimarySelected = &s
		}
		if work.backup1 != nil {
			s := work.backup1.Section
			st.Backup1Selected = &s
		}
		if work.backup2 != nil {
			s := work.backup2.Section
			st.Backup2Selected = &s
		}
		st.IsWaitlisted = work.waitlisted
	}
	return st
}

// ── 各阶段处理 ──

func (o *Orchestrator) handleIdle(ctx context.Context, in Input) (Message, error) {
	if startCommands[in.command()] {
		o.enter(welcomePhase{})
		return o.beginCourse(ctx)
	}
	return o.Start(ctx)
}

func (o *Orchestrator) handleWelcome(ctx context.Context, in Input) (Message, error) {
	cmd := in.command()
	switch {
	case startCommands[cmd]:
		return o.beginCourse(ctx)
	case cmd == "cancel" || cmd == "exit":
		return o.cancel(), nil
	}
	return Message{Text: `Click "Let's go!" to start scheduling your courses.`, Options: welcomeMessage(o.input.TermName, nil).Options}, nil
}

// courseCommand 课程处理阶段的通用指令：skip / exit
func (o *Orchestrator) courseCommand(ctx context.Context, in Input) (Message, bool, error) {
	if in.SectionID != 0 {
		return Message{}, false, nil
	}
	switch in.command() {
	case "skip":
		msg, err := o.SkipCurrentCourse(ctx)
		return msg, true, err
	case "exit", "cancel":
		return o.cancel(), true, nil
	}
	return Message{}, false, nil
}

func (o *Orchestrator) handlePrimary(ctx context.Context, p awaitingPrimaryPhase, in Input) (Message, error) {
	if msg, handled, err := o.courseCommand(ctx, in); handled {
		return msg, err
	}
	choice, ok := findSection(p.work.ranked, in)
	if !ok {
		return Message{Text: "Please select a valid section from the list above.", Prompt: "Which section do you prefer?"}, nil
	}

	if choice.Section.IsWaitlisted() {
		o.enter(waitlistConfirmPhase{work: p.work, choice: choice})
		return waitlistConfirmMessage(choice.Section), nil
	}
	p.work.primary = &choice
	p.work.waitlisted = false
	return o.promptBackup1(ctx, p.work)
}

func (o *Orchestrator) handleWaitlistConfirm(ctx context.Context, p waitlistConfirmPhase, in Input) (Message, error) {
	if msg, handled, err := o.courseCommand(ctx, in); handled {
		return msg, err
	}
	switch in.command() {
	case "yes", "y", "join":
		choice := p.choice
		p.work.primary = &choice
		p.work.waitlisted = true
		return o.promptBackup1(ctx, p.work)
	case "no", "n":
		// 被拒绝的班级仍保留在列表中
		o.enter(awaitingPrimaryPhase{work: p.work})
		return sectionListMessage(p.work.code, p.work.title, p.work.ranked, o.cfg.PrimaryListSize), nil
	}
	return waitlistConfirmMessage(p.choice.Section), nil
}

func (o *Orchestrator) promptBackup1(ctx context.Context, work *courseWork) (Message, error) {
	work.backup1, work.backup2 = nil, nil
	remaining := work.remaining()
	if len(remaining) == 0 {
		msg, err := o.save(ctx, work)
		if err != nil {
			return Message{}, err
		}
		return mergeMessages(Message{Text: "No other sections are available, so no backups were recorded."}, msg), nil
	}
	o.enter(awaitingBackup1Phase{work: work})
	return backupRequestMessage(1, remaining, o.cfg.BackupListSize), nil
}

func (o *Orchestrator) handleBackup1(ctx context.Context, p awaitingBackup1Phase, in Input) (Message, error) {
	if msg, handled, err := o.courseCommand(ctx, in); handled {
		return msg, err
	}
	choice, ok := findSection(p.work.remaining(), in)
	if !ok {
		return Message{Text: "Please select a valid backup section.", Prompt: "Select backup #1:"}, nil
	}
	p.work.backup1 = &choice

	remaining := p.work.remaining()
	if len(remaining) == 0 {
		msg, err := o.save(ctx, p.work)
		if err != nil {
			return Message{}, err
		}
		return mergeMessages(Message{Text: "No more sections are available, so backup #2 was left empty."}, msg), nil
	}
	o.enter(awaitingBackup2Phase{work: p.work})
	return backupRequestMessage(2, remaining, o.cfg.BackupListSize), nil
}

func (o *Orchestrator) handleBackup2(ctx context.Context, p awaitingBackup2Phase, in Input) (Message, error) {
	if msg, handled, err := o.courseCommand(ctx, in); handled {
		return msg, err
	}
	choice, ok := findSection(p.work.remaining(), in)
	if !ok {
		return Message{Text: "Please select a valid backup section.", Prompt: "Select backup #2:"}, nil
	}
	p.work.backup2 = &choice
	return o.save(ctx, p.work)
}

func (o *Orchestrator) handleCourseComplete(ctx context.Context, in Input) (Message, error) {
	if msg, handled, err := o.courseCommand(ctx, in); handled {
		return msg, err
	}
	return o.beginCourse(ctx)
}

func (o *Orchestrator) handleNoValidSections(ctx context.Context, p noValidSectionsPhase, in Input) (Message, error) {
	if msg, handled, err := o.courseCommand(ctx, in); handled {
		return msg, err
	}
	switch in.command() {
	case "different_course":
		return differentCourseMessage(p.code), nil
	case "retry":
		return o.beginCourse(ctx)
	}
	if p.checked == 0 {
		return noSectionsFoundMessage(p.code, o.input.TermName), nil
	}
	return noValidSectionsMessage(p.code), nil
}

func (o *Orchestrator) handleError(ctx context.Context, p errorPhase, in Input) (Message, error) {
	if msg, handled, err := o.courseCommand(ctx, in); handled {
		return msg, err
	}
	if in.command() != "retry" {
		return errorMessage(p.cause), nil
	}
	if p.op == OpSaveSelection && p.work != nil {
		return o.save(ctx, p.work)
	}
	return o.beginCourse(ctx)
}

func (o *Orchestrator) handleSessionComplete(ctx context.Context, in Input) (Message, error) {
	switch in.command() {
	case "view_calendar":
		events := o.CalendarEvents()
		return Message{
			Text:           fmt.Sprintf("📅 Your weekly calendar has %d events.", len(events)),
			CalendarUpdate: events,
		}, nil
	case "start_over":
		o.Reset()
		return o.Start(ctx)
	}
	return sessionCompleteMessage(o.completed), nil
}

func (o *Orchestrator) handleCancelled(ctx context.Context, in Input) (Message, error) {
	if in.command() == "start_over" {
		o.Reset()
		return o.Start(ctx)
	}
	return cancelledMessage(), nil
}

func (o *Orchestrator) cancel() Message {
	o.enter(cancelledPhase{})
	o.logger.Info("会话已取消", zap.Int("course_index", o.currentIndex))
	return cancelledMessage()
}

// ── 拉取 / 保存 ──

// beginCourse 拉取当前课程的班级 → 冲突过滤 → 排序。
// 非法数据导致的错误直接返回，阶段恢复到调用前。
func (o *Orchestrator) beginCourse(ctx context.Context) (Message, error) {
	if o.currentIndex >= o.totalCourses() {
		o.enter(sessionCompletePhase{})
		return sessionCompleteMessage(o.completed), nil
	}

	prev := o.phase
	code := o.currentCode()
	o.enter(fetchingPhase{code: code})

	sections, err := o.fetcher.FetchSections(ctx, o.input.UniversityID, o.input.TermName, []string{code})
	if err != nil {
		cerr := &CollaboratorError{Op: OpFetchSections, CourseCode: code, Err: err}
		o.logger.Error("拉取班级失败", zap.String("course_code", code), zap.Error(err))
		o.enter(errorPhase{op: OpFetchSections, cause: cerr})
		return errorMessage(cerr), nil
	}
	if len(sections) == 0 {
		o.enter(noValidSectionsPhase{code: code})
		return noSectionsFoundMessage(code, o.input.TermName), nil
	}

	valid := make([]CourseSection, 0, len(sections))
	for _, s := range sections {
		check, err := CheckSectionConflicts(s, o.calendar, o.input.Preferences)
		if err != nil {
			o.phase = prev
			return Message{}, err
		}
		if !check.HasConflict {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		nerr := &NoValidSectionsError{CourseCode: code, Checked: len(sections)}
		o.logger.Warn("无可用班级", zap.Error(nerr))
		o.enter(noValidSectionsPhase{code: code, checked: len(sections)})
		return noValidSectionsMessage(code), nil
	}

	ranked, err := RankSections(valid, o.input.Preferences)
	if err != nil {
		o.phase = prev
		return Message{}, err
	}

	work := &courseWork{code: code, title: sections[0].Title, ranked: ranked}
	o.enter(awaitingPrimaryPhase{work: work})
	return sectionListMessage(code, work.title, ranked, o.cfg.PrimaryListSize), nil
}

func offeringIDOf(r *RankedSection) *int64 {
	if r == nil {
		return nil
	}
	id := r.Section.OfferingID
	return &id
}

// save 写入选课；失败时停留在 error 阶段，进度不前进
func (o *Orchestrator) save(ctx context.Context, work *courseWork) (Message, error) {
	if work.primary == nil {
		return Message{}, ErrNoCurrentCourse
	}
	o.enter(savingPhase{work: work})

	in := SelectionInput{
		StudentID:         o.input.StudentID,
		ScheduleID:        o.input.ScheduleID,
		CourseCode:        work.code,
		PrimaryOfferingID: work.primary.Section.OfferingID,
		Backup1OfferingID: offeringIDOf(work.backup1),
		Backup2OfferingID: offeringIDOf(work.backup2),
		IsWaitlisted:      work.waitlisted,
	}
	res, err := o.persister.SaveSelection(ctx, in)
	if err == nil && !res.Success {
		reason := res.Error
		if reason == "" {
			reason = "failed to save selection"
		}
		err = errors.New(reason)
	}
	if err != nil {
		cerr := &CollaboratorError{Op: OpSaveSelection, CourseCode: work.code, Err: err}
		o.logger.Error("保存选课失败", zap.String("course_code", work.code), zap.Error(err))
		o.enter(errorPhase{op: OpSaveSelection, work: work, cause: cerr})
		return errorMessage(cerr), nil
	}

	added := o.addCourseEvents(work)
	o.completed = append(o.completed, work.code)
	o.currentIndex++
	o.logger.Info("选课已保存",
		zap.String("course_code", work.code),
		zap.String("selection_id", res.SelectionID),
		zap.String("status", string(in.Status())),
	)

	msg := courseCompleteMessage(work.code, work.primary.Section.SectionLabel, len(o.completed), o.totalCourses())
	msg.CalendarUpdate = added
	if o.currentIndex >= o.totalCourses() {
		o.enter(sessionCompletePhase{})
		return mergeMessages(msg, sessionCompleteMessage(o.completed)), nil
	}
	o.enter(courseCompletePhase{})
	return msg, nil
}

// addCourseEvents 主选班级的每个上课日生成一条 Course 事件
func (o *Orchestrator) addCourseEvents(work *courseWork) []CalendarEvent {
	sec := work.primary.Section
	added := make([]CalendarEvent, 0)
	for _, m := range sec.Meetings {
		for _, day := range m.DaysOfWeek {
			added = append(added, CalendarEvent{
				ID:           uuid.NewString(),
				Title:        fmt.Sprintf("%s (%s)", work.code, sec.SectionLabel),
				DayOfWeek:    day,
				StartTime:    m.StartTime,
				EndTime:      m.EndTime,
				Location:     m.Location,
				Category:     CategoryCourse,
				CourseCode:   work.code,
				SectionLabel: sec.SectionLabel,
				Instructor:   sec.Instructor,
				OfferingID:   sec.OfferingID,
			})
		}
	}
	o.calendar = append(o.calendar, added...)
	return added
}
