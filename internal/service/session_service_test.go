package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"course-scheduler/config"
	"course-scheduler/internal/dto"
	"course-scheduler/internal/planner"
)

// ── 测试替身 ──

type stubFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *stubFetcher) FetchSections(_ context.Context, _ int, term string, codes []string) ([]planner.CourseSection, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	var out []planner.CourseSection
	for _, code := range codes {
		for i, days := range []string{"MWF", "TTh", "MW"} {
			out = append(out, planner.CourseSection{
				OfferingID:     int64(100*len(code) + i + 1),
				CourseCode:     code,
				SectionLabel:   "00" + string(rune('1'+i)),
				Title:          code,
				SeatsAvailable: 10,
				SeatsCapacity:  30,
				TermName:       term,
				Meetings: []planner.ParsedMeeting{{
					Days:       days,
					DaysOfWeek: planner.ParseDaysString(days),
					StartTime:  "09:00",
					EndTime:    "09:50",
				}},
			})
		}
	}
	return out, nil
}

type stubPersister struct {
	mu    sync.Mutex
	saved []planner.SelectionInput
}

func (p *stubPersister) SaveSelection(_ context.Context, in planner.SelectionInput) (planner.SelectionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, in)
	return planner.SelectionResult{Success: true, SelectionID: "sel"}, nil
}

func setupTestSessionService() (*sessionService, *stubFetcher, *stubPersister) {
	cfg := &config.SchedulerConfig{
		MinTransitionMinutes: 10,
		PrimaryListSize:      5,
		BackupListSize:       3,
		SessionIdleTTL:       time.Hour,
		Timezone:             "UTC",
	}
	fetcher := &stubFetcher{}
	persister := &stubPersister{}
	svc := NewSessionService(cfg, fetcher, persister, zap.NewNop()).(*sessionService)
	return svc, fetcher, persister
}

var (
	alice = Owner{StudentID: 1, UniversityID: 1}
	bob   = Owner{StudentID: 2, UniversityID: 1}
)

func newCreateRequest() *dto.CreateSessionRequest {
	return &dto.CreateSessionRequest{
		ScheduleID:  "sched-1",
		TermName:    "Fall 2026",
		CourseCodes: []string{"CS 450", " MATH 215 ", "CS 450"},
		Preferences: planner.Preferences{AllowWaitlist: true},
		InitialEvents: []dto.CalendarEventRequest{
			{Title: "Work", DayOfWeek: 2, StartTime: "5 PM", EndTime: "9:00 PM", Category: "Work"},
		},
	}
}

// ════════════════════════════════════════════════════════════
// Create 测试
// ════════════════════════════════════════════════════════════

func TestSessionService_Create_Success(t *testing.T) {
	svc, fetcher, _ := setupTestSessionService()

	resp, err := svc.Create(context.Background(), alice, newCreateRequest())
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.SessionID == "" || resp.Message == nil {
		t.Fatalf("应返回会话 ID 与欢迎消息: %+v", resp)
	}
	if resp.State.Phase != planner.PhaseWelcome {
		t.Errorf("期望 welcome 阶段，实际 %s", resp.State.Phase)
	}
	if resp.State.TotalCourses != 2 {
		t.Errorf("课程代码应去重去空白，实际 %d 门", resp.State.TotalCourses)
	}
	ev := resp.State.CalendarEvents
	if len(ev) != 1 || ev[0].StartTime != "17:00" || ev[0].EndTime != "21:00" || ev[0].ID == "" {
		t.Errorf("个人事件应规范化时间并生成 ID: %+v", ev)
	}
	if fetcher.calls != 0 {
		t.Error("创建会话不应拉取班级")
	}
}

func TestSessionService_Create_InvalidEvent(t *testing.T) {
	svc, _, _ := setupTestSessionService()

	req := newCreateRequest()
	req.InitialEvents[0].EndTime = "4 PM"
	if _, err := svc.Create(context.Background(), alice, req); !errors.Is(err, ErrInvalidCalendarEvent) {
		t.Errorf("结束早于开始期望 ErrInvalidCalendarEvent，实际: %v", err)
	}

	req = newCreateRequest()
	req.InitialEvents[0].StartTime = "noon"
	if _, err := svc.Create(context.Background(), alice, req); !errors.Is(err, ErrInvalidCalendarEvent) {
		t.Errorf("非法时间期望 ErrInvalidCalendarEvent，实际: %v", err)
	}
}

func TestSessionService_Create_InvalidPreferences(t *testing.T) {
	svc, _, _ := setupTestSessionService()

	req := newCreateRequest()
	req.Preferences.EarliestClassTime = "18:00"
	req.Preferences.LatestClassTime = "08:00"
	if _, err := svc.Create(context.Background(), alice, req); !errors.Is(err, planner.ErrInvalidPreference) {
		t.Errorf("期望 ErrInvalidPreference，实际: %v", err)
	}
	if len(svc.sessions) != 0 {
		t.Error("失败时不应注册会话")
	}
}

// ════════════════════════════════════════════════════════════
// Input / Skip / Reset 测试
// ════════════════════════════════════════════════════════════

func TestSessionService_Input_Flow(t *testing.T) {
	svc, _, persister := setupTestSessionService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, alice, newCreateRequest())
	id := created.SessionID

	resp, err := svc.Input(ctx, alice, id, &dto.SessionInputRequest{Text: "start"})
	if err != nil {
		t.Fatalf("Input 应成功: %v", err)
	}
	if resp.State.Phase != planner.PhaseAwaitingPrimary || len(resp.Message.SectionCards) == 0 {
		t.Fatalf("应展示班级列表: %s", resp.State.Phase)
	}

	first := resp.Message.SectionCards[0].Section.OfferingID
	resp, _ = svc.Input(ctx, alice, id, &dto.SessionInputRequest{SectionID: first})
	second := resp.Message.SectionCards[0].Section.OfferingID
	resp, _ = svc.Input(ctx, alice, id, &dto.SessionInputRequest{SectionID: second})
	third := resp.Message.SectionCards[0].Section.OfferingID
	resp, err = svc.Input(ctx, alice, id, &dto.SessionInputRequest{SectionID: third})
	if err != nil {
		t.Fatalf("选择备选 2 应成功: %v", err)
	}
	if resp.State.Phase != planner.PhaseCourseComplete {
		t.Errorf("期望 course_complete，实际 %s", resp.State.Phase)
	}
	if len(persister.saved) != 1 || persister.saved[0].PrimaryOfferingID != first {
		t.Errorf("保存结果错误: %+v", persister.saved)
	}
}

func TestSessionService_Input_Empty(t *testing.T) {
	svc, _, _ := setupTestSessionService()
	created, _ := svc.Create(context.Background(), alice, newCreateRequest())

	_, err := svc.Input(context.Background(), alice, created.SessionID, &dto.SessionInputRequest{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("期望 ErrEmptyInput，实际: %v", err)
	}
}

func TestSessionService_Skip(t *testing.T) {
	svc, _, _ := setupTestSessionService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, alice, newCreateRequest())

	// welcome 阶段没有当前课程
	if _, err := svc.Skip(ctx, alice, created.SessionID); !errors.Is(err, planner.ErrNoCurrentCourse) {
		t.Errorf("期望 ErrNoCurrentCourse，实际: %v", err)
	}

	_, _ = svc.Input(ctx, alice, created.SessionID, &dto.SessionInputRequest{Action: "start"})
	resp, err := svc.Skip(ctx, alice, created.SessionID)
	if err != nil {
		t.Fatalf("Skip 应成功: %v", err)
	}
	if resp.State.CurrentCourse != "MATH 215" {
		t.Errorf("跳过后应处理 MATH 215，实际 %q", resp.State.CurrentCourse)
	}
	if !strings.Contains(resp.Message.Text, "Skipped") {
		t.Errorf("消息应提示已跳过: %s", resp.Message.Text)
	}
}

func TestSessionService_Reset(t *testing.T) {
	svc, _, _ := setupTestSessionService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, alice, newCreateRequest())
	_, _ = svc.Input(ctx, alice, created.SessionID, &dto.SessionInputRequest{Text: "start"})

	resp, err := svc.Reset(ctx, alice, created.SessionID)
	if err != nil {
		t.Fatalf("Reset 应成功: %v", err)
	}
	if resp.State.Phase != planner.PhaseIdle || resp.State.CurrentCourseIndex != 0 || resp.Message != nil {
		t.Errorf("重置后应回到 idle: %+v", resp.State)
	}
	if len(resp.State.CalendarEvents) != 1 {
		t.Errorf("重置后应保留初始日历，实际 %d 条", len(resp.State.CalendarEvents))
	}
}

// ════════════════════════════════════════════════════════════
// 归属 / 查询 / 删除 / 回收
// ════════════════════════════════════════════════════════════

func TestSessionService_Ownership(t *testing.T) {
	svc, _, _ := setupTestSessionService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, alice, newCreateRequest())

	if _, err := svc.State(ctx, bob, created.SessionID); !errors.Is(err, ErrSessionForbidden) {
		t.Errorf("他人会话期望 ErrSessionForbidden，实际: %v", err)
	}
	if err := svc.Delete(ctx, bob, created.SessionID); !errors.Is(err, ErrSessionForbidden) {
		t.Errorf("他人删除期望 ErrSessionForbidden，实际: %v", err)
	}
	if _, err := svc.State(ctx, alice, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
}

func TestSessionService_StateProgressCalendar(t *testing.T) {
	svc, _, _ := setupTestSessionService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, alice, newCreateRequest())

	progress, err := svc.Progress(ctx, alice, created.SessionID)
	if err != nil || !strings.Contains(progress, "Course 1 of 2 - CS 450") {
		t.Errorf("进度错误: %q (err=%v)", progress, err)
	}

	cal, err := svc.Calendar(ctx, alice, created.SessionID)
	if err != nil {
		t.Fatalf("Calendar 应成功: %v", err)
	}
	if cal.SessionID != created.SessionID || len(cal.Events) != 1 || cal.Events[0].Category != planner.CategoryWork {
		t.Errorf("日历错误: %+v", cal)
	}
}

func TestSessionService_Delete(t *testing.T) {
	svc, _, _ := setupTestSessionService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, alice, newCreateRequest())

	if err := svc.Delete(ctx, alice, created.SessionID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := svc.State(ctx, alice, created.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("删除后期望 ErrSessionNotFound，实际: %v", err)
	}
}

func TestSessionService_Sweep(t *testing.T) {
	svc, _, _ := setupTestSessionService()
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	stale, _ := svc.Create(ctx, alice, newCreateRequest())

	svc.now = func() time.Time { return base.Add(50 * time.Minute) }
	fresh, _ := svc.Create(ctx, bob, newCreateRequest())

	removed := svc.Sweep(base.Add(90 * time.Minute))
	if removed != 1 {
		t.Fatalf("期望回收 1 个会话，实际 %d", removed)
	}
	if _, err := svc.State(ctx, alice, stale.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("超时会话应被回收: %v", err)
	}
	if _, err := svc.State(ctx, bob, fresh.SessionID); err != nil {
		t.Errorf("活跃会话不应被回收: %v", err)
	}
}

func TestSessionService_ConcurrentInputs(t *testing.T) {
	svc, fetcher, _ := setupTestSessionService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, alice, newCreateRequest())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.State(ctx, alice, created.SessionID)
			_, _ = svc.Input(ctx, alice, created.SessionID, &dto.SessionInputRequest{Text: "start"})
		}()
	}
	wg.Wait()

	// 只有第一次 start 会触发拉取，其余输入在 awaiting_primary 阶段被视为无效选择
	if fetcher.calls != 1 {
		t.Errorf("期望只拉取 1 次，实际 %d", fetcher.calls)
	}
}

// ════════════════════════════════════════════════════════════
// ImportCalendar 测试
// ════════════════════════════════════════════════════════════

func TestSessionService_ImportCalendar(t *testing.T) {
	svc, _, _ := setupTestSessionService()
	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:gym@test",
		"SUMMARY:Gym",
		"DTSTART:20260907T070000Z",
		"DTEND:20260907T080000Z",
		"RRULE:FREQ=WEEKLY;BYDAY=MO,WE",
		"CATEGORIES:Sports",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	resp, err := svc.ImportCalendar(context.Background(), alice, newCreateRequest(), strings.NewReader(ics))
	if err != nil {
		t.Fatalf("ImportCalendar 应成功: %v", err)
	}
	// 请求中的 1 条 + ICS 展开的 2 条
	if len(resp.State.CalendarEvents) != 3 {
		t.Fatalf("期望 3 条初始事件，实际 %+v", resp.State.CalendarEvents)
	}

	_, err = svc.ImportCalendar(context.Background(), alice, newCreateRequest(), strings.NewReader("not a calendar"))
	if !errors.Is(err, ErrInvalidCalendarFile) {
		t.Errorf("非法文件期望 ErrInvalidCalendarFile，实际: %v", err)
	}
}
