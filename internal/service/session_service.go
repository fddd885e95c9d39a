package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"course-scheduler/config"
	"course-scheduler/internal/dto"
	"course-scheduler/internal/planner"
)

// ── 选课会话模块业务错误 ──

var (
	ErrSessionNotFound      = errors.New("选课会话不存在或已过期")
	ErrSessionForbidden     = errors.New("无权访问该选课会话")
	ErrEmptyInput           = errors.New("输入不能为空")
	ErrInvalidCalendarEvent = errors.New("个人日历事件不合法")
	ErrInvalidCalendarFile  = errors.New("日历文件解析失败")
)

// Owner 会话归属（来自访问令牌）
type Owner struct {
	StudentID    int64
	UniversityID int
}

// SessionService 选课会话业务接口
//
// 会话只存在于进程内存中；同一会话的调用按到达顺序串行执行，
// 空闲超过 session_idle_ttl 的会话由 Sweep 回收。
type SessionService interface {
	Create(ctx context.Context, owner Owner, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	ImportCalendar(ctx context.Context, owner Owner, req *dto.CreateSessionRequest, calendar io.Reader) (*dto.SessionResponse, error)
	Input(ctx context.Context, owner Owner, id string, req *dto.SessionInputRequest) (*dto.SessionResponse, error)
	Skip(ctx context.Context, owner Owner, id string) (*dto.SessionResponse, error)
	Reset(ctx context.Context, owner Owner, id string) (*dto.SessionResponse, error)
	State(ctx context.Context, owner Owner, id string) (*dto.SessionResponse, error)
	Progress(ctx context.Context, owner Owner, id string) (string, error)
	Calendar(ctx context.Context, owner Owner, id string) (*dto.CalendarResponse, error)
	Delete(ctx context.Context, owner Owner, id string) error
	Sweep(now time.Time) int
}

type sessionEntry struct {
	mu         sync.Mutex
	orch       *planner.Orchestrator
	owner      Owner
	lastActive time.Time
	closed     bool
}

type sessionService struct {
	cfg       *config.SchedulerConfig
	fetcher   planner.SectionFetcher
	persister planner.SelectionPersister
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(cfg *config.SchedulerConfig, fetcher planner.SectionFetcher, persister planner.SelectionPersister, logger *zap.Logger) SessionService {
	loc := time.UTC
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		} else {
			logger.Warn("时区配置无效，使用 UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		}
	}
	return &sessionService{
		cfg:       cfg,
		fetcher:   fetcher,
		persister: persister,
		location:  loc,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*sessionEntry),
	}
}

// ────────────────────── Create ──────────────────────

func (s *sessionService) Create(ctx context.Context, owner Owner, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	events, err := toCalendarEvents(req.InitialEvents)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, owner, req, events)
}

// ────────────────────── ImportCalendar ──────────────────────

// ImportCalendar 以 .ics 个人日历（叠加请求中的事件）作为初始日历创建会话
func (s *sessionService) ImportCalendar(ctx context.Context, owner Owner, req *dto.CreateSessionRequest, calendar io.Reader) (*dto.SessionResponse, error) {
	events, err := toCalendarEvents(req.InitialEvents)
	if err != nil {
		return nil, err
	}
	imported, err := ParsePersonalEvents(calendar, s.location)
	if err != nil {
		s.logger.Warn("解析个人日历失败", zap.Int64("student_id", owner.StudentID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendarFile, err)
	}
	s.logger.Info("导入个人日历",
		zap.Int64("student_id", owner.StudentID),
		zap.Int("events", len(imported)),
	)
	return s.start(ctx, owner, req, append(events, imported...))
}

func (s *sessionService) start(ctx context.Context, owner Owner, req *dto.CreateSessionRequest, events []planner.CalendarEvent) (*dto.SessionResponse, error) {
	prefs := req.Preferences
	if prefs.MinTransitionMinutes == nil {
		v := s.cfg.MinTransitionMinutes
		prefs.MinTransitionMinutes = &v
	}

	id := uuid.New().String()
	input := planner.SessionInput{
		ScheduleID:    req.ScheduleID,
		StudentID:     owner.StudentID,
		UniversityID:  owner.UniversityID,
		TermName:      req.TermName,
		CourseCodes:   normalizeCodes(req.CourseCodes),
		Preferences:   prefs,
		InitialEvents: events,
	}
	orch, err := planner.NewOrchestrator(input, s.fetcher, s.persister, planner.Config{
		PrimaryListSize: s.cfg.PrimaryListSize,
		BackupListSize:  s.cfg.BackupListSize,
	}, s.logger.With(zap.String("session_id", id)))
	if err != nil {
		return nil, err
	}

	msg, err := orch.Start(ctx)
	if err != nil {
		return nil, err
	}

	entry := &sessionEntry{orch: orch, owner: owner, lastActive: s.now()}
	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()

	s.logger.Info("创建选课会话",
		zap.String("session_id", id),
		zap.String("schedule_id", req.ScheduleID),
		zap.Int64("student_id", owner.StudentID),
		zap.Int("courses", len(input.CourseCodes)),
	)
	return buildSessionResponse(id, orch, &msg), nil
}

// ────────────────────── Input / Skip / Reset ──────────────────────

func (s *sessionService) Input(ctx context.Context, owner Owner, id string, req *dto.SessionInputRequest) (*dto.SessionResponse, error) {
	in := planner.Input{Text: req.Text, SectionID: req.SectionID, Action: req.Action}
	if in.Text == "" && in.SectionID == 0 && in.Action == "" {
		return nil, ErrEmptyInput
	}
	return s.withSession(owner, id, func(o *planner.Orchestrator) (*planner.Message, error) {
		msg, err := o.ProcessUserInput(ctx, in)
		if err != nil {
			return nil, err
		}
		return &msg, nil
	})
}

func (s *sessionService) Skip(ctx context.Context, owner Owner, id string) (*dto.SessionResponse, error) {
	return s.withSession(owner, id, func(o *planner.Orchestrator) (*planner.Message, error) {
		msg, err := o.SkipCurrentCourse(ctx)
		if err != nil {
			return nil, err
		}
		return &msg, nil
	})
}

func (s *sessionService) Reset(_ context.Context, owner Owner, id string) (*dto.SessionResponse, error) {
	return s.withSession(owner, id, func(o *planner.Orchestrator) (*planner.Message, error) {
		o.Reset()
		return nil, nil
	})
}

// ────────────────────── State / Progress / Calendar ──────────────────────

func (s *sessionService) State(_ context.Context, owner Owner, id string) (*dto.SessionResponse, error) {
	return s.withSession(owner, id, func(*planner.Orchestrator) (*planner.Message, error) {
		return nil, nil
	})
}

func (s *sessionService) Progress(ctx context.Context, owner Owner, id string) (string, error) {
	resp, err := s.State(ctx, owner, id)
	if err != nil {
		return "", err
	}
	return resp.Progress, nil
}

func (s *sessionService) Calendar(_ context.Context, owner Owner, id string) (*dto.CalendarResponse, error) {
	var events []planner.CalendarEvent
	_, err := s.withSession(owner, id, func(o *planner.Orchestrator) (*planner.Message, error) {
		events = o.CalendarEvents()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.CalendarResponse{SessionID: id, Events: events}, nil
}

// ────────────────────── Delete ──────────────────────

func (s *sessionService) Delete(_ context.Context, owner Owner, id string) error {
	entry, err := s.lookup(owner, id)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	entry.closed = true
	entry.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.logger.Info("删除选课会话", zap.String("session_id", id), zap.Int64("student_id", owner.StudentID))
	return nil
}

// ────────────────────── Sweep ──────────────────────

// Sweep 回收空闲超时的会话，返回回收数量；正在处理请求的会话跳过
func (s *sessionService) Sweep(now time.Time) int {
	if s.cfg.SessionIdleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sessions {
		if !entry.mu.TryLock() {
			continue
		}
		if now.Sub(entry.lastActive) > s.cfg.SessionIdleTTL {
			entry.closed = true
			delete(s.sessions, id)
			removed++
		}
		entry.mu.Unlock()
	}
	if removed > 0 {
		s.logger.Info("回收空闲选课会话", zap.Int("removed", removed), zap.Int("remaining", len(s.sessions)))
	}
	return removed
}

// ── 内部辅助 ──

func (s *sessionService) lookup(owner Owner, id string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if entry.owner.StudentID != owner.StudentID {
		return nil, ErrSessionForbidden
	}
	return entry, nil
}

// withSession 串行执行会话操作并返回最新快照
func (s *sessionService) withSession(owner Owner, id string, fn func(o *planner.Orchestrator) (*planner.Message, error)) (*dto.SessionResponse, error) {
	entry, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.closed {
		return nil, ErrSessionNotFound
	}

	msg, err := fn(entry.orch)
	entry.lastActive = s.now()
	if err != nil {
		return nil, err
	}
	return buildSessionResponse(id, entry.orch, msg), nil
}

func buildSessionResponse(id string, o *planner.Orchestrator, msg *planner.Message) *dto.SessionResponse {
	return &dto.SessionResponse{
		SessionID: id,
		Message:   msg,
		State:     o.State(),
		Progress:  o.ProgressIndicator(),
	}
}

// toCalendarEvents 请求中的个人事件 → 日历事件，时间统一为 HH:MM
func toCalendarEvents(reqs []dto.CalendarEventRequest) ([]planner.CalendarEvent, error) {
	events := make([]planner.CalendarEvent, 0, len(reqs))
	for i, r := range reqs {
		start, err := planner.NormalizeTimeFormat(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 个事件开始时间 %q", ErrInvalidCalendarEvent, i+1, r.StartTime)
		}
		end, err := planner.NormalizeTimeFormat(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 个事件结束时间 %q", ErrInvalidCalendarEvent, i+1, r.EndTime)
		}
		if end <= start {
			return nil, fmt.Errorf("%w: 第 %d 个事件结束时间必须晚于开始时间", ErrInvalidCalendarEvent, i+1)
		}
		if r.DayOfWeek < planner.Monday || r.DayOfWeek > planner.Sunday {
			return nil, fmt.Errorf("%w: 第 %d 个事件星期 %d", ErrInvalidCalendarEvent, i+1, r.DayOfWeek)
		}
		category := planner.EventCategory(r.Category)
		if category == "" || category == planner.CategoryCourse {
			category = planner.CategoryOther
		}
		events = append(events, planner.CalendarEvent{
			ID:        uuid.New().String(),
			Title:     r.Title,
			DayOfWeek: r.DayOfWeek,
			StartTime: start,
			EndTime:   end,
			Location:  r.Location,
			Category:  category,
		})
	}
	return events, nil
}
