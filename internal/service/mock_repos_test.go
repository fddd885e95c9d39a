package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"course-scheduler/internal/model"
	pkgerrors "course-scheduler/pkg/errors"
)

// ── Mock CourseOfferingRepository ──

type mockOfferingRepo struct {
	mu        sync.Mutex
	offerings map[int64]*model.CourseOffering
	listCalls int
	listErr   error
}

func newMockOfferingRepo() *mockOfferingRepo {
	return &mockOfferingRepo{offerings: make(map[int64]*model.CourseOffering)}
}

func (m *mockOfferingRepo) Create(_ context.Context, o *model.CourseOffering) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.OfferingID == 0 {
		o.OfferingID = int64(len(m.offerings) + 1)
	}
	m.offerings[o.OfferingID] = o
	return nil
}

func (m *mockOfferingRepo) BatchCreate(ctx context.Context, offerings []model.CourseOffering) error {
	for i := range offerings {
		if err := m.Create(ctx, &offerings[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockOfferingRepo) GetByID(_ context.Context, id int64) (*model.CourseOffering, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.offerings[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfferingRepo) ListByIDs(_ context.Context, ids []int64) ([]model.CourseOffering, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.CourseOffering
	for _, id := range ids {
		if o, ok := m.offerings[id]; ok {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockOfferingRepo) ListByCourses(_ context.Context, universityID int, termName string, courseCodes []string) ([]model.CourseOffering, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	want := make(map[string]bool, len(courseCodes))
	for _, c := range courseCodes {
		want[c] = true
	}
	var result []model.CourseOffering
	for _, o := range m.offerings {
		if o.UniversityID == universityID && o.TermName == termName && want[o.CourseCode] {
			result = append(result, *o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OfferingID < result[j].OfferingID })
	return result, nil
}

// ── Mock CourseSelectionRepository ──

type mockSelectionRepo struct {
	mu         sync.Mutex
	selections map[string]*model.CourseSelection // key: student_id|schedule_id|course_code
	createErr  error
	nextID     int
}

func newMockSelectionRepo() *mockSelectionRepo {
	return &mockSelectionRepo{selections: make(map[string]*model.CourseSelection)}
}

func selectionKey(studentID int64, scheduleID, courseCode string) string {
	return fmt.Sprintf("%d|%s|%s", studentID, scheduleID, courseCode)
}

func (m *mockSelectionRepo) Create(_ context.Context, sel *model.CourseSelection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	k := selectionKey(sel.StudentID, sel.ScheduleID, sel.CourseCode)
	if _, ok := m.selections[k]; ok {
		return pkgerrors.ErrOptimisticLock
	}
	m.nextID++
	if sel.SelectionID == "" {
		sel.SelectionID = fmt.Sprintf("sel-%03d", m.nextID)
	}
	sel.Version = 1
	sel.CreatedAt = time.Now()
	sel.UpdatedAt = sel.CreatedAt
	cp := *sel
	m.selections[k] = &cp
	return nil
}

func (m *mockSelectionRepo) GetByScheduleAndCourse(_ context.Context, studentID int64, scheduleID, courseCode string) (*model.CourseSelection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sel, ok := m.selections[selectionKey(studentID, scheduleID, courseCode)]; ok {
		cp := *sel
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSelectionRepo) ListBySchedule(_ context.Context, studentID int64, scheduleID string) ([]model.CourseSelection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.CourseSelection
	for _, sel := range m.selections {
		if sel.StudentID == studentID && sel.ScheduleID == scheduleID {
			result = append(result, *sel)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseCode < result[j].CourseCode })
	return result, nil
}

func (m *mockSelectionRepo) Update(_ context.Context, sel *model.CourseSelection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.selections[selectionKey(sel.StudentID, sel.ScheduleID, sel.CourseCode)]
	if !ok || stored.Version != sel.Version {
		return pkgerrors.ErrOptimisticLock
	}
	sel.Version++
	cp := *sel
	m.selections[selectionKey(sel.StudentID, sel.ScheduleID, sel.CourseCode)] = &cp
	return nil
}

func (m *mockSelectionRepo) Delete(_ context.Context, studentID int64, scheduleID, courseCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := selectionKey(studentID, scheduleID, courseCode)
	if _, ok := m.selections[k]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.selections, k)
	return nil
}

// ── Mock OfferingCache ──

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	sets    int
	lastTTL time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return false, m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *mockCache) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.sets++
	m.lastTTL = ttl
	return nil
}

var errMockDB = errors.New("mock: 数据库不可用")
