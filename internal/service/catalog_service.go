package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"course-scheduler/config"
	"course-scheduler/internal/planner"
	"course-scheduler/internal/repository"
)

// ── 开课目录模块业务错误 ──

var (
	ErrInvalidCatalogQuery = errors.New("查询参数不合法：学期与课程代码不能为空")
)

// OfferingCache 开课目录缓存（由 pkg/redis.Client 实现）
type OfferingCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// CatalogService 开课目录业务接口，同时作为 Orchestrator 的班级来源
type CatalogService interface {
	planner.SectionFetcher
	FetchOfferings(ctx context.Context, universityID int, termName string, courseCodes []string) (map[string][]planner.CourseSection, error)
}

type catalogService struct {
	repo        *repository.Repository
	cache       OfferingCache // 可为 nil：无 Redis 时直接查库
	cacheTTL    time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(cfg *config.CatalogConfig, repo *repository.Repository, cache OfferingCache, logger *zap.Logger) CatalogService {
	concurrency := cfg.PrefetchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &catalogService{
		repo:        repo,
		cache:       cache,
		cacheTTL:    cfg.CacheTTL,
		concurrency: concurrency,
		logger:      logger,
	}
}

func offeringCacheKey(universityID int, termName, courseCode string) string {
	return fmt.Sprintf("offerings:%d:%s:%s", universityID, termName, courseCode)
}

// ────────────────────── FetchSections ──────────────────────

// FetchSections 查询若干课程在指定学期的全部班级
// 先读缓存，未命中的课程一次性查库后回写缓存；缓存故障只记录日志，不影响结果。
func (s *catalogService) FetchSections(ctx context.Context, universityID int, termName string, courseCodes []string) ([]planner.CourseSection, error) {
	termName = strings.TrimSpace(termName)
	codes := normalizeCodes(courseCodes)
	if termName == "" || len(codes) == 0 {
		return nil, ErrInvalidCatalogQuery
	}

	byCode := make(map[string][]planner.CourseSection, len(codes))
	var missed []string
	for _, code := range codes {
		if cached, ok := s.readCache(ctx, universityID, termName, code); ok {
			byCode[code] = cached
			continue
		}
		missed = append(missed, code)
	}

	if len(missed) > 0 {
		offerings, err := s.repo.CourseOffering.ListByCourses(ctx, universityID, termName, missed)
		if err != nil {
			s.logger.Error("查询开课班级失败",
				zap.Int("university_id", universityID),
				zap.String("term", termName),
				zap.Strings("codes", missed),
				zap.Error(err),
			)
			return nil, err
		}
		for i := range offerings {
			sec := toCourseSection(&offerings[i])
			byCode[sec.CourseCode] = append(byCode[sec.CourseCode], sec)
		}
		for _, code := range missed {
			s.writeCache(ctx, universityID, termName, code, byCode[code])
		}
	}

	result := make([]planner.CourseSection, 0)
	for _, code := range codes {
		result = append(result, byCode[code]...)
	}
	return result, nil
}

// ────────────────────── FetchOfferings ──────────────────────

// FetchOfferings 并发预览多门课程的班级，按课程代码分组
func (s *catalogService) FetchOfferings(ctx context.Context, universityID int, termName string, courseCodes []string) (map[string][]planner.CourseSection, error) {
	codes := normalizeCodes(courseCodes)
	if strings.TrimSpace(termName) == "" || len(codes) == 0 {
		return nil, ErrInvalidCatalogQuery
	}

	results := make([][]planner.CourseSection, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			sections, err := s.FetchSections(gctx, universityID, termName, []string{code})
			if err != nil {
				return fmt.Errorf("查询课程 %s 失败: %w", code, err)
			}
			results[i] = sections
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]planner.CourseSection, len(codes))
	for i, code := range codes {
		out[code] = results[i]
	}
	return out, nil
}

// ── 缓存 ──

func (s *catalogService) readCache(ctx context.Context, universityID int, termName, code string) ([]planner.CourseSection, bool) {
	if s.cache == nil {
		return nil, false
	}
	var sections []planner.CourseSection
	hit, err := s.cache.GetJSON(ctx, offeringCacheKey(universityID, termName, code), &sections)
	if err != nil {
		s.logger.Warn("读取开课缓存失败", zap.String("code", code), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return sections, true
}

func (s *catalogService) writeCache(ctx context.Context, universityID int, termName, code string, sections []planner.CourseSection) {
	if s.cache == nil || len(sections) == 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, offeringCacheKey(universityID, termName, code), sections, s.cacheTTL); err != nil {
		s.logger.Warn("写入开课缓存失败", zap.String("code", code), zap.Error(err))
	}
}

// normalizeCodes 去除空白与重复，保持输入顺序
func normalizeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
