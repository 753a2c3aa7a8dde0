package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/domain"
)

// DefaultOptionsPerQuestion is the correct answer plus seven distractors.
const DefaultOptionsPerQuestion = 8

// CatalogLoader fetches the question catalog from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Title, error)
}

// QuestionBank builds questions from a cached catalog. It implements
// game.QuestionProvider.
type QuestionBank struct {
	loader  CatalogLoader
	ttl     time.Duration
	options int
	clock   func() time.Time
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu        sync.RWMutex
	titles    []domain.Title
	expiresAt time.Time
}

func NewQuestionBank(loader CatalogLoader, ttl time.Duration, optionsPerQuestion int) *QuestionBank {
	if optionsPerQuestion <= 0 {
		optionsPerQuestion = DefaultOptionsPerQuestion
	}
	return &QuestionBank{
		loader:  loader,
		ttl:     ttl,
		options: optionsPerQuestion,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NextQuestion picks a random catalog title not in seen and surrounds its
// answer with random distinct distractors.
func (b *QuestionBank) NextQuestion(ctx context.Context, seen []string) (domain.Question, error) {
	titles, err := b.catalog(ctx)
	if err != nil {
		return domain.Question{}, err
	}

	skip := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		skip[id] = struct{}{}
	}
	candidates := make([]domain.Title, 0, len(titles))
	for _, t := range titles {
		if _, ok := skip[t.ID]; !ok {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return domain.Question{}, domain.ErrQuestionsExhausted
	}

	b.rndMu.Lock()
	defer b.rndMu.Unlock()

	pick := candidates[b.rnd.Intn(len(candidates))]

	used := map[string]struct{}{strings.ToLower(pick.Title): {}}
	pool := make([]string, 0, len(titles))
	for _, t := range titles {
		key := strings.ToLower(t.Title)
		if _, dup := used[key]; dup {
			continue
		}
		used[key] = struct{}{}
		pool = append(pool, t.Title)
	}
	b.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > b.options-1 {
		pool = pool[:b.options-1]
	}

	options := append(pool, pick.Title)
	b.rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return domain.Question{
		ID:            pick.ID,
		Visual:        pick.Visual,
		CorrectAnswer: pick.Title,
		Options:       options,
	}, nil
}

func (b *QuestionBank) catalog(ctx context.Context) ([]domain.Title, error) {
	now := b.clock()
	b.mu.RLock()
	if b.titles != nil && b.expiresAt.After(now) {
		titles := b.titles
		b.mu.RUnlock()
		return titles, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do("catalog", func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if b.titles != nil && b.expiresAt.After(now) {
			titles := b.titles
			b.mu.RUnlock()
			return titles, nil
		}
		b.mu.RUnlock()

		titles, err := b.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}
		if titles == nil {
			titles = []domain.Title{}
		}

		b.mu.Lock()
		b.titles = titles
		b.expiresAt = now.Add(b.ttlWithJitter())
		b.mu.Unlock()
		return titles, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Title), nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader is a simple loader backed by a slice (useful for tests/demos).
type StaticCatalogLoader struct {
	titles []domain.Title
}

func NewStaticCatalogLoader(titles []domain.Title) *StaticCatalogLoader {
	return &StaticCatalogLoader{titles: titles}
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context) ([]domain.Title, error) {
	out := make([]domain.Title, len(l.titles))
	copy(out, l.titles)
	return out, nil
}
