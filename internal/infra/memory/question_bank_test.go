package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func TestQuestionBankCachesCatalog(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(sampleTitles(3))}
	bank := NewQuestionBank(loader, time.Minute, 4)

	if _, err := bank.NextQuestion(context.Background(), nil); err != nil {
		t.Fatalf("next question: %v", err)
	}
	if _, err := bank.NextQuestion(context.Background(), nil); err != nil {
		t.Fatalf("next question 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionBankServesUnseenUntilExhausted(t *testing.T) {
	bank := NewQuestionBank(NewStaticCatalogLoader(sampleTitles(5)), time.Minute, 4)

	var seen []string
	for i := 0; i < 5; i++ {
		q, err := bank.NextQuestion(context.Background(), seen)
		if err != nil {
			t.Fatalf("question %d: %v", i, err)
		}
		for _, id := range seen {
			if id == q.ID {
				t.Fatalf("question %q served twice", q.ID)
			}
		}
		seen = append(seen, q.ID)
	}
	if _, err := bank.NextQuestion(context.Background(), seen); !errors.Is(err, domain.ErrQuestionsExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
}

func TestQuestionBankBuildsOptions(t *testing.T) {
	titles := sampleTitles(10)
	titles = append(titles, domain.Title{ID: "dup", Title: "Title 1"})
	bank := NewQuestionBank(NewStaticCatalogLoader(titles), time.Minute, 4)

	for i := 0; i < 20; i++ {
		q, err := bank.NextQuestion(context.Background(), nil)
		if err != nil {
			t.Fatalf("next question: %v", err)
		}
		if len(q.Options) != 4 {
			t.Fatalf("expected 4 options, got %v", q.Options)
		}
		if !q.HasOption(q.CorrectAnswer) {
			t.Fatalf("correct answer missing from %v", q.Options)
		}
		unique := make(map[string]bool)
		for _, o := range q.Options {
			if unique[o] {
				t.Fatalf("duplicate option %q in %v", o, q.Options)
			}
			unique[o] = true
		}
	}
}

func TestQuestionBankSmallCatalog(t *testing.T) {
	bank := NewQuestionBank(NewStaticCatalogLoader(sampleTitles(1)), time.Minute, 8)

	q, err := bank.NextQuestion(context.Background(), nil)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if len(q.Options) != 1 || q.Options[0] != q.CorrectAnswer {
		t.Fatalf("expected only the correct answer, got %v", q.Options)
	}
}

type countingLoader struct {
	CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context) ([]domain.Title, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx)
}

func sampleTitles(n int) []domain.Title {
	out := make([]domain.Title, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Title{
			ID:     fmt.Sprintf("%d", 100+i),
			Title:  fmt.Sprintf("Title %d", i),
			Visual: fmt.Sprintf("/static/images/%d.jpg", 100+i),
		})
	}
	return out
}
