package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/SergeiKhy/hashlink/internal/codegen"
	"github.com/SergeiKhy/hashlink/internal/repository"
	"github.com/SergeiKhy/hashlink/internal/service"
	"github.com/SergeiKhy/hashlink/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestService создаёт тестовое окружение с моковыми репозиториями
func setupTestService(gen codegen.Func) (service.LinkService, *mocks.MockLinkRepository, *mocks.MockCacheRepository) {
	linkRepo := mocks.NewMockLinkRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	logger, _ := zap.NewDevelopment()
	linkService := service.NewLinkService(linkRepo, cacheRepo, service.LinkServiceConfig{
		Generate: gen,
		Logger:   logger,
	})
	return linkService, linkRepo, cacheRepo
}

// TestLinkService_Shorten_Success проверяет успешное создание ссылки
func TestLinkService_Shorten_Success(t *testing.T) {
	linkService, linkRepo, cacheRepo := setupTestService(nil)
	ctx := context.Background()

	link, err := linkService.Shorten(ctx, "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.OriginalURL)
	assert.Equal(t, codegen.Generate("https://example.com", ""), link.ShortCode)
	assert.Len(t, link.ShortCode, codegen.Length)
	assert.Equal(t, int64(0), link.Clicks)
	assert.Equal(t, 1, linkRepo.Count())

	// Ссылка должна попасть в кэш
	cached, err := cacheRepo.Get(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, link.OriginalURL, cached.OriginalURL)
}

// TestLinkService_Shorten_Idempotent проверяет повторное сокращение того же URL
func TestLinkService_Shorten_Idempotent(t *testing.T) {
	linkService, linkRepo, _ := setupTestService(nil)
	ctx := context.Background()

	first, err := linkService.Shorten(ctx, "example.com")
	require.NoError(t, err)
	second, err := linkService.Shorten(ctx, "https://example.com")
	require.NoError(t, err)
	third, err := linkService.Shorten(ctx, "  https://example.com ")
	require.NoError(t, err)

	assert.Equal(t, first.ShortCode, second.ShortCode)
	assert.Equal(t, first.ShortCode, third.ShortCode)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, linkRepo.Count())
	assert.Equal(t, 1, linkRepo.InsertCalls)
}

// TestLinkService_Shorten_Normalization проверяет нормализацию URL
func TestLinkService_Shorten_Normalization(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "example.com", expected: "https://example.com"},
		{input: "https://example.com", expected: "https://example.com"},
		{input: "http://example.com/path?q=1", expected: "http://example.com/path?q=1"},
		{input: "ftp://example.com", expected: "https://ftp://example.com"},
		{input: "  example.org/a  ", expected: "https://example.org/a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			linkService, _, _ := setupTestService(nil)

			link, err := linkService.Shorten(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, link.OriginalURL)
			assert.Equal(t, codegen.Generate(tt.expected, ""), link.ShortCode)
		})
	}
}

// TestLinkService_Shorten_InvalidInput проверяет отклонение пустого URL
func TestLinkService_Shorten_InvalidInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		linkService, linkRepo, _ := setupTestService(nil)

		link, err := linkService.Shorten(context.Background(), input)

		assert.ErrorIs(t, err, service.ErrInvalidInput)
		assert.Nil(t, link)
		assert.Equal(t, 0, linkRepo.Count())
	}
}

// TestLinkService_Shorten_CollisionRetry проверяет повтор с солью при коллизии
func TestLinkService_Shorten_CollisionRetry(t *testing.T) {
	var salts []string
	gen := func(url, salt string) string {
		salts = append(salts, salt)
		if salt == "" {
			return "aaaaaaaa"
		}
		return codegen.Generate(url, salt)
	}

	linkService, linkRepo, _ := setupTestService(gen)
	linkRepo.Seed("https://other.example", "aaaaaaaa")

	link, err := linkService.Shorten(context.Background(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, codegen.Generate("https://example.com", "0"), link.ShortCode)
	assert.Equal(t, []string{"", "0"}, salts)
	assert.Equal(t, 2, linkRepo.Count())
}

// TestLinkService_Shorten_FirstFreeCandidate проверяет выбор первого свободного кода
func TestLinkService_Shorten_FirstFreeCandidate(t *testing.T) {
	gen := func(url, salt string) string {
		return "candidate" + salt
	}

	linkService, linkRepo, _ := setupTestService(gen)
	linkRepo.Seed("https://a.example", gen("", ""))
	linkRepo.Seed("https://b.example", gen("", "0"))
	linkRepo.Seed("https://c.example", gen("", "1"))

	link, err := linkService.Shorten(context.Background(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, gen("", "2"), link.ShortCode)
}

// TestLinkService_Shorten_Exhausted проверяет ошибку после исчерпания попыток
func TestLinkService_Shorten_Exhausted(t *testing.T) {
	calls := 0
	gen := func(url, salt string) string {
		calls++
		return "aaaaaaaa"
	}

	linkService, linkRepo, _ := setupTestService(gen)
	linkRepo.Seed("https://other.example", "aaaaaaaa")

	link, err := linkService.Shorten(context.Background(), "https://example.com")

	assert.ErrorIs(t, err, service.ErrCodeGenerationExhausted)
	assert.Nil(t, link)
	// Первая попытка и 5 повторов с солью
	assert.Equal(t, 6, calls)
	assert.Equal(t, 0, linkRepo.InsertCalls)
	assert.Equal(t, 1, linkRepo.Count())
}

// TestLinkService_Shorten_InsertRace проверяет гонку за код между проверкой и вставкой
func TestLinkService_Shorten_InsertRace(t *testing.T) {
	linkService, linkRepo, _ := setupTestService(nil)

	first := codegen.Generate("https://example.com", "")
	linkRepo.InsertHook = func(originalURL, code string) error {
		if code == first {
			// Другой запрос занял код с другим URL
			linkRepo.Seed("https://racer.example", code)
		}
		return nil
	}

	link, err := linkService.Shorten(context.Background(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, codegen.Generate("https://example.com", "0"), link.ShortCode)
	assert.Equal(t, 2, linkRepo.InsertCalls)
}

// TestLinkService_Shorten_SameURLRace проверяет гонку двух запросов с одинаковым URL
func TestLinkService_Shorten_SameURLRace(t *testing.T) {
	linkService, linkRepo, _ := setupTestService(nil)

	var winner string
	linkRepo.InsertHook = func(originalURL, code string) error {
		if winner == "" {
			winner = linkRepo.Seed(originalURL, code).ShortCode
		}
		return nil
	}

	link, err := linkService.Shorten(context.Background(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, winner, link.ShortCode)
	assert.Equal(t, 1, linkRepo.Count())
}

// TestLinkService_Shorten_StorageError проверяет проброс ошибки хранилища
func TestLinkService_Shorten_StorageError(t *testing.T) {
	linkService, linkRepo, _ := setupTestService(nil)
	linkRepo.Err = &repository.StorageError{Op: "find link by url", Err: errors.New("connection refused")}

	link, err := linkService.Shorten(context.Background(), "https://example.com")

	var storageErr *repository.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, link)
}

// TestLinkService_ConcurrentAccess проверяет потокобезопасность при одновременном доступе
func TestLinkService_ConcurrentAccess(t *testing.T) {
	linkService, linkRepo, _ := setupTestService(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	codes := make([]string, 20)

	// Половина горутин сокращает один и тот же URL
	for i := 0; i < len(codes); i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			url := fmt.Sprintf("https://example.com/%d", id)
			if id%2 == 0 {
				url = "https://example.com/shared"
			}
			link, err := linkService.Shorten(ctx, url)
			if assert.NoError(t, err) {
				codes[id] = link.ShortCode
			}
		}(i)
	}
	wg.Wait()

	for i := 2; i < len(codes); i += 2 {
		assert.Equal(t, codes[0], codes[i])
	}
	assert.Equal(t, 11, linkRepo.Count())
}
