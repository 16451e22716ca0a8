package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/marketpulse/backend/models"
	"github.com/marketpulse/backend/repository"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	nextID  uint
	writes  int
	err     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	r.nextID++
	user.ID = r.nextID
	stored := *user
	stored.Watchlist = append([]string(nil), user.Watchlist...)
	r.byEmail[user.Email] = &stored
	r.writes++
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.Watchlist = append([]string(nil), u.Watchlist...)
	return &cp, nil
}

func (r *fakeUserRepo) find(id uint) *models.User {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (r *fakeUserRepo) UpdateUsername(_ context.Context, id uint, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.find(id)
	if u == nil {
		return repository.ErrNotFound
	}
	u.Username = username
	r.writes++
	return nil
}

func (r *fakeUserRepo) UpdateWatchlist(_ context.Context, id uint, watchlist []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.find(id)
	if u == nil {
		return repository.ErrNotFound
	}
	u.Watchlist = append([]string(nil), watchlist...)
	r.writes++
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateJWT(email string) (string, time.Time, error) {
	return "token-for-" + email, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles []models.Article
	listErr  error
	lists    int
}

func (r *fakeArticleRepo) Create(_ context.Context, a *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uint(len(r.articles) + 1)
	r.articles = append(r.articles, *a)
	return nil
}

func (r *fakeArticleRepo) List(_ context.Context) ([]models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]models.Article(nil), r.articles...), nil
}

func (r *fakeArticleRepo) Get(_ context.Context, id uint) (*models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.articles {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeArticleRepo) ListBySymbol(_ context.Context, symbol string) ([]models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Article
	for _, a := range r.articles {
		if strings.EqualFold(a.Symbol, symbol) {
			out = append(out, a)
		}
	}
	return out, nil
}

// fakeCache mirrors cache.ArticleCache: one entry per generation, Invalidate bumps the generation.
type fakeCache struct {
	version       int64
	entries       map[int64][]models.Article
	err           error
	invalidateErr error
	invalidated   int
	sets          int
}

func (c *fakeCache) Get(context.Context) ([]models.Article, int64, bool, error) {
	if c.err != nil {
		return nil, 0, false, c.err
	}
	articles, ok := c.entries[c.version]
	return articles, c.version, ok, nil
}

func (c *fakeCache) Set(_ context.Context, version int64, articles []models.Article) error {
	if c.err != nil {
		return c.err
	}
	if c.entries == nil {
		c.entries = map[int64][]models.Article{}
	}
	c.entries[version] = articles
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidated++
	if c.err != nil {
		return c.err
	}
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.version++
	return nil
}

func (c *fakeCache) present() bool {
	_, ok := c.entries[c.version]
	return ok
}

var errStorage = errors.New("storage unavailable")
