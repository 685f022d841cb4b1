package livestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"devboard-trash/internal/database"
	"devboard-trash/internal/model"
	"devboard-trash/internal/snapshot"
)

type ArticleStore struct {
	pool *pgxpool.Pool
}

func NewArticleStore(pool *pgxpool.Pool) *ArticleStore {
	return &ArticleStore{pool: pool}
}

func (s *ArticleStore) ItemType() model.ItemType {
	return model.ItemTypeArticle
}

func (s *ArticleStore) q(ctx context.Context) database.Querier {
	return database.QuerierFrom(ctx, s.pool)
}

func (s *ArticleStore) getArticle(ctx context.Context, itemID string) (model.Article, error) {
	var a model.Article
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, author_id, title, body, cover_blob, created_at
		 FROM articles WHERE id = $1`, itemID).
		Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.CoverBlob, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Article{}, model.ErrItemNotFound
	}
	if err != nil {
		return model.Article{}, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

func (s *ArticleStore) GetForSnapshot(ctx context.Context, itemID string) (model.Closure, error) {
	article, err := s.getArticle(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return model.ArticleClosure{Article: article}, nil
}

func (s *ArticleStore) RemoveLive(ctx context.Context, itemID string) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM articles WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("remove article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (s *ArticleStore) ResolveDependencies(_ context.Context, closure model.Closure) (model.Closure, []string, error) {
	ac, ok := closure.(model.ArticleClosure)
	if !ok {
		return nil, nil, fmt.Errorf("article store: unexpected closure %T", closure)
	}
	return ac, nil, nil
}

func (s *ArticleStore) InsertLive(ctx context.Context, closure model.Closure) (string, error) {
	ac, ok := closure.(model.ArticleClosure)
	if !ok {
		return "", fmt.Errorf("article store: unexpected closure %T", closure)
	}

	a := ac.Article
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO articles (id, author_id, title, body, cover_blob, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.AuthorID, a.Title, a.Body, a.CoverBlob, a.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}

	return a.ID, nil
}

func (s *ArticleStore) Exists(ctx context.Context, itemID string) (bool, string, error) {
	article, err := s.getArticle(ctx, itemID)
	if errors.Is(err, model.ErrItemNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	fingerprint, err := snapshot.Fingerprint(article)
	if err != nil {
		return false, "", err
	}
	return true, fingerprint, nil
}
