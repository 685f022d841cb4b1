package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"devboard-trash/internal/blob"
	"devboard-trash/internal/model"
)

// ArticleCodec snapshots an article. The cover image lives in the blob store
// and is released when the snapshot is disposed.
type ArticleCodec struct {
	blobs blob.Store
}

func NewArticleCodec(blobs blob.Store) *ArticleCodec {
	return &ArticleCodec{blobs: blobs}
}

func (c *ArticleCodec) ItemType() model.ItemType {
	return model.ItemTypeArticle
}

func (c *ArticleCodec) Capture(closure model.Closure) ([]byte, error) {
	ac, ok := closure.(model.ArticleClosure)
	if !ok {
		return nil, fmt.Errorf("article codec: unexpected closure %T", closure)
	}

	return encodeEnvelope(model.ItemTypeArticle, ac.Article, nil)
}

func (c *ArticleCodec) Restore(payload []byte) (model.Closure, error) {
	env, err := decodeEnvelope(payload, model.ItemTypeArticle)
	if err != nil {
		return nil, err
	}

	var article model.Article
	if err := json.Unmarshal(env.Record, &article); err != nil {
		return nil, fmt.Errorf("decode article record: %w", err)
	}

	return model.ArticleClosure{Article: article}, nil
}

func (c *ArticleCodec) Dispose(ctx context.Context, payload []byte) error {
	env, err := decodeEnvelope(payload, model.ItemTypeArticle)
	if err != nil {
		return err
	}

	var article model.Article
	if err := json.Unmarshal(env.Record, &article); err != nil {
		return fmt.Errorf("decode article record: %w", err)
	}

	if article.CoverBlob == "" {
		return nil
	}

	return c.blobs.Remove(article.CoverBlob)
}
