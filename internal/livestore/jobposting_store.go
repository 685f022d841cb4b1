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

type JobPostingStore struct {
	pool *pgxpool.Pool
}

func NewJobPostingStore(pool *pgxpool.Pool) *JobPostingStore {
	return &JobPostingStore{pool: pool}
}

func (s *JobPostingStore) ItemType() model.ItemType {
	return model.ItemTypeJobPosting
}

func (s *JobPostingStore) q(ctx context.Context) database.Querier {
	return database.QuerierFrom(ctx, s.pool)
}

func (s *JobPostingStore) getPosting(ctx context.Context, itemID string) (model.JobPosting, error) {
	var p model.JobPosting
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, company_id, title, description, salary, created_at
		 FROM job_postings WHERE id = $1`, itemID).
		Scan(&p.ID, &p.CompanyID, &p.Title, &p.Description, &p.Salary, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.JobPosting{}, model.ErrItemNotFound
	}
	if err != nil {
		return model.JobPosting{}, fmt.Errorf("get job posting: %w", err)
	}
	return p, nil
}

func (s *JobPostingStore) GetForSnapshot(ctx context.Context, itemID string) (model.Closure, error) {
	posting, err := s.getPosting(ctx, itemID)
	if err != nil {
		return nil, err
	}

	closure := model.JobPostingClosure{Posting: posting}

	rows, err := s.q(ctx).Query(ctx,
		`SELECT posting_id, tag_id
		 FROM job_posting_tags WHERE posting_id = $1
		 ORDER BY tag_id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("get posting tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag model.JobPostingTag
		if err := rows.Scan(&tag.PostingID, &tag.TagID); err != nil {
			return nil, fmt.Errorf("scan posting tag: %w", err)
		}
		closure.Tags = append(closure.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get posting tags: %w", err)
	}

	return closure, nil
}

func (s *JobPostingStore) RemoveLive(ctx context.Context, itemID string) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM job_postings WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("remove job posting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// ResolveDependencies drops tag links whose tag rows were deleted while the
// posting sat in the trash.
func (s *JobPostingStore) ResolveDependencies(ctx context.Context, closure model.Closure) (model.Closure, []string, error) {
	jc, ok := closure.(model.JobPostingClosure)
	if !ok {
		return nil, nil, fmt.Errorf("job posting store: unexpected closure %T", closure)
	}

	var dropped []string
	surviving := jc.Tags[:0:0]
	for _, link := range jc.Tags {
		var exists bool
		err := s.q(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tags WHERE id = $1)`, link.TagID).Scan(&exists)
		if err != nil {
			return nil, nil, fmt.Errorf("check tag %q: %w", link.TagID, err)
		}
		if exists {
			surviving = append(surviving, link)
		} else {
			dropped = append(dropped, "tag:"+link.TagID)
		}
	}

	jc.Tags = surviving
	return jc, dropped, nil
}

func (s *JobPostingStore) InsertLive(ctx context.Context, closure model.Closure) (string, error) {
	jc, ok := closure.(model.JobPostingClosure)
	if !ok {
		return "", fmt.Errorf("job posting store: unexpected closure %T", closure)
	}

	q := s.q(ctx)
	p := jc.Posting
	_, err := q.Exec(ctx,
		`INSERT INTO job_postings (id, company_id, title, description, salary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.CompanyID, p.Title, p.Description, p.Salary, p.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert job posting: %w", err)
	}

	for _, link := range jc.Tags {
		_, err = q.Exec(ctx,
			`INSERT INTO job_posting_tags (posting_id, tag_id) VALUES ($1, $2)`,
			p.ID, link.TagID)
		if err != nil {
			return "", fmt.Errorf("insert posting tag: %w", err)
		}
	}

	return p.ID, nil
}

func (s *JobPostingStore) Exists(ctx context.Context, itemID string) (bool, string, error) {
	posting, err := s.getPosting(ctx, itemID)
	if errors.Is(err, model.ErrItemNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	fingerprint, err := snapshot.Fingerprint(posting)
	if err != nil {
		return false, "", err
	}
	return true, fingerprint, nil
}
