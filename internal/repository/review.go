package repository

import (
	"context"
	"errors"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reviewColumns = `id, task_id, reviewer_id, reviewee_id, score, comment, created_at, updated_at`

const reviewUniqueConstraint = "uniq_review_per_task"

type ReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{
		db: db,
	}
}

func scanReview(row pgx.Row) (*entity.Review, error) {
	var review entity.Review
	err := row.Scan(
		&review.ID,
		&review.TaskID,
		&review.ReviewerID,
		&review.RevieweeID,
		&review.Score,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func collectReviews(rows pgx.Rows) ([]entity.Review, error) {
	defer rows.Close()

	reviews := []entity.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) Create(ctx context.Context, review *entity.Review) (*entity.Review, error) {
	query := `
	INSERT INTO review (task_id, reviewer_id, reviewee_id, score, comment)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + reviewColumns

	created, err := scanReview(conn(ctx, r.db).QueryRow(ctx, query,
		review.TaskID,
		review.ReviewerID,
		review.RevieweeID,
		review.Score,
		review.Comment,
	))
	if err != nil {
		if isUniqueViolation(err, reviewUniqueConstraint) {
			return nil, entity.ErrDuplicateReview
		}
		return nil, err
	}
	return created, nil
}

func (r *ReviewRepository) GetById(ctx context.Context, id int) (*entity.Review, error) {
	review, err := scanReview(conn(ctx, r.db).QueryRow(ctx, `SELECT `+reviewColumns+` FROM review WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, id int, score int, comment string) (*entity.Review, error) {
	query := `
	UPDATE review
	SET score = $1, comment = $2, updated_at = CURRENT_TIMESTAMP
	WHERE id = $3
	RETURNING ` + reviewColumns

	review, err := scanReview(conn(ctx, r.db).QueryRow(ctx, query, score, comment, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (r *ReviewRepository) ListByTask(ctx context.Context, taskID int) ([]entity.Review, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT `+reviewColumns+` FROM review WHERE task_id = $1 ORDER BY created_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

// ListByReviewee - отзывы о пользователе, постранично
func (r *ReviewRepository) ListByReviewee(ctx context.Context, userID int, page entity.Page) ([]entity.Review, int, error) {
	db := conn(ctx, r.db)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM review WHERE reviewee_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+reviewColumns+` FROM review WHERE reviewee_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	reviews, err := collectReviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *ReviewRepository) ScoresByReviewee(ctx context.Context, userID int) ([]int, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT score FROM review WHERE reviewee_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}
