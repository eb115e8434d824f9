package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

// Post types.
const (
	TypePost       = "post"
	TypePage       = "page"
	TypeAttachment = "attachment"
	TypeProduct    = "product"
	TypeOrder      = "shop_order"
	TypeCourse     = "sfwd-courses"
	TypeLesson     = "sfwd-lessons"
	TypeQuiz       = "sfwd-quiz"
)

// StatusPublish is the default post status.
const StatusPublish = "publish"

// Post is any content row: posts, pages, attachments and the commerce and
// courseware types.
type Post struct {
	ID      int64
	Type    string
	Slug    string
	Title   string
	Content string
	Status  string
	Parent  int64
	Author  int64
	Meta    map[string]string
}

// UpsertPost creates the post or replaces the post with the same type and
// slug, then writes its metadata.
func (s *Site) UpsertPost(ctx context.Context, p Post) (int64, error) {
	if p.Type == "" || p.Slug == "" {
		return 0, errors.New("post type and slug are required")
	}
	if p.Status == "" {
		p.Status = StatusPublish
	}

	var id int64
	err := s.queryRow(ctx, `
		INSERT INTO posts (post_type, slug, title, content, status, parent, author)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(post_type, slug) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			status = excluded.status,
			parent = excluded.parent,
			author = excluded.author
		RETURNING id`,
		p.Type, p.Slug, p.Title, p.Content, p.Status, p.Parent, p.Author,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	// Stable order keeps the query log deterministic.
	keys := make([]string, 0, len(p.Meta))
	for k := range p.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := s.exec(ctx, `
			INSERT INTO postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)
			ON CONFLICT(post_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
			id, k, p.Meta[k],
		); err != nil {
			return 0, err
		}
	}

	s.cacheObject(postKey(p.Type, p.Slug), id)
	return id, nil
}

func postKey(postType, slug string) string {
	return "post:" + postType + ":" + slug
}

// PostID resolves a post by type and slug.
func (s *Site) PostID(ctx context.Context, postType, slug string) (int64, error) {
	if id, ok := s.cachedObject(postKey(postType, slug)); ok {
		return id, nil
	}

	var id int64
	err := s.queryRow(ctx, `SELECT id FROM posts WHERE post_type = ? AND slug = ?`, postType, slug).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s/%s", ErrPostNotFound, postType, slug)
		}
		return 0, err
	}

	s.cacheObject(postKey(postType, slug), id)
	return id, nil
}

// GetPost loads a post and its metadata.
func (s *Site) GetPost(ctx context.Context, id int64) (*Post, error) {
	p := &Post{ID: id, Meta: make(map[string]string)}
	err := s.queryRow(ctx, `
		SELECT post_type, slug, title, content, status, parent, author
		FROM posts WHERE id = ?`, id,
	).Scan(&p.Type, &p.Slug, &p.Title, &p.Content, &p.Status, &p.Parent, &p.Author)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrPostNotFound, id)
		}
		return nil, err
	}

	rows, err := s.query(ctx, `SELECT meta_key, meta_value FROM postmeta WHERE post_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		p.Meta[k] = v
	}
	return p, rows.Err()
}

// CountPosts counts posts of one type. An empty type counts every post.
func (s *Site) CountPosts(ctx context.Context, postType string) (int, error) {
	var n int
	var err error
	if postType == "" {
		err = s.queryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	} else {
		err = s.queryRow(ctx, `SELECT COUNT(*) FROM posts WHERE post_type = ?`, postType).Scan(&n)
	}
	return n, err
}

// DeletePosts removes up to limit posts of one type with their metadata and
// returns how many were removed.
func (s *Site) DeletePosts(ctx context.Context, postType string, limit int) (int, error) {
	rows, err := s.query(ctx, `SELECT id FROM posts WHERE post_type = ? ORDER BY id LIMIT ?`, postType, limit)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if _, err := s.exec(ctx, `DELETE FROM postmeta WHERE post_id = ?`, id); err != nil {
			return 0, err
		}
		if _, err := s.exec(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
			return 0, err
		}
	}

	s.dropObjects("post:" + postType + ":")
	return len(ids), nil
}

// TruncateContent removes every post and all post metadata.
func (s *Site) TruncateContent(ctx context.Context) error {
	for _, stmt := range []string{`DELETE FROM postmeta`, `DELETE FROM posts`} {
		if _, err := s.exec(ctx, stmt); err != nil {
			return err
		}
	}
	s.dropObjects("post:")
	return nil
}
