package service

import (
	"context"
	"fmt"

	"github.com/polbel-next/internal/repository"
	"github.com/polbel-next/internal/schema"
)

// CommentPolicy 评论写入规则：游客评论需审核，评论必须挂在已存在的文章下
type CommentPolicy struct {
	repo repository.EntityRepository
}

// NewCommentPolicy 注册评论钩子
func NewCommentPolicy(entities *EntityService, repo repository.EntityRepository) *CommentPolicy {
	p := &CommentPolicy{repo: repo}
	entities.Use(schema.EntityComment, EntityHooks{
		BeforeCreate: p.beforeCreate,
	})
	return p
}

func (p *CommentPolicy) beforeCreate(ctx context.Context, actor *Actor, record Record) error {
	if !actor.IsAdmin() {
		record["approved"] = false
	}
	postID, ok := parseID(fmt.Sprint(record["post_id"]))
	if !ok {
		return invalid("post_id", "must be a positive integer")
	}
	post, err := p.repo.FindByID(ctx, schema.MustGet(schema.EntityPost), postID)
	if err != nil {
		return storageErr("check comment post", err)
	}
	if post == nil {
		return invalid("post_id", "post does not exist")
	}
	return nil
}
