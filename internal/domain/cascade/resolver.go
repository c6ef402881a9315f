package cascade

import (
	"context"
	"fmt"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
)

// Resolver computes the complete closure of rows a cascade must tombstone.
// It only reads; resolution failures abort before any write begins.
type Resolver struct {
	reader Reader
	walker *TreeWalker
}

// NewResolver creates a resolver over the given reader.
func NewResolver(reader Reader) *Resolver {
	return &Resolver{
		reader: reader,
		walker: NewTreeWalker(reader),
	}
}

// Resolve builds the cascade plan for a root entity.
//
// A root that never existed fails with NOT_FOUND. A root that is already
// tombstoned resolves to an empty plan: deleting twice is idempotent
// success, not an error.
func (r *Resolver) Resolve(ctx context.Context, rootID id.ID, rootKind Kind) (*Plan, error) {
	plan := &Plan{RootID: rootID, RootKind: rootKind}

	switch rootKind {
	case KindComment:
		if err := r.resolveComment(ctx, rootID, plan); err != nil {
			return nil, err
		}
	case KindPost:
		if err := r.resolvePost(ctx, rootID, plan); err != nil {
			return nil, err
		}
	case KindUser:
		if err := r.resolveUser(ctx, rootID, plan); err != nil {
			return nil, err
		}
	default:
		return nil, apperror.NewValidation("unknown cascade root kind").
			WithDetail("kind", string(rootKind))
	}

	return plan, nil
}

func (r *Resolver) resolveComment(ctx context.Context, rootID id.ID, plan *Plan) error {
	state, ref, err := r.reader.CommentRefByID(ctx, rootID)
	if err != nil {
		return apperror.NewResolutionFailure(fmt.Errorf("load comment root: %w", err))
	}
	if !state.Found {
		return apperror.NewNotFound("comment", rootID.String())
	}
	if state.Deleted() {
		return nil
	}

	descendants, err := r.walker.Descendants(ctx, rootID)
	if err != nil {
		return apperror.NewResolutionFailure(err)
	}

	plan.Comments = append(plan.Comments, ref)
	plan.Comments = append(plan.Comments, descendants...)
	return nil
}

func (r *Resolver) resolvePost(ctx context.Context, rootID id.ID, plan *Plan) error {
	state, err := r.reader.PostState(ctx, rootID)
	if err != nil {
		return apperror.NewResolutionFailure(fmt.Errorf("load post root: %w", err))
	}
	if !state.Found {
		return apperror.NewNotFound("post", rootID.String())
	}
	if state.Deleted() {
		return nil
	}

	// Every comment row carries the post id, so one query covers the whole
	// forest regardless of depth.
	comments, err := r.reader.CommentsByPost(ctx, rootID)
	if err != nil {
		return apperror.NewResolutionFailure(fmt.Errorf("load post comments: %w", err))
	}

	attachments, err := r.reader.AttachmentsByPosts(ctx, []id.ID{rootID})
	if err != nil {
		return apperror.NewResolutionFailure(fmt.Errorf("load post attachments: %w", err))
	}

	plan.Posts = append(plan.Posts, rootID)
	plan.Comments = append(plan.Comments, comments...)
	plan.Attachments = append(plan.Attachments, attachments...)
	return nil
}

// resolveUser closes the comment set to a fixed point. Comments enter the
// set two ways: authored by the user, or belonging to one of the user's
// posts. A comment pulled in by authorship may parent replies written by
// other users on other people's posts, so descendants of every newly added
// comment are expanded until no new comment appears.
func (r *Resolver) resolveUser(ctx context.Context, rootID id.ID, plan *Plan) error {
	state, err := r.reader.UserState(ctx, rootID)
	if err != nil {
		return apperror.NewResolutionFailure(fmt.Errorf("load user root: %w", err))
	}
	if !state.Found {
		return apperror.NewNotFound("user", rootID.String())
	}
	if state.Deleted() {
		return nil
	}

	postIDs, err := r.reader.PostIDsByAuthor(ctx, rootID)
	if err != nil {
		return apperror.NewResolutionFailure(fmt.Errorf("load authored posts: %w", err))
	}

	seen := make(map[id.ID]struct{})
	var comments []CommentRef
	add := func(refs []CommentRef) []id.ID {
		var added []id.ID
		for _, ref := range refs {
			if _, ok := seen[ref.ID]; ok {
				continue
			}
			seen[ref.ID] = struct{}{}
			comments = append(comments, ref)
			added = append(added, ref.ID)
		}
		return added
	}

	authored, err := r.reader.CommentsByAuthor(ctx, rootID)
	if err != nil {
		return apperror.NewResolutionFailure(fmt.Errorf("load authored comments: %w", err))
	}
	newIDs := add(authored)

	for _, postID := range postIDs {
		onPost, err := r.reader.CommentsByPost(ctx, postID)
		if err != nil {
			return apperror.NewResolutionFailure(fmt.Errorf("load comments of post %s: %w", postID, err))
		}
		newIDs = append(newIDs, add(onPost)...)
	}

	// Fixed point: re-expand descendants of everything newly added until
	// the frontier is exhausted.
	for len(newIDs) > 0 {
		descendants, err := r.walker.DescendantsOfAll(ctx, newIDs)
		if err != nil {
			return apperror.NewResolutionFailure(err)
		}
		newIDs = add(descendants)
	}

	attachments, err := r.reader.AttachmentsByPosts(ctx, postIDs)
	if err != nil {
		return apperror.NewResolutionFailure(fmt.Errorf("load attachments: %w", err))
	}

	plan.Users = append(plan.Users, rootID)
	plan.Posts = append(plan.Posts, postIDs...)
	plan.Comments = append(plan.Comments, comments...)
	plan.Attachments = append(plan.Attachments, attachments...)
	return nil
}
