package cascade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
)

// fakeStore is an in-memory Store. Tombstones are applied in place; the
// fake tx manager snapshots and restores it to simulate rollback.
type fakeStore struct {
	users       map[id.ID]*fakeUser
	posts       map[id.ID]*fakePost
	comments    map[id.ID]*fakeComment
	attachments map[id.ID]*fakeAttachment

	readErr   error  // returned by every Reader method when set
	failTable string // Writer method for this table fails
}

type fakeUser struct {
	deletedAt *time.Time
}

type fakePost struct {
	authorID  id.ID
	deletedAt *time.Time
}

type fakeComment struct {
	postID    id.ID
	authorID  id.ID
	parentID  *id.ID
	depth     int
	deletedAt *time.Time
}

type fakeAttachment struct {
	postID    id.ID
	url       string
	deletedAt *time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[id.ID]*fakeUser),
		posts:       make(map[id.ID]*fakePost),
		comments:    make(map[id.ID]*fakeComment),
		attachments: make(map[id.ID]*fakeAttachment),
	}
}

func (s *fakeStore) addUser() id.ID {
	uid := id.New()
	s.users[uid] = &fakeUser{}
	return uid
}

func (s *fakeStore) addPost(author id.ID) id.ID {
	pid := id.New()
	s.posts[pid] = &fakePost{authorID: author}
	return pid
}

func (s *fakeStore) addComment(post, author id.ID, parent *id.ID) id.ID {
	depth := 0
	if parent != nil {
		depth = s.comments[*parent].depth + 1
	}
	cid := id.New()
	s.comments[cid] = &fakeComment{postID: post, authorID: author, parentID: parent, depth: depth}
	return cid
}

func (s *fakeStore) addAttachment(post id.ID, url string) id.ID {
	aid := id.New()
	s.attachments[aid] = &fakeAttachment{postID: post, url: url}
	return aid
}

func (s *fakeStore) UserState(_ context.Context, userID id.ID) (RootState, error) {
	if s.readErr != nil {
		return RootState{}, s.readErr
	}
	u, ok := s.users[userID]
	if !ok {
		return RootState{}, nil
	}
	return RootState{Found: true, DeletedAt: u.deletedAt}, nil
}

func (s *fakeStore) PostState(_ context.Context, postID id.ID) (RootState, error) {
	if s.readErr != nil {
		return RootState{}, s.readErr
	}
	p, ok := s.posts[postID]
	if !ok {
		return RootState{}, nil
	}
	return RootState{Found: true, DeletedAt: p.deletedAt}, nil
}

func (s *fakeStore) CommentRefByID(_ context.Context, commentID id.ID) (RootState, CommentRef, error) {
	if s.readErr != nil {
		return RootState{}, CommentRef{}, s.readErr
	}
	c, ok := s.comments[commentID]
	if !ok {
		return RootState{}, CommentRef{}, nil
	}
	return RootState{Found: true, DeletedAt: c.deletedAt}, CommentRef{ID: commentID, Depth: c.depth}, nil
}

func (s *fakeStore) ChildComments(_ context.Context, parentIDs []id.ID) ([]CommentRef, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	parents := make(map[id.ID]struct{}, len(parentIDs))
	for _, p := range parentIDs {
		parents[p] = struct{}{}
	}
	var out []CommentRef
	for cid, c := range s.comments {
		if c.deletedAt != nil || c.parentID == nil {
			continue
		}
		if _, ok := parents[*c.parentID]; ok {
			out = append(out, CommentRef{ID: cid, Depth: c.depth})
		}
	}
	return out, nil
}

func (s *fakeStore) PostIDsByAuthor(_ context.Context, userID id.ID) ([]id.ID, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []id.ID
	for pid, p := range s.posts {
		if p.deletedAt == nil && p.authorID == userID {
			out = append(out, pid)
		}
	}
	return out, nil
}

func (s *fakeStore) CommentsByAuthor(_ context.Context, userID id.ID) ([]CommentRef, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []CommentRef
	for cid, c := range s.comments {
		if c.deletedAt == nil && c.authorID == userID {
			out = append(out, CommentRef{ID: cid, Depth: c.depth})
		}
	}
	return out, nil
}

func (s *fakeStore) CommentsByPost(_ context.Context, postID id.ID) ([]CommentRef, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []CommentRef
	for cid, c := range s.comments {
		if c.deletedAt == nil && c.postID == postID {
			out = append(out, CommentRef{ID: cid, Depth: c.depth})
		}
	}
	return out, nil
}

func (s *fakeStore) AttachmentsByPosts(_ context.Context, postIDs []id.ID) ([]AttachmentRef, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	posts := make(map[id.ID]struct{}, len(postIDs))
	for _, p := range postIDs {
		posts[p] = struct{}{}
	}
	var out []AttachmentRef
	for aid, a := range s.attachments {
		if a.deletedAt != nil {
			continue
		}
		if _, ok := posts[a.postID]; ok {
			out = append(out, AttachmentRef{ID: aid, URL: a.url})
		}
	}
	return out, nil
}

func (s *fakeStore) TombstoneUsers(_ context.Context, ids []id.ID, at time.Time) (int64, error) {
	if s.failTable == "users" {
		return 0, errors.New("users write failed")
	}
	var n int64
	for _, uid := range ids {
		if u, ok := s.users[uid]; ok && u.deletedAt == nil {
			t := at
			u.deletedAt = &t
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) TombstonePosts(_ context.Context, ids []id.ID, at time.Time) (int64, error) {
	if s.failTable == "posts" {
		return 0, errors.New("posts write failed")
	}
	var n int64
	for _, pid := range ids {
		if p, ok := s.posts[pid]; ok && p.deletedAt == nil {
			t := at
			p.deletedAt = &t
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) TombstoneComments(_ context.Context, ids []id.ID, at time.Time) (int64, error) {
	if s.failTable == "comments" {
		return 0, errors.New("comments write failed")
	}
	var n int64
	for _, cid := range ids {
		if c, ok := s.comments[cid]; ok && c.deletedAt == nil {
			t := at
			c.deletedAt = &t
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) TombstoneAttachments(_ context.Context, ids []id.ID, at time.Time) (int64, error) {
	if s.failTable == "attachments" {
		return 0, errors.New("attachments write failed")
	}
	var n int64
	for _, aid := range ids {
		if a, ok := s.attachments[aid]; ok && a.deletedAt == nil {
			t := at
			a.deletedAt = &t
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) snapshot() *fakeStore {
	cp := newFakeStore()
	for k, v := range s.users {
		u := *v
		cp.users[k] = &u
	}
	for k, v := range s.posts {
		p := *v
		cp.posts[k] = &p
	}
	for k, v := range s.comments {
		c := *v
		cp.comments[k] = &c
	}
	for k, v := range s.attachments {
		a := *v
		cp.attachments[k] = &a
	}
	return cp
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.users = snap.users
	s.posts = snap.posts
	s.comments = snap.comments
	s.attachments = snap.attachments
}

// fakeTxManager snapshots the store before fn and restores it when fn
// fails, matching real rollback semantics.
type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type recordingNotifier struct {
	plans []*Plan
	err   error
}

func (n *recordingNotifier) AttachmentsTombstoned(_ context.Context, plan *Plan) error {
	if n.err != nil {
		return n.err
	}
	n.plans = append(n.plans, plan)
	return nil
}

type recordingRecorder struct {
	plans []*Plan
	at    []time.Time
}

func (r *recordingRecorder) RecordCascade(_ context.Context, plan *Plan, deletedAt time.Time) error {
	r.plans = append(r.plans, plan)
	r.at = append(r.at, deletedAt)
	return nil
}

func newTestEngine(store *fakeStore, opts ...Option) *Engine {
	return NewEngine(store, &fakeTxManager{store: store}, opts...)
}

func TestDeleteComment_TombstonesSubtreeOnly(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)

	root := store.addComment(postID, author, nil)
	child := store.addComment(postID, author, &root)
	grandchild := store.addComment(postID, author, &child)
	sibling := store.addComment(postID, author, nil)

	engine := newTestEngine(store)

	res, err := engine.Delete(context.Background(), child, KindComment)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if res.AlreadyDeleted {
		t.Fatal("expected a live cascade, got AlreadyDeleted")
	}
	if res.Affected != 2 {
		t.Errorf("affected rows: want 2, got %d", res.Affected)
	}

	if store.comments[child].deletedAt == nil {
		t.Error("child comment not tombstoned")
	}
	if store.comments[grandchild].deletedAt == nil {
		t.Error("grandchild comment not tombstoned")
	}
	if store.comments[root].deletedAt != nil {
		t.Error("parent of the root must survive")
	}
	if store.comments[sibling].deletedAt != nil {
		t.Error("sibling subtree must survive")
	}
	if store.posts[postID].deletedAt != nil {
		t.Error("post must survive a comment cascade")
	}
}

func TestDeleteComment_SingleTimestamp(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)

	root := store.addComment(postID, author, nil)
	child := store.addComment(postID, author, &root)

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(store, WithClock(func() time.Time { return fixed }))

	res, err := engine.Delete(context.Background(), root, KindComment)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !res.DeletedAt.Equal(fixed) {
		t.Errorf("result timestamp: want %v, got %v", fixed, res.DeletedAt)
	}
	for _, cid := range []id.ID{root, child} {
		got := store.comments[cid].deletedAt
		if got == nil || !got.Equal(fixed) {
			t.Errorf("comment %s timestamp: want %v, got %v", cid, fixed, got)
		}
	}
}

func TestDeletePost_CascadesCommentsAndAttachments(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	other := store.addUser()
	postID := store.addPost(author)
	otherPost := store.addPost(other)

	c1 := store.addComment(postID, other, nil)
	c2 := store.addComment(postID, author, &c1)
	unrelated := store.addComment(otherPost, author, nil)
	att := store.addAttachment(postID, "/static/a.png")

	notifier := &recordingNotifier{}
	recorder := &recordingRecorder{}
	engine := newTestEngine(store, WithNotifier(notifier), WithRecorder(recorder))

	res, err := engine.Delete(context.Background(), postID, KindPost)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// post + two comments + attachment
	if res.Affected != 4 {
		t.Errorf("affected rows: want 4, got %d", res.Affected)
	}
	if store.posts[postID].deletedAt == nil {
		t.Error("post not tombstoned")
	}
	if store.comments[c1].deletedAt == nil || store.comments[c2].deletedAt == nil {
		t.Error("post comments not tombstoned")
	}
	if store.attachments[att].deletedAt == nil {
		t.Error("attachment not tombstoned")
	}
	if store.comments[unrelated].deletedAt != nil {
		t.Error("comment on another post must survive")
	}
	if store.users[author].deletedAt != nil {
		t.Error("author must survive a post cascade")
	}

	if len(notifier.plans) != 1 {
		t.Fatalf("notifier calls: want 1, got %d", len(notifier.plans))
	}
	urls := notifier.plans[0].AttachmentURLs()
	if len(urls) != 1 || urls[0] != "/static/a.png" {
		t.Errorf("notified urls: want [/static/a.png], got %v", urls)
	}
	if len(recorder.plans) != 1 {
		t.Fatalf("recorder calls: want 1, got %d", len(recorder.plans))
	}
	if !recorder.at[0].Equal(res.DeletedAt) {
		t.Error("recorder must receive the cascade timestamp")
	}
}

func TestDeleteUser_FixedPointClosure(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser()
	bob := store.addUser()
	carol := store.addUser()

	// Alice's post carries comments by others.
	alicePost := store.addPost(alice)
	bobOnAlice := store.addComment(alicePost, bob, nil)
	aliceAtt := store.addAttachment(alicePost, "/static/alice.png")

	// Alice commented on Bob's post; Carol replied to Alice there. The
	// reply is reachable only through descendant expansion of Alice's
	// authored comment.
	bobPost := store.addPost(bob)
	aliceOnBob := store.addComment(bobPost, alice, nil)
	carolReply := store.addComment(bobPost, carol, &aliceOnBob)

	// Carol's unrelated activity must survive.
	carolPost := store.addPost(carol)
	carolComment := store.addComment(carolPost, carol, nil)

	engine := newTestEngine(store)

	res, err := engine.Delete(context.Background(), alice, KindUser)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// alice + her post + attachment + 3 comments
	if res.Affected != 6 {
		t.Errorf("affected rows: want 6, got %d", res.Affected)
	}

	for name, deleted := range map[string]*time.Time{
		"user":                 store.users[alice].deletedAt,
		"authored post":        store.posts[alicePost].deletedAt,
		"attachment":           store.attachments[aliceAtt].deletedAt,
		"comment on her post":  store.comments[bobOnAlice].deletedAt,
		"authored comment":     store.comments[aliceOnBob].deletedAt,
		"reply to her comment": store.comments[carolReply].deletedAt,
	} {
		if deleted == nil {
			t.Errorf("%s not tombstoned", name)
		}
	}

	if store.posts[bobPost].deletedAt != nil {
		t.Error("host post of an authored comment must survive")
	}
	if store.users[bob].deletedAt != nil || store.users[carol].deletedAt != nil {
		t.Error("other users must survive")
	}
	if store.posts[carolPost].deletedAt != nil || store.comments[carolComment].deletedAt != nil {
		t.Error("unrelated activity must survive")
	}
}

func TestDelete_AlreadyTombstonedIsNoOp(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)
	store.addComment(postID, author, nil)
	store.addAttachment(postID, "/static/a.png")

	notifier := &recordingNotifier{}
	recorder := &recordingRecorder{}
	engine := newTestEngine(store, WithNotifier(notifier), WithRecorder(recorder))

	first, err := engine.Delete(context.Background(), postID, KindPost)
	if err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	firstStamp := *store.posts[postID].deletedAt

	second, err := engine.Delete(context.Background(), postID, KindPost)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if !second.AlreadyDeleted {
		t.Error("second delete must report AlreadyDeleted")
	}
	if second.Affected != 0 {
		t.Errorf("second delete affected rows: want 0, got %d", second.Affected)
	}
	if first.AlreadyDeleted {
		t.Error("first delete must not report AlreadyDeleted")
	}
	if !store.posts[postID].deletedAt.Equal(firstStamp) {
		t.Error("repeat delete must not overwrite the original tombstone")
	}
	if len(notifier.plans) != 1 || len(recorder.plans) != 1 {
		t.Error("collaborators must not run on the idempotent path")
	}
}

func TestDelete_RootNotFound(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	for _, kind := range []Kind{KindUser, KindPost, KindComment} {
		_, err := engine.Delete(context.Background(), id.New(), kind)
		if !apperror.IsNotFound(err) {
			t.Errorf("%s root: want NOT_FOUND, got %v", kind, err)
		}
	}
}

func TestDelete_ResolutionFailureHasNoSideEffects(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)
	store.readErr = errors.New("connection reset")

	engine := newTestEngine(store)

	_, err := engine.Delete(context.Background(), postID, KindPost)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeResolutionFailure {
		t.Fatalf("want RESOLUTION_FAILURE, got %v", err)
	}
	if !apperror.IsRetryable(err) {
		t.Error("resolution failure must be retryable")
	}

	store.readErr = nil
	if store.posts[postID].deletedAt != nil {
		t.Error("read failure must leave no tombstones")
	}
}

func TestDelete_WriteFailureRollsBackEverything(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)
	c1 := store.addComment(postID, author, nil)
	att := store.addAttachment(postID, "/static/x.png")

	// Attachments and comments tombstone before posts; the posts failure
	// must undo them all.
	store.failTable = "posts"

	engine := newTestEngine(store)

	_, err := engine.Delete(context.Background(), postID, KindPost)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeTransactionFailure {
		t.Fatalf("want TRANSACTION_FAILURE, got %v", err)
	}
	if !apperror.IsRetryable(err) {
		t.Error("transaction failure must be retryable")
	}

	if store.posts[postID].deletedAt != nil {
		t.Error("post tombstoned despite rollback")
	}
	if store.comments[c1].deletedAt != nil {
		t.Error("comment tombstone survived rollback")
	}
	if store.attachments[att].deletedAt != nil {
		t.Error("attachment tombstone survived rollback")
	}
}

func TestDelete_NotifierFailureRollsBack(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)
	att := store.addAttachment(postID, "/static/x.png")

	engine := newTestEngine(store, WithNotifier(&recordingNotifier{err: errors.New("outbox insert failed")}))

	_, err := engine.Delete(context.Background(), postID, KindPost)
	if err == nil {
		t.Fatal("expected an error")
	}
	if store.posts[postID].deletedAt != nil || store.attachments[att].deletedAt != nil {
		t.Error("notifier failure must roll the cascade back")
	}
}

func TestDelete_UnknownRootKind(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	_, err := engine.Delete(context.Background(), id.New(), Kind("organization"))
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Errorf("want VALIDATION_ERROR, got %v", err)
	}
}
