package storage

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"global-app/internal/models"
)

// memoryData is the full in-memory dataset. Rows are stored by value so a
// shallow map copy is a consistent snapshot.
type memoryData struct {
	seq           uint
	users         map[uint]models.User
	profiles      map[uint]models.Profile
	friendships   map[uint]models.Friendship
	requests      map[uint]models.FriendRequest
	posts         map[uint]models.Post
	likes         map[uint]models.Like
	opportunities map[uint]models.Opportunity
	applications  map[uint]models.Application
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:         map[uint]models.User{},
		profiles:      map[uint]models.Profile{},
		friendships:   map[uint]models.Friendship{},
		requests:      map[uint]models.FriendRequest{},
		posts:         map[uint]models.Post{},
		likes:         map[uint]models.Like{},
		opportunities: map[uint]models.Opportunity{},
		applications:  map[uint]models.Application{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memoryData) clone() *memoryData {
	return &memoryData{
		seq:           d.seq,
		users:         cloneMap(d.users),
		profiles:      cloneMap(d.profiles),
		friendships:   cloneMap(d.friendships),
		requests:      cloneMap(d.requests),
		posts:         cloneMap(d.posts),
		likes:         cloneMap(d.likes),
		opportunities: cloneMap(d.opportunities),
		applications:  cloneMap(d.applications),
	}
}

type memoryState struct {
	mu   sync.Mutex // guards data
	txMu sync.Mutex // held by a transaction, or by a single call outside one
	data *memoryData
	now  func() time.Time
}

// MemoryStore is a Store kept entirely in process. It enforces the same
// uniqueness rules as the PostgreSQL schema and returns the same GORM
// sentinel errors, which makes it usable for local development and tests.
// Transactions are serialized and roll back by restoring a snapshot; calls
// made outside a transaction wait until no transaction is open, so the
// snapshot only ever covers the transaction's own writes.
type MemoryStore struct {
	state *memoryState
	inTx  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{data: newMemoryData(), now: time.Now}}
}

// memRepo is embedded by every repository.
type memRepo struct {
	st *memoryState
	tx bool
}

// lock takes the data lock, and outside a transaction also the transaction
// lock. It returns the matching unlock.
func (r memRepo) lock() func() {
	if !r.tx {
		r.st.txMu.Lock()
	}
	r.st.mu.Lock()
	return func() {
		r.st.mu.Unlock()
		if !r.tx {
			r.st.txMu.Unlock()
		}
	}
}

func (s *MemoryStore) repo() memRepo { return memRepo{st: s.state, tx: s.inTx} }

func (s *MemoryStore) Users() UserRepository                   { return memUsers{s.repo()} }
func (s *MemoryStore) Profiles() ProfileRepository             { return memProfiles{s.repo()} }
func (s *MemoryStore) Friendships() FriendshipRepository       { return memFriendships{s.repo()} }
func (s *MemoryStore) FriendRequests() FriendRequestRepository { return memFriendRequests{s.repo()} }
func (s *MemoryStore) Posts() PostRepository                   { return memPosts{s.repo()} }
func (s *MemoryStore) Likes() LikeRepository                   { return memLikes{s.repo()} }
func (s *MemoryStore) Opportunities() OpportunityRepository    { return memOpportunities{s.repo()} }
func (s *MemoryStore) Applications() ApplicationRepository     { return memApplications{s.repo()} }

// Transaction runs fn with every other store call excluded. On error the data
// set is restored to what it was before fn ran, except for the id sequence.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.state.txMu.Lock()
	defer s.state.txMu.Unlock()

	s.state.mu.Lock()
	snapshot := s.state.data.clone()
	s.state.mu.Unlock()

	if err := fn(&MemoryStore{state: s.state, inTx: true}); err != nil {
		s.state.mu.Lock()
		// ids handed out by the failed transaction are not reused
		snapshot.seq = s.state.data.seq
		s.state.data = snapshot
		s.state.mu.Unlock()
		return err
	}
	return nil
}

func (st *memoryState) nextID() uint {
	st.data.seq++
	return st.data.seq
}

func (st *memoryState) stamp(base *models.BaseModel) {
	now := st.now()
	if base.ID == 0 {
		base.ID = st.nextID()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func sortedIDs[V any](m map[uint]V) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func page[T any](rows []T, offset, limit int) []T {
	if offset > len(rows) {
		return rows[:0]
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// --- users ---

type memUsers struct{ memRepo }

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	defer r.lock()()
	for _, u := range r.st.data.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.st.stamp(&user.BaseModel)
	r.st.data.users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer r.lock()()
	u, ok := r.st.data.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r memUsers) find(match func(models.User) bool) (*models.User, error) {
	defer r.lock()()
	for _, id := range sortedIDs(r.st.data.users) {
		u := r.st.data.users[id]
		if match(u) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r memUsers) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	defer r.lock()()
	wanted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	users := []models.User{}
	for _, id := range sortedIDs(r.st.data.users) {
		if wanted[id] {
			users = append(users, r.st.data.users[id])
		}
	}
	return users, nil
}

func (r memUsers) Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error) {
	defer r.lock()()
	q := strings.ToLower(query)
	users := []models.User{}
	for _, u := range r.st.data.users {
		if u.ID == excludeID {
			continue
		}
		if containsFold(u.Username, q) || containsFold(u.FirstName, q) || containsFold(u.LastName, q) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return page(users, 0, limit), nil
}

func (r memUsers) RandomExcluding(ctx context.Context, excludeIDs []uint, limit int) ([]models.User, error) {
	defer r.lock()()
	excluded := make(map[uint]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	users := []models.User{}
	for _, u := range r.st.data.users {
		if !excluded[u.ID] {
			users = append(users, u)
		}
	}
	rand.Shuffle(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] })
	return page(users, 0, limit), nil
}

func (r memUsers) SetStaff(ctx context.Context, id uint, staff bool) error {
	defer r.lock()()
	u, ok := r.st.data.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsStaff = staff
	r.st.data.users[id] = u
	return nil
}

// --- profiles ---

type memProfiles struct{ memRepo }

func (r memProfiles) Create(ctx context.Context, profile *models.Profile) error {
	defer r.lock()()
	for _, p := range r.st.data.profiles {
		if p.UserID == profile.UserID || p.UID == profile.UID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.st.stamp(&profile.BaseModel)
	if profile.FontSize == "" {
		profile.FontSize = models.FontSizeMedium
	}
	stored := *profile
	stored.Socials = append(stored.Socials[:0:0], profile.Socials...)
	r.st.data.profiles[profile.ID] = stored
	return nil
}

func (r memProfiles) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	defer r.lock()()
	for _, p := range r.st.data.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memProfiles) GetByUserIDs(ctx context.Context, userIDs []uint) ([]models.Profile, error) {
	defer r.lock()()
	wanted := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	profiles := []models.Profile{}
	for _, id := range sortedIDs(r.st.data.profiles) {
		if p := r.st.data.profiles[id]; wanted[p.UserID] {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (r memProfiles) Update(ctx context.Context, profile *models.Profile) error {
	if profile.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	defer r.lock()()
	p, ok := r.st.data.profiles[profile.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Avatar = profile.Avatar
	p.Bio = profile.Bio
	p.Socials = append(profile.Socials[:0:0], profile.Socials...)
	p.DarkMode = profile.DarkMode
	p.AssistiveMode = profile.AssistiveMode
	p.FontSize = profile.FontSize
	p.UpdatedAt = r.st.now()
	r.st.data.profiles[p.ID] = p
	profile.UpdatedAt = p.UpdatedAt
	return nil
}

func (r memProfiles) UpdateLastActivity(ctx context.Context, userID uint, at time.Time) error {
	defer r.lock()()
	for id, p := range r.st.data.profiles {
		if p.UserID == userID {
			t := at
			p.LastActivity = &t
			r.st.data.profiles[id] = p
		}
	}
	return nil
}

// --- friendships ---

type memFriendships struct{ memRepo }

func (r memFriendships) findLocked(userID, friendID uint) (uint, bool) {
	for id, f := range r.st.data.friendships {
		if f.UserID == userID && f.FriendID == friendID {
			return id, true
		}
	}
	return 0, false
}

func (r memFriendships) GetOrCreate(ctx context.Context, userID, friendID uint) (bool, error) {
	defer r.lock()()
	if _, ok := r.findLocked(userID, friendID); ok {
		return false, nil
	}
	edge := models.Friendship{UserID: userID, FriendID: friendID}
	r.st.stamp(&edge.BaseModel)
	r.st.data.friendships[edge.ID] = edge
	return true, nil
}

func (r memFriendships) Exists(ctx context.Context, userID, friendID uint) (bool, error) {
	defer r.lock()()
	_, ok := r.findLocked(userID, friendID)
	return ok, nil
}

func (r memFriendships) Delete(ctx context.Context, userID, friendID uint) error {
	defer r.lock()()
	if id, ok := r.findLocked(userID, friendID); ok {
		delete(r.st.data.friendships, id)
	}
	return nil
}

func (r memFriendships) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	defer r.lock()()
	ids := []uint{}
	for _, f := range r.st.data.friendships {
		if f.UserID == userID {
			ids = append(ids, f.FriendID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memFriendships) Count(ctx context.Context, userID uint) (int64, error) {
	ids, err := r.FriendIDs(ctx, userID)
	return int64(len(ids)), err
}

// --- friend requests ---

type memFriendRequests struct{ memRepo }

func (r memFriendRequests) Create(ctx context.Context, request *models.FriendRequest) error {
	defer r.lock()()
	for _, fr := range r.st.data.requests {
		if fr.FromUserID == request.FromUserID && fr.ToUserID == request.ToUserID {
			return gorm.ErrDuplicatedKey
		}
		// Mirrors the partial unique index on the unordered pending pair.
		if request.Status == models.FriendRequestStatusPending && fr.Status == models.FriendRequestStatusPending &&
			fr.Involves(request.FromUserID) && fr.Involves(request.ToUserID) {
			return gorm.ErrDuplicatedKey
		}
	}
	if request.Status == "" {
		request.Status = models.FriendRequestStatusPending
	}
	r.st.stamp(&request.BaseModel)
	r.st.data.requests[request.ID] = *request
	return nil
}

func (r memFriendRequests) GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	defer r.lock()()
	fr, ok := r.st.data.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &fr, nil
}

func (r memFriendRequests) GetByPair(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	defer r.lock()()
	for _, fr := range r.st.data.requests {
		if fr.FromUserID == fromUserID && fr.ToUserID == toUserID {
			return &fr, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memFriendRequests) FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error) {
	defer r.lock()()
	for _, id := range sortedIDs(r.st.data.requests) {
		fr := r.st.data.requests[id]
		if fr.Status == models.FriendRequestStatusPending && fr.Involves(userID1) && fr.Involves(userID2) {
			return &fr, nil
		}
	}
	return nil, nil
}

func (r memFriendRequests) TransitionStatus(ctx context.Context, requestID uint, from, to models.FriendRequestStatus) (bool, error) {
	defer r.lock()()
	fr, ok := r.st.data.requests[requestID]
	if !ok || fr.Status != from {
		return false, nil
	}
	if to == models.FriendRequestStatusPending {
		for id, other := range r.st.data.requests {
			if id != requestID && other.Status == models.FriendRequestStatusPending &&
				other.Involves(fr.FromUserID) && other.Involves(fr.ToUserID) {
				return false, gorm.ErrDuplicatedKey
			}
		}
	}
	fr.Status = to
	fr.UpdatedAt = r.st.now()
	r.st.data.requests[requestID] = fr
	return true, nil
}

func (r memFriendRequests) DeletePending(ctx context.Context, requestID uint) (bool, error) {
	defer r.lock()()
	fr, ok := r.st.data.requests[requestID]
	if !ok || fr.Status != models.FriendRequestStatusPending {
		return false, nil
	}
	delete(r.st.data.requests, requestID)
	return true, nil
}

func (r memFriendRequests) PendingCounterpartIDs(ctx context.Context, userID uint) ([]uint, error) {
	defer r.lock()()
	ids := []uint{}
	for _, fr := range r.st.data.requests {
		if fr.Status == models.FriendRequestStatusPending && fr.Involves(userID) {
			ids = append(ids, fr.Counterpart(userID))
		}
	}
	return ids, nil
}

func (r memFriendRequests) listPending(match func(models.FriendRequest) bool) []models.FriendRequest {
	defer r.lock()()
	requests := []models.FriendRequest{}
	for _, fr := range r.st.data.requests {
		if fr.Status == models.FriendRequestStatusPending && match(fr) {
			requests = append(requests, fr)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID > requests[j].ID })
	return requests
}

func (r memFriendRequests) ListPendingReceived(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return r.listPending(func(fr models.FriendRequest) bool { return fr.ToUserID == userID }), nil
}

func (r memFriendRequests) ListPendingSent(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return r.listPending(func(fr models.FriendRequest) bool { return fr.FromUserID == userID }), nil
}

// --- posts and likes ---

type memPosts struct{ memRepo }

func (r memPosts) Create(ctx context.Context, post *models.Post) error {
	defer r.lock()()
	r.st.stamp(&post.BaseModel)
	r.st.data.posts[post.ID] = *post
	return nil
}

func (r memPosts) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer r.lock()()
	p, ok := r.st.data.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memPosts) Delete(ctx context.Context, id uint) error {
	defer r.lock()()
	delete(r.st.data.posts, id)
	return nil
}

func (r memPosts) newestFirst(match func(models.Post) bool) []models.Post {
	defer r.lock()()
	posts := []models.Post{}
	for _, p := range r.st.data.posts {
		if match(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

func (r memPosts) List(ctx context.Context, offset, limit int) ([]models.Post, error) {
	return page(r.newestFirst(func(models.Post) bool { return true }), offset, limit), nil
}

func (r memPosts) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Post, error) {
	return page(r.newestFirst(func(p models.Post) bool { return p.AuthorID == authorID }), 0, limit), nil
}

type memLikes struct{ memRepo }

func (r memLikes) findLocked(userID, postID uint) (uint, bool) {
	for id, l := range r.st.data.likes {
		if l.UserID == userID && l.PostID == postID {
			return id, true
		}
	}
	return 0, false
}

func (r memLikes) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	defer r.lock()()
	_, ok := r.findLocked(userID, postID)
	return ok, nil
}

func (r memLikes) Create(ctx context.Context, userID, postID uint) error {
	defer r.lock()()
	if _, ok := r.findLocked(userID, postID); ok {
		return nil
	}
	like := models.Like{UserID: userID, PostID: postID}
	r.st.stamp(&like.BaseModel)
	r.st.data.likes[like.ID] = like
	return nil
}

func (r memLikes) Delete(ctx context.Context, userID, postID uint) error {
	defer r.lock()()
	if id, ok := r.findLocked(userID, postID); ok {
		delete(r.st.data.likes, id)
	}
	return nil
}

func (r memLikes) DeleteByPost(ctx context.Context, postID uint) error {
	defer r.lock()()
	for id, l := range r.st.data.likes {
		if l.PostID == postID {
			delete(r.st.data.likes, id)
		}
	}
	return nil
}

func (r memLikes) CountByPost(ctx context.Context, postID uint) (int64, error) {
	counts, err := r.CountByPosts(ctx, []uint{postID})
	return counts[postID], err
}

func (r memLikes) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	defer r.lock()()
	wanted := make(map[uint]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	counts := make(map[uint]int64, len(postIDs))
	for _, l := range r.st.data.likes {
		if wanted[l.PostID] {
			counts[l.PostID]++
		}
	}
	return counts, nil
}

func (r memLikes) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	defer r.lock()()
	wanted := make(map[uint]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	liked := make(map[uint]bool)
	for _, l := range r.st.data.likes {
		if l.UserID == userID && wanted[l.PostID] {
			liked[l.PostID] = true
		}
	}
	return liked, nil
}

// --- opportunities and applications ---

type memOpportunities struct{ memRepo }

func (r memOpportunities) Create(ctx context.Context, opportunity *models.Opportunity) error {
	defer r.lock()()
	if opportunity.Status == "" {
		opportunity.Status = models.OpportunityStatusOpen
	}
	r.st.stamp(&opportunity.BaseModel)
	r.st.data.opportunities[opportunity.ID] = *opportunity
	return nil
}

func (r memOpportunities) GetByID(ctx context.Context, id uint) (*models.Opportunity, error) {
	defer r.lock()()
	o, ok := r.st.data.opportunities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r memOpportunities) List(ctx context.Context, filter OpportunityFilter) ([]models.Opportunity, error) {
	defer r.lock()()
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	list := []models.Opportunity{}
	for _, o := range r.st.data.opportunities {
		if filter.Type != "" && o.Type != filter.Type {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if q != "" && !containsFold(o.Title, q) && !containsFold(o.Company, q) && !containsFold(o.Skills, q) {
			continue
		}
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return page(list, filter.Offset, filter.Limit), nil
}

func (r memOpportunities) UpdateStatus(ctx context.Context, id uint, status models.OpportunityStatus) error {
	defer r.lock()()
	o, ok := r.st.data.opportunities[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	o.UpdatedAt = r.st.now()
	r.st.data.opportunities[id] = o
	return nil
}

type memApplications struct{ memRepo }

func (r memApplications) Create(ctx context.Context, application *models.Application) error {
	defer r.lock()()
	for _, a := range r.st.data.applications {
		if a.OpportunityID == application.OpportunityID && a.UserID == application.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if application.Status == "" {
		application.Status = models.ApplicationStatusPending
	}
	r.st.stamp(&application.BaseModel)
	r.st.data.applications[application.ID] = *application
	return nil
}

func (r memApplications) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	defer r.lock()()
	a, ok := r.st.data.applications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r memApplications) GetByPair(ctx context.Context, opportunityID, userID uint) (*models.Application, error) {
	defer r.lock()()
	for _, a := range r.st.data.applications {
		if a.OpportunityID == opportunityID && a.UserID == userID {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memApplications) Delete(ctx context.Context, id uint) error {
	defer r.lock()()
	delete(r.st.data.applications, id)
	return nil
}

func (r memApplications) UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus, notes *string) error {
	defer r.lock()()
	a, ok := r.st.data.applications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	if notes != nil {
		a.AdminNotes = *notes
	}
	a.UpdatedAt = r.st.now()
	r.st.data.applications[id] = a
	return nil
}

func (r memApplications) list(match func(models.Application) bool, newestFirst bool) []models.Application {
	defer r.lock()()
	list := []models.Application{}
	for _, id := range sortedIDs(r.st.data.applications) {
		if a := r.st.data.applications[id]; match(a) {
			list = append(list, a)
		}
	}
	if newestFirst {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}
	return list
}

func (r memApplications) ListByUser(ctx context.Context, userID uint) ([]models.Application, error) {
	return r.list(func(a models.Application) bool { return a.UserID == userID }, true), nil
}

func (r memApplications) ListByOpportunity(ctx context.Context, opportunityID uint) ([]models.Application, error) {
	return r.list(func(a models.Application) bool { return a.OpportunityID == opportunityID }, false), nil
}

func (r memApplications) CountByOpportunities(ctx context.Context, opportunityIDs []uint) (map[uint]int64, error) {
	defer r.lock()()
	wanted := make(map[uint]bool, len(opportunityIDs))
	for _, id := range opportunityIDs {
		wanted[id] = true
	}
	counts := make(map[uint]int64, len(opportunityIDs))
	for _, a := range r.st.data.applications {
		if wanted[a.OpportunityID] {
			counts[a.OpportunityID]++
		}
	}
	return counts, nil
}
