package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"noodlemap/pkg/models"
)

// boundsResultCap limits how many shops a viewport query returns.
const boundsResultCap = 200

// account is the server-side user record.
type account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	Roles        []models.Role
	OwnedShopIDs []int64
	CreatedAt    time.Time
}

// Store is the in-memory backing state for the reference server. It exists
// so the client suite can run against a live HTTP surface with zero external
// services; it is not a storage engine.
type Store struct {
	mu           sync.Mutex
	users        map[int64]*account
	shops        map[int64]*models.Shop
	reviews      map[models.ReviewID]*models.Review
	nextUserID   int64
	nextShopID   int64
	nextReviewID int64
	nextMediaID  int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[int64]*account),
		shops:   make(map[int64]*models.Shop),
		reviews: make(map[models.ReviewID]*models.Review),
	}
}

// CreateUser registers an account. The first account ever created gets the
// admin role so a fresh dev server is administrable.
func (s *Store) CreateUser(username, email, password string, shopOwner bool) (*account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return nil, models.ErrUsernameExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	roles := []models.Role{models.RoleUser}
	if shopOwner {
		roles = append(roles, models.RoleShopOwner)
	}
	if len(s.users) == 0 {
		roles = append(roles, models.RoleAdmin)
	}

	s.nextUserID++
	u := &account{
		ID:           s.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	return u, nil
}

// Authenticate checks credentials and returns the account.
func (s *Store) Authenticate(username, password string) (*account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
				return nil, models.ErrInvalidCredentials
			}
			return u, nil
		}
	}
	return nil, models.ErrInvalidCredentials
}

// GetUser returns an account by id.
func (s *Store) GetUser(id int64) (*account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// ListUsers returns one page of accounts ordered by creation.
func (s *Store) ListUsers(pageNo, pageSize int) models.Page[models.UserAccount] {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]models.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, models.UserAccount{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Roles:     append([]models.Role(nil), u.Roles...),
			CreatedAt: u.CreatedAt,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return models.NewPage(all, pageNo, pageSize)
}

// SetUserRole replaces a user's role set with {ROLE_USER, role} (or just the
// role when it is ROLE_USER).
func (s *Store) SetUserRole(id int64, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	roles := []models.Role{models.RoleUser}
	if role != models.RoleUser {
		roles = append(roles, role)
	}
	u.Roles = roles
	return nil
}

// CreateShop adds a shop owned by ownerID.
func (s *Store) CreateShop(ownerID int64, req models.ShopRequest) (*models.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.users[ownerID]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	s.nextShopID++
	now := time.Now()
	shop := &models.Shop{
		ID:           s.nextShopID,
		Name:         req.Name,
		Address:      req.Address,
		City:         req.City,
		Phone:        req.Phone,
		OpeningHours: req.OpeningHours,
		Description:  req.Description,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Owner:        &models.ShopOwner{ID: owner.ID, Username: owner.Username},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.shops[shop.ID] = shop
	owner.OwnedShopIDs = append(owner.OwnedShopIDs, shop.ID)
	return shop, nil
}

// GetShop returns a shop by id.
func (s *Store) GetShop(id int64) (*models.Shop, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[id]
	return shop, ok
}

// UpdateShop edits a shop in place.
func (s *Store) UpdateShop(id int64, req models.ShopRequest) (*models.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shop, ok := s.shops[id]
	if !ok {
		return nil, models.ErrShopNotFound
	}
	shop.Name = req.Name
	shop.Address = req.Address
	shop.City = req.City
	shop.Phone = req.Phone
	shop.OpeningHours = req.OpeningHours
	shop.Description = req.Description
	shop.Latitude = req.Latitude
	shop.Longitude = req.Longitude
	shop.UpdatedAt = time.Now()
	return shop, nil
}

// DeleteShop removes a shop and every review under it.
func (s *Store) DeleteShop(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shops[id]; !ok {
		return models.ErrShopNotFound
	}
	delete(s.shops, id)
	for rid, r := range s.reviews {
		if r.ShopID == id {
			delete(s.reviews, rid)
		}
	}
	for _, u := range s.users {
		kept := u.OwnedShopIDs[:0]
		for _, sid := range u.OwnedShopIDs {
			if sid != id {
				kept = append(kept, sid)
			}
		}
		u.OwnedShopIDs = kept
	}
	return nil
}

// ListShops returns one page of shops under sort and city filter.
func (s *Store) ListShops(pageNo, pageSize int, sortSpec models.SortSpec, city string) models.Page[models.Shop] {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]models.Shop, 0, len(s.shops))
	for _, shop := range s.shops {
		if city != "" && shop.City != city {
			continue
		}
		all = append(all, *shop)
	}
	sortShops(all, sortSpec)
	return models.NewPage(all, pageNo, pageSize)
}

// ShopsInBounds returns every shop inside the viewport, capped.
func (s *Store) ShopsInBounds(b models.Bounds) []models.Shop {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Shop, 0)
	for _, shop := range s.shops {
		if b.Contains(shop.Latitude, shop.Longitude) {
			out = append(out, *shop)
			if len(out) == boundsResultCap {
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortShops(shops []models.Shop, spec models.SortSpec) {
	less := func(i, j int) bool { return shops[i].CreatedAt.Before(shops[j].CreatedAt) }
	switch spec.By {
	case models.SortByAverageRating:
		less = func(i, j int) bool { return shops[i].AverageRating < shops[j].AverageRating }
	case models.SortByWeightedRating:
		less = func(i, j int) bool { return shops[i].WeightedRating < shops[j].WeightedRating }
	case models.SortByReviewCount:
		less = func(i, j int) bool { return shops[i].ReviewCount < shops[j].ReviewCount }
	}
	if spec.Dir == models.SortDesc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(shops, less)
}
