package users

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

var (
	// ErrExists means the username is already taken.
	ErrExists = errors.New("users: username already exists")
	// ErrNotFound means no account exists with that username.
	ErrNotFound = errors.New("users: user not found")
	// ErrInvalidCredentials means the password check failed.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrNotConfigured means no storage backend is wired.
	ErrNotConfigured = errors.New("users: storage is not configured")
)

// Access holds a sub-admin's permission flags.
type Access struct {
	Leads         bool `json:"leads"`
	Appointments  bool `json:"appointments"`
	Conversations bool `json:"conversations"`
}

// Account is one stored user record. Accounts live in a global directory;
// sub-admins carry a parent link to their tenant.
type Account struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	PasswordHash string  `json:"password_hash"`
	Salt         string  `json:"salt"`
	Role         string  `json:"role"`
	Parent       string  `json:"parent,omitempty"`
	Access       *Access `json:"access,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

// Reassigner maintains round-robin assignments as the sub-admin roster
// changes: Backfill assigns items that predate any eligible sub-admin,
// Reassign moves a removed sub-admin's items to the remaining rotation.
type Reassigner interface {
	Backfill(ctx context.Context, tenant, botID, kind string) int
	Reassign(ctx context.Context, tenant, botID, removed string) int
}

// Service manages account records.
type Service struct {
	store      store.Store
	reassigner Reassigner
	logger     *logging.Logger
	now        func() time.Time
}

// NewService creates the users service. reassigner may be nil.
func NewService(st store.Store, reassigner Reassigner, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: st, reassigner: reassigner, logger: logger, now: time.Now}
}

// Signup creates a tenant account. Field validation happens in the handler;
// this checks uniqueness and persists.
func (s *Service) Signup(ctx context.Context, username, email, phone, password string) error {
	if s.store == nil {
		return ErrNotConfigured
	}

	if existing, _ := s.Get(ctx, username); existing != nil {
		return ErrExists
	}

	salt, hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	account := &Account{
		ID:           username,
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Salt:         salt,
		Role:         "user",
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}
	if err := s.store.Set(ctx, store.Join("users", username), account); err != nil {
		return err
	}
	s.logger.Info("users: account created", "username", username)
	return nil
}

// Authenticate verifies a username/password pair and returns the account.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}

	account, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	if !VerifyPassword(password, account.Salt, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// Get returns the account for username, or nil if absent.
func (s *Service) Get(ctx context.Context, username string) (*Account, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}

	raw, err := s.store.Get(ctx, store.Join("users", username))
	if err != nil {
		return nil, err
	}
	doc, ok := raw.(map[string]any)
	if !ok || len(doc) == 0 {
		return nil, nil
	}
	return accountFromDoc(username, doc), nil
}

// CreateSubadmin creates a sub-admin under parent with the given access.
func (s *Service) CreateSubadmin(ctx context.Context, parent, username, password string, access Access) (*Account, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}

	if existing, _ := s.Get(ctx, username); existing != nil {
		return nil, ErrExists
	}

	salt, hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &Account{
		ID:           username,
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		Role:         "subadmin",
		Parent:       parent,
		Access:       &access,
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}
	if err := s.store.Set(ctx, store.Join("users", username), account); err != nil {
		return nil, err
	}
	s.logger.Info("users: subadmin created", "username", username, "parent", parent)

	// Items created before any sub-admin existed carry no assignee; pull
	// them into the rotation now that one can receive them.
	if s.reassigner != nil {
		botID := s.firstBot(ctx, parent)
		if access.Leads {
			if n := s.reassigner.Backfill(ctx, parent, botID, "leads"); n > 0 {
				s.logger.Info("users: backfilled unassigned leads", "parent", parent, "count", n)
			}
		}
		if access.Appointments {
			if n := s.reassigner.Backfill(ctx, parent, botID, "appointments"); n > 0 {
				s.logger.Info("users: backfilled unassigned appointments", "parent", parent, "count", n)
			}
		}
	}
	return account, nil
}

// ListSubadmins returns parent's sub-admins sorted by username, passwords
// omitted.
func (s *Service) ListSubadmins(ctx context.Context, parent string) []Account {
	if s.store == nil {
		return nil
	}

	matches, err := s.store.OrderByChildEqualTo(ctx, "users", "parent", parent)
	if err != nil {
		s.logger.Warn("users: failed to list subadmins", "parent", parent, "error", err)
		return nil
	}

	subadmins := make([]Account, 0, len(matches))
	for uid, doc := range matches {
		account := accountFromDoc(uid, doc)
		if account.Role != "subadmin" {
			continue
		}
		account.PasswordHash = ""
		account.Salt = ""
		subadmins = append(subadmins, *account)
	}
	sort.Slice(subadmins, func(i, j int) bool { return subadmins[i].Username < subadmins[j].Username })
	return subadmins
}

// DeleteSubadmin reassigns the sub-admin's leads and appointments to the
// remaining rotation, then removes the account record.
func (s *Service) DeleteSubadmin(ctx context.Context, parent, username string) error {
	if s.store == nil {
		return ErrNotConfigured
	}

	account, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	if account == nil || account.Role != "subadmin" || account.Parent != parent {
		return ErrNotFound
	}

	if s.reassigner != nil {
		moved := s.reassigner.Reassign(ctx, parent, s.firstBot(ctx, parent), username)
		if moved > 0 {
			s.logger.Info("users: reassigned items from removed subadmin", "subadmin", username, "count", moved)
		}
	}

	if err := s.store.Delete(ctx, store.Join("users", username)); err != nil {
		s.logger.Warn("users: failed deleting subadmin record", "username", username, "error", err)
		return err
	}
	return nil
}

// firstBot returns the tenant's first bot ID in key order, or "".
func (s *Service) firstBot(ctx context.Context, tenant string) string {
	raw, err := s.store.Get(ctx, store.Join(tenant, "bots"))
	if err != nil {
		return ""
	}
	bots, ok := raw.(map[string]any)
	if !ok || len(bots) == 0 {
		return ""
	}
	ids := make([]string, 0, len(bots))
	for id := range bots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[0]
}

func accountFromDoc(id string, doc map[string]any) *Account {
	account := &Account{
		ID:           id,
		Username:     asString(doc["username"]),
		Email:        asString(doc["email"]),
		Phone:        asString(doc["phone"]),
		PasswordHash: asString(doc["password_hash"]),
		Salt:         asString(doc["salt"]),
		Role:         asString(doc["role"]),
		Parent:       asString(doc["parent"]),
		CreatedAt:    asString(doc["createdAt"]),
	}
	if account.Username == "" {
		account.Username = id
	}
	if account.Role == "" {
		account.Role = "user"
	}
	if access, ok := doc["access"].(map[string]any); ok {
		account.Access = &Access{
			Leads:         asBool(access["leads"]),
			Appointments:  asBool(access["appointments"]),
			Conversations: asBool(access["conversations"]),
		}
	}
	return account
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
