package service

import (
	"context"
	"testing"
	"time"

	"lexaid-go/internal/apperr"
	"lexaid-go/internal/model"
	"lexaid-go/pkg/token"

	"gorm.io/gorm"
)

// fakeUserRepo 是 UserRepository 的内存实现。
type fakeUserRepo struct {
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User)}
}

func (f *fakeUserRepo) Create(user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *u
	return &found, nil
}

// fakeBlacklist 是 TokenBlacklist 的内存实现。
type fakeBlacklist struct {
	entries map[string]bool
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{entries: make(map[string]bool)}
}

func (f *fakeBlacklist) Add(_ context.Context, tokenString string, ttl time.Duration) error {
	if ttl > 0 {
		f.entries[tokenString] = true
	}
	return nil
}

func (f *fakeBlacklist) Contains(_ context.Context, tokenString string) (bool, error) {
	return f.entries[tokenString], nil
}

func newTestUserService() (UserService, *fakeUserRepo, *fakeBlacklist, *token.JWTManager) {
	repo := newFakeUserRepo()
	blacklist := newFakeBlacklist()
	jwtManager := token.NewJWTManager("test-secret", 7)
	return NewUserService(repo, blacklist, jwtManager), repo, blacklist, jwtManager
}

func TestRegister_Success(t *testing.T) {
	svc, _, _, jwtManager := newTestUserService()

	user, tokenString, err := svc.Register("Asha", "asha@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected user to be assigned an ID")
	}
	if user.Password == "password123" {
		t.Error("stored password must be hashed")
	}

	// 返回的 token 必须能解析回新用户的身份
	claims, err := jwtManager.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("returned token failed verification: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token identity mismatch: expected %d, got %d", user.ID, claims.UserID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	if _, _, err := svc.Register("Asha", "asha@example.com", "password123"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, _, err := svc.Register("Other", "asha@example.com", "different-pass")
	if err == nil {
		t.Fatal("expected duplicate email registration to fail")
	}
	if apperr.KindOf(err) != apperr.Conflict {
		t.Errorf("expected Conflict, got kind %v", apperr.KindOf(err))
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, _, jwtManager := newTestUserService()

	registered, _, err := svc.Register("Asha", "asha@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, tokenString, err := svc.Login("asha@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("expected user %d, got %d", registered.ID, user.ID)
	}

	claims, err := jwtManager.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("returned token failed verification: %v", err)
	}
	if claims.UserID != registered.ID {
		t.Errorf("token identity mismatch: expected %d, got %d", registered.ID, claims.UserID)
	}
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	if _, _, err := svc.Register("Asha", "asha@example.com", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, _, errUnknown := svc.Login("nobody@example.com", "password123")
	_, _, errWrongPw := svc.Login("asha@example.com", "wrong-password")

	if errUnknown == nil || errWrongPw == nil {
		t.Fatal("expected both logins to fail")
	}
	if apperr.KindOf(errUnknown) != apperr.Auth || apperr.KindOf(errWrongPw) != apperr.Auth {
		t.Error("expected Auth errors for both failures")
	}
	// 两种失败必须返回完全相同的文案，避免账号枚举
	if apperr.ClientMessage(errUnknown) != apperr.ClientMessage(errWrongPw) {
		t.Errorf("error messages differ: %q vs %q",
			apperr.ClientMessage(errUnknown), apperr.ClientMessage(errWrongPw))
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	_, err := svc.GetProfile(999)
	if err == nil {
		t.Fatal("expected GetProfile for missing user to fail")
	}
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound, got kind %v", apperr.KindOf(err))
	}
}

func TestLogout_BlacklistsToken(t *testing.T) {
	svc, _, blacklist, _ := newTestUserService()

	_, tokenString, err := svc.Register("Asha", "asha@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.Logout(tokenString); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if listed, _ := blacklist.Contains(context.Background(), tokenString); !listed {
		t.Error("expected token to be blacklisted after logout")
	}
}

func TestLogout_InvalidToken(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	err := svc.Logout("garbage")
	if err == nil {
		t.Fatal("expected Logout with invalid token to fail")
	}
	if apperr.KindOf(err) != apperr.Auth {
		t.Errorf("expected Auth, got kind %v", apperr.KindOf(err))
	}
}
