// Package auth はIDトークン検証、セッショントークン発行、パスワード認証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskboard/internal/metrics"
	"github.com/hitoshi/taskboard/internal/model"
	"github.com/hitoshi/taskboard/internal/repository"
)

const (
	// DefaultUserName はIdPから名前が得られない場合の表示名。
	DefaultUserName = "User"
	// MaxNameLength は表示名の最大文字数。
	MaxNameLength = 100

	loginMethodGoogle   = "google"
	loginMethodPassword = "password"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// LoginResult はログイン成功時に返すユーザーとセッショントークン。
type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput はメールアドレス/パスワードによる新規登録の入力。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	verifier IdentityVerifier
	userRepo repository.UserRepository
	tokens   *TokenIssuer
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	verifier IdentityVerifier,
	userRepo repository.UserRepository,
	tokens *TokenIssuer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		verifier: verifier,
		userRepo: userRepo,
		tokens:   tokens,
		metrics:  collector,
	}
}

// GoogleLogin はIdPのIDトークンを検証し、ユーザーを特定または作成してセッションを発行する。
// 同じメールアドレスの既存ユーザーにGoogle IDが未設定なら紐付ける。
// 別のGoogle IDが紐付いている場合は自動解決せずACCOUNT_CONFLICTを返す。
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (*LoginResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, model.NewBadRequestError("Token is required")
	}

	claims, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.metrics.RecordLogin(loginMethodGoogle, metrics.OutcomeFailure)
		slog.Warn("id token verification failed", slog.String("error", err.Error()))
		return nil, model.NewInvalidTokenError()
	}

	user, err := s.resolveGoogleUser(ctx, claims)
	if err != nil {
		s.metrics.RecordLogin(loginMethodGoogle, metrics.OutcomeFailure)
		return nil, err
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(loginMethodGoogle, metrics.OutcomeSuccess)
	return result, nil
}

// resolveGoogleUser はクレームに対応するユーザーを返す。必要に応じて紐付け・作成を行う。
func (s *Service) resolveGoogleUser(ctx context.Context, claims *IdentityClaims) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(claims.Email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user != nil {
		if user.HasGoogleID() {
			if *user.GoogleID != claims.Subject {
				slog.Warn("google account link conflict",
					slog.String("user_id", user.ID),
					slog.String("reason", "email linked to different google id"),
				)
				return nil, model.NewAccountConflictError()
			}
			slog.Info("existing user logged in", slog.String("user_id", user.ID), slog.String("method", loginMethodGoogle))
			return user, nil
		}
		return s.linkGoogleID(ctx, user, claims.Subject)
	}

	// メールアドレスが一致しないがGoogle IDが既に別ユーザーに紐付いているケース
	owner, err := s.userRepo.FindByGoogleID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by google ID: %w", err)
	}
	if owner != nil {
		slog.Warn("google account link conflict",
			slog.String("user_id", owner.ID),
			slog.String("reason", "google id linked to different email"),
		)
		return nil, model.NewAccountConflictError()
	}

	googleID := claims.Subject
	newUser := &model.User{
		Name:     normalizeName(claims.Name),
		Email:    email,
		GoogleID: &googleID,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// 同時ログインで先に作成された場合は作成済みユーザーを採用する
			existing, findErr := s.userRepo.FindByGoogleID(ctx, claims.Subject)
			if findErr == nil && existing != nil && existing.Email == email {
				return existing, nil
			}
			return nil, model.NewAccountConflictError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created", slog.String("user_id", newUser.ID), slog.String("method", loginMethodGoogle))
	return newUser, nil
}

func (s *Service) linkGoogleID(ctx context.Context, user *model.User, googleID string) (*model.User, error) {
	linked, err := s.userRepo.LinkGoogleID(ctx, user.ID, googleID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			slog.Warn("google account link conflict",
				slog.String("user_id", user.ID),
				slog.String("reason", "google id linked to another user"),
			)
			return nil, model.NewAccountConflictError()
		}
		return nil, fmt.Errorf("failed to link google ID: %w", err)
	}

	if !linked {
		// 並行リクエストで紐付けが先行した場合は最新の状態で判定し直す
		current, err := s.userRepo.FindByID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload user: %w", err)
		}
		if current == nil || !current.HasGoogleID() || *current.GoogleID != googleID {
			return nil, model.NewAccountConflictError()
		}
		return current, nil
	}

	user.GoogleID = &googleID
	slog.Info("google account linked", slog.String("user_id", user.ID))
	return user, nil
}

// Register はメールアドレス/パスワードでユーザーを作成し、セッションを発行する。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var problems []string
	if name == "" {
		problems = append(problems, "Name is required")
	} else if len([]rune(name)) > MaxNameLength {
		problems = append(problems, fmt.Sprintf("Name cannot exceed %d characters", MaxNameLength))
	}
	if !emailPattern.MatchString(email) {
		problems = append(problems, "Please enter a valid email")
	}
	if err := ValidatePassword(input.Password); err != nil {
		problems = append(problems, PasswordErrorMessage(err))
	}
	if len(problems) > 0 {
		return nil, model.NewValidationError(problems...)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Name: name, Email: email, PasswordHash: &hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created", slog.String("user_id", user.ID), slog.String("method", loginMethodPassword))
	return s.issue(user)
}

// Login はメールアドレス/パスワードで認証し、セッションを発行する。
// パスワード未設定のユーザーはパスワードログインできない。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, model.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil || !user.HasPassword() {
		s.metrics.RecordLogin(loginMethodPassword, metrics.OutcomeFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := ComparePassword(*user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.RecordLogin(loginMethodPassword, metrics.OutcomeFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(loginMethodPassword, metrics.OutcomeSuccess)
	return result, nil
}

// Authenticate はセッショントークンを検証し、対応するユーザーを返す。
// トークン不正・期限切れ・ユーザー不在はすべてUNAUTHORIZEDとして扱う。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthorizedError()
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		slog.Debug("session token rejected", slog.String("error", err.Error()))
		return nil, model.NewUnauthorizedError()
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// SessionTTL はセッショントークンの有効期間を返す。
func (s *Service) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *Service) issue(user *model.User) (*LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// normalizeName はIdPの表示名を整形する。空の場合は既定名を使う。
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultUserName
	}
	if r := []rune(name); len(r) > MaxNameLength {
		return string(r[:MaxNameLength])
	}
	return name
}
