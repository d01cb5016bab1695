package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-task-manager/internal/config"
	"go-task-manager/internal/models"
)

// トークン検証の失敗理由。errors.Is で判別できます。
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token is expired")
)

const (
	claimUserID = "userId"
	claimName   = "name"
)

// JWTService はJWTトークンの生成と検証を扱います。
type JWTService struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// NewJWTService は新しいJWTServiceを作成します。
func NewJWTService(cfg config.JWTConfig) *JWTService {
	expiration := cfg.Expiration
	if expiration <= 0 {
		expiration = config.DefaultJWTExpiration
	}
	s := &JWTService{
		secret:     cfg.Secret,
		expiration: expiration,
		now:        time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithJSONNumber(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

// GenerateToken はユーザーのJWTトークンを生成します。
func (s *JWTService) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":       user.Email,
		claimUserID: user.ID,
		claimName:   user.Name,
		"iat":       now.Unix(),
		"exp":       now.Add(s.expiration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken はJWTトークンを検証し、クレームを返します。
// 署名を先に検証し、その後に有効期限を確認します。
func (s *JWTService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	userID, err := normalizeUserID(claims[claimUserID])
	if err != nil {
		return nil, err
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	name, _ := claims[claimName].(string)

	out := &models.TokenClaims{
		UserID: userID,
		Email:  subject,
		Name:   name,
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// ExtractUserID は検証済みトークンからユーザーIDを取り出します。
func (s *JWTService) ExtractUserID(tokenString string) (int64, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// ExtractSubject は検証済みトークンからメールアドレス (sub) を取り出します。
func (s *JWTService) ExtractSubject(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

// ExtractName は検証済みトークンから表示名を取り出します。
func (s *JWTService) ExtractName(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Name, nil
}

// Expiration はトークンの有効期間を返します。
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		// exp の欠落など
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// normalizeUserID は userId クレームを int64 にそろえます。
// デコーダによって float64 や json.Number になるため、ここで一度だけ変換します。
func normalizeUserID(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: userId %q is not a number", ErrTokenMalformed, n)
		}
		return integralFloat(f)
	case float64:
		return integralFloat(n)
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case nil:
		return 0, fmt.Errorf("%w: missing userId", ErrTokenMalformed)
	}
	return 0, fmt.Errorf("%w: userId has unexpected type %T", ErrTokenMalformed, v)
}

func integralFloat(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("%w: userId %v is not an integer", ErrTokenMalformed, f)
	}
	return int64(f), nil
}
