package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/golms/web-module/internal/lmsclient"
)

// Допустимые значения iss в Google ID-токене.
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// GoogleClaims — claims ID-токена Google Identity Services.
type GoogleClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleVerifier локально проверяет подпись и claims Google ID-токена
// до отправки его в backend. Ключи подписи подтягиваются из JWKS
// Google и обновляются в фоне.
type GoogleVerifier struct {
	clientID string
	keyFunc  keyfunc.Keyfunc
	logger   *slog.Logger
}

// NewGoogleVerifier создаёт верификатор с фоновым обновлением JWKS.
// ctx управляет временем жизни фонового обновления ключей.
func NewGoogleVerifier(ctx context.Context, clientID, jwksURL string, refreshInterval time.Duration, logger *slog.Logger) (*GoogleVerifier, error) {
	u, err := url.Parse(jwksURL)
	if err != nil {
		return nil, fmt.Errorf("разбор JWKS URL: %w", err)
	}

	storage, err := jwkset.NewStorageFromHTTP(u.String(), jwkset.HTTPClientStorageOptions{
		Ctx:    ctx,
		Client: &http.Client{Timeout: 10 * time.Second},
		// Сервис стартует даже если Google недоступен: первая
		// проверка токена дождётся успешной загрузки ключей.
		NoErrorReturnFirstHTTPReq: true,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Warn("Не удалось обновить Google JWKS", "error", err)
		},
		RefreshInterval: refreshInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	kf, err := keyfunc.New(keyfunc.Options{
		Ctx:     ctx,
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return &GoogleVerifier{clientID: clientID, keyFunc: kf, logger: logger}, nil
}

// NewGoogleVerifierWithKeyfunc создаёт верификатор с готовым keyfunc.
// Используется в тестах со статическим JWKS.
func NewGoogleVerifierWithKeyfunc(clientID string, kf keyfunc.Keyfunc, logger *slog.Logger) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, keyFunc: kf, logger: logger}
}

// Verify проверяет подпись, срок действия, audience и issuer
// ID-токена. Любая ошибка проверки оборачивает
// lmsclient.ErrIdentityRejected: внешняя identity отклонена,
// состояние сессии не меняется.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*GoogleClaims, error) {
	claims := &GoogleClaims{}

	token, err := jwt.ParseWithClaims(rawToken, claims, v.keyFunc.KeyfuncCtx(ctx),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(v.clientID),
	)
	if err != nil {
		v.logger.Debug("Google ID-токен не прошёл проверку", "error", err)
		return nil, fmt.Errorf("%w: %w", lmsclient.ErrIdentityRejected, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: токен невалиден", lmsclient.ErrIdentityRejected)
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: отсутствует iss", lmsclient.ErrIdentityRejected)
	}
	validIssuer := false
	for _, allowed := range googleIssuers {
		if iss == allowed {
			validIssuer = true
			break
		}
	}
	if !validIssuer {
		return nil, fmt.Errorf("%w: недопустимый issuer %q", lmsclient.ErrIdentityRejected, iss)
	}

	return claims, nil
}
