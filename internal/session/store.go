// store.go — персистентное хранение сессии в cookies.
// TokenStore — durable-зеркало bearer-токена (источник истины для
// авторизации). ProfileCodec — зашифрованное AES-256-GCM зеркало
// профиля для быстрого чтения без похода в backend; границей
// безопасности НЕ является.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Имена cookies Web Module.
const (
	// TokenCookieName — durable cookie с bearer-токеном backend.
	TokenCookieName = "lms_access_token"
	// ProfileCookieName — зашифрованное зеркало профиля.
	ProfileCookieName = "lms_profile"
)

// TokenStore — durable-зеркало текущего bearer-токена.
// Никаких побочных эффектов кроме записи cookie: ни навигации,
// ни сетевых вызовов.
type TokenStore struct {
	// secure — флаг Secure cookie (true при https).
	secure bool
	// maxAge — время жизни token cookie.
	maxAge time.Duration
}

// NewTokenStore создаёт хранилище токена.
func NewTokenStore(secure bool, maxAge time.Duration) *TokenStore {
	return &TokenStore{secure: secure, maxAge: maxAge}
}

// Persist записывает токен в cookie на весь путь сайта.
// Повторная запись того же значения эквивалентна no-op по эффекту.
func (s *TokenStore) Persist(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear удаляет токен. Безопасен при отсутствии токена.
func (s *TokenStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read возвращает сохранённый токен или (пусто, false).
// Отсутствие токена — валидное устойчивое состояние (logged-out).
func (s *TokenStore) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(TokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// --- Profile cookie ---

// ProfileCodec шифрует/дешифрует Record в profile cookie через
// AES-256-GCM. Зеркало профиля, не граница безопасности: решения об
// авторизации принимаются только по ревалидированной записи.
type ProfileCodec struct {
	gcm    cipher.AEAD
	secure bool
	maxAge time.Duration
}

// NewProfileCodec создаёт кодек profile cookie.
// key — произвольная строка-секрет; base64-ключ длиной 32 байта
// используется напрямую, иначе хешируется SHA-256 до 32 байт.
// Пустой key — случайный ключ, cookie не переживают рестарт.
func NewProfileCodec(key string, secure bool, maxAge time.Duration) (*ProfileCodec, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("генерация ключа profile cookie: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			h := sha256.Sum256([]byte(key))
			keyBytes = h[:]
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("создание AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("создание GCM: %w", err)
	}

	return &ProfileCodec{gcm: gcm, secure: secure, maxAge: maxAge}, nil
}

// Set записывает зашифрованное зеркало профиля в cookie.
func (c *ProfileCodec) Set(w http.ResponseWriter, rec Record) error {
	plaintext, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("сериализация профиля: %w", err)
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("генерация nonce: %w", err)
	}

	// nonce prepended к ciphertext
	ciphertext := c.gcm.Seal(nonce, nonce, plaintext, nil)

	http.SetCookie(w, &http.Cookie{
		Name:     ProfileCookieName,
		Value:    base64.URLEncoding.EncodeToString(ciphertext),
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Get извлекает и дешифрует зеркало профиля из запроса.
// Возвращает (nil, nil) при отсутствии cookie.
func (c *ProfileCodec) Get(r *http.Request) (*Record, error) {
	cookie, err := r.Cookie(ProfileCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	ciphertext, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("декодирование profile cookie: %w", err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("profile cookie повреждён: слишком короткий")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("дешифрование profile cookie: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(plaintext, &rec); err != nil {
		return nil, fmt.Errorf("десериализация профиля: %w", err)
	}
	return &rec, nil
}

// Clear удаляет profile cookie.
func (c *ProfileCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ProfileCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
