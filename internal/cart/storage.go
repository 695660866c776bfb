package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	// maxCookieValue keeps each chunk under the 4096 byte limit browsers
	// enforce per cookie, leaving room for the name and attributes.
	maxCookieValue = 3800
	// maxCookieChunks bounds the cart at roughly 76 KB of encoded lines,
	// well inside the 50 cookies per domain browsers must accept.
	maxCookieChunks = 20
)

var ErrCartTooLarge = errors.New("cart too large to store")

type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	return data, ok, nil
}

func (m *MemoryStorage) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

// CookieStorage keeps the cart in the shopper's browser so the server holds
// no cart state. The lines travel as an HS256 token split across numbered
// cookies <key>.0, <key>.1, ... It is bound to a single request.
type CookieStorage struct {
	w       http.ResponseWriter
	r       *http.Request
	cookies Cookies
	written int
	now     func() time.Time
}

type cartClaims struct {
	Lines json.RawMessage `json:"lines"`
	jwt.StandardClaims
}

func NewCookieStorage(w http.ResponseWriter, r *http.Request, cookies Cookies) *CookieStorage {
	return &CookieStorage{w: w, r: r, cookies: cookies, now: time.Now}
}

func chunkName(key string, i int) string {
	return key + "." + strconv.Itoa(i)
}

func (c *CookieStorage) Load(key string) ([]byte, bool, error) {
	var value strings.Builder
	for i := 0; i < maxCookieChunks; i++ {
		cookie, err := c.r.Cookie(chunkName(key, i))
		if errors.Is(err, http.ErrNoCookie) {
			break
		}
		if err != nil {
			return nil, false, err
		}
		value.WriteString(cookie.Value)
	}
	if value.Len() == 0 {
		return nil, false, nil
	}

	var claims cartClaims
	token, err := jwt.ParseWithClaims(value.String(), &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.cookies.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	if claims.Subject != key {
		return nil, false, fmt.Errorf("%w: signed for %q", ErrCorruptCart, claims.Subject)
	}
	return claims.Lines, true, nil
}

// Save signs data, which must be JSON, and writes it as one or more cookies.
func (c *CookieStorage) Save(key string, data []byte) error {
	claims := cartClaims{
		Lines:          json.RawMessage(data),
		StandardClaims: jwt.StandardClaims{Subject: key},
	}
	if c.cookies.MaxAge > 0 {
		claims.ExpiresAt = c.now().Add(c.cookies.MaxAge).Unix()
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cookies.Secret)
	if err != nil {
		return fmt.Errorf("sign cart: %w", err)
	}

	n := (len(value) + maxCookieValue - 1) / maxCookieValue
	if n > maxCookieChunks {
		return ErrCartTooLarge
	}

	for i := 0; i < n; i++ {
		end := min((i+1)*maxCookieValue, len(value))
		c.set(chunkName(key, i), value[i*maxCookieValue:end], int(c.cookies.MaxAge.Seconds()))
	}

	// A shorter cart must not be extended by chunks left from a longer one.
	for i := n; i < maxCookieChunks; i++ {
		if _, err := c.r.Cookie(chunkName(key, i)); err == nil || i < c.written {
			c.set(chunkName(key, i), "", -1)
		}
	}
	c.written = max(c.written, n)
	return nil
}

func (c *CookieStorage) set(name, value string, maxAge int) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
