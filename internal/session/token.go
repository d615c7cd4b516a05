package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"hostel-portal/internal/role"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenParser turns the backend-issued HS256 bearer token into a User. The
// raw token is kept on the user so backend calls can forward it.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

func (p *TokenParser) Parse(tokenString string) (User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, ErrInvalidToken
	}

	u := User{
		ID:          claimString(claims, "id", "user_id", "_id", "sub"),
		Role:        role.Parse(claimString(claims, "role")),
		Name:        claimString(claims, "name"),
		Username:    claimString(claims, "username"),
		Designation: claimString(claims, "designation"),
		PhotoURL:    claimString(claims, "photoUrl", "profilePicture"),
		Token:       tokenString,
	}
	if u.Key() == "" {
		return User{}, fmt.Errorf("%w: token carries no user id", ErrInvalidToken)
	}
	return u, nil
}

// claimString returns the first present claim as a string; JWT numbers
// decode as float64.
func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
